// Package validation turns raw create/update payloads into typed product input.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"inventory/internal/models"

	"github.com/go-playground/validator/v10"
)

// Violation is a single failed rule on a payload field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is an ordered list of field violations.
type Violations []Violation

// FieldTree holds the messages reported for a single field.
type FieldTree struct {
	Errors []string `json:"errors"`
}

// Tree is the nested form of Violations returned to clients so a form can
// render every message next to its input.
type Tree struct {
	Errors     []string             `json:"errors"`
	Properties map[string]FieldTree `json:"properties,omitempty"`
}

// Tree groups the violations by field.
func (v Violations) Tree() Tree {
	tree := Tree{Errors: []string{}}
	if len(v) == 0 {
		return tree
	}
	tree.Properties = make(map[string]FieldTree, len(v))
	for _, violation := range v {
		ft := tree.Properties[violation.Field]
		ft.Errors = append(ft.Errors, violation.Message)
		tree.Properties[violation.Field] = ft
	}
	return tree
}

// Fields returns the distinct field names in report order.
func (v Violations) Fields() []string {
	seen := make(map[string]struct{}, len(v))
	fields := make([]string, 0, len(v))
	for _, violation := range v {
		if _, ok := seen[violation.Field]; ok {
			continue
		}
		seen[violation.Field] = struct{}{}
		fields = append(fields, violation.Field)
	}
	return fields
}

type productField struct {
	key    string // payload key
	goName string // models.ProductInput field
	label  string
	number bool
}

var productFields = []productField{
	{key: "name", goName: "Name", label: "Name"},
	{key: "article", goName: "Article", label: "Article"},
	{key: "price", goName: "Price", label: "Price", number: true},
	{key: "quantity", goName: "Quantity", label: "Quantity", number: true},
}

// ProductSchema validates product payloads. It is safe for concurrent use.
type ProductSchema struct {
	validate *validator.Validate
}

// NewProductSchema creates a ProductSchema whose violations are keyed by the
// JSON field names.
func NewProductSchema() *ProductSchema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ProductSchema{validate: v}
}

// Parse checks every field of raw and returns the trimmed input. When any rule
// fails the returned Violations is non-empty and the input must be ignored.
func (s *ProductSchema) Parse(raw map[string]any) (models.ProductInput, Violations) {
	var in models.ProductInput
	messages := make(map[string][]string)
	var untyped []string

	for _, f := range productFields {
		value, present := raw[f.key]
		if !present || value == nil {
			messages[f.key] = append(messages[f.key], f.label+" is required")
			untyped = append(untyped, f.goName)
			continue
		}
		if f.number {
			n, ok := toNumber(value)
			if !ok {
				messages[f.key] = append(messages[f.key], f.label+" must be a number")
				untyped = append(untyped, f.goName)
				continue
			}
			setNumber(&in, f.key, n)
			continue
		}
		str, ok := value.(string)
		if !ok {
			messages[f.key] = append(messages[f.key], f.label+" must be a string")
			untyped = append(untyped, f.goName)
			continue
		}
		setString(&in, f.key, strings.TrimSpace(str))
	}

	if err := s.validate.StructExcept(in, untyped...); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				messages[fe.Field()] = append(messages[fe.Field()], ruleMessage(fe))
			}
		}
	}

	var violations Violations
	for _, f := range productFields {
		for _, msg := range messages[f.key] {
			violations = append(violations, Violation{Field: f.key, Message: msg})
		}
	}
	return in, violations
}

func ruleMessage(fe validator.FieldError) string {
	label := fe.Field()
	for _, f := range productFields {
		if f.key == fe.Field() {
			label = f.label
			break
		}
	}
	isString := fe.Kind() == reflect.String
	switch {
	case fe.Tag() == "min" && isString && fe.Param() == "1":
		return label + " cannot be empty"
	case fe.Tag() == "min" && isString:
		return fmt.Sprintf("%s cannot be shorter than %s characters", label, fe.Param())
	case fe.Tag() == "max" && isString:
		return fmt.Sprintf("%s cannot be longer than %s characters", label, fe.Param())
	case fe.Tag() == "min":
		return fmt.Sprintf("%s cannot be less than %s", label, fe.Param())
	case fe.Tag() == "max":
		return fmt.Sprintf("%s cannot be greater than %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", label, fe.Tag())
	}
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func setNumber(in *models.ProductInput, key string, n float64) {
	switch key {
	case "price":
		in.Price = n
	case "quantity":
		in.Quantity = n
	}
}

func setString(in *models.ProductInput, key, s string) {
	switch key {
	case "name":
		in.Name = s
	case "article":
		in.Article = s
	}
}
