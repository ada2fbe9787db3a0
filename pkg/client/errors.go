package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"inventory/internal/validation"
)

// ErrNotFound is matched by APIErrors with status 404.
var ErrNotFound = errors.New("product not found")

// APIError is any error response without field attribution.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ValidationError carries the per-field violations of a rejected payload.
type ValidationError struct {
	Tree validation.Tree
}

func (e *ValidationError) Error() string {
	var parts []string
	for _, field := range []string{"name", "article", "price", "quantity"} {
		if msgs := e.FieldErrors(field); len(msgs) > 0 {
			parts = append(parts, field+": "+strings.Join(msgs, ", "))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldErrors returns the messages reported for field.
func (e *ValidationError) FieldErrors(field string) []string {
	return e.Tree.Properties[field].Errors
}

// ConflictError reports a uniqueness violation on Field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Field   string          `json:"field"`
}

func decodeError(status int, raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Message) == 0 {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(raw))}
	}

	if status == http.StatusConflict && body.Field != "" {
		var msg string
		_ = json.Unmarshal(body.Message, &msg)
		return &ConflictError{Field: body.Field, Message: msg}
	}

	var msg string
	if err := json.Unmarshal(body.Message, &msg); err == nil {
		return &APIError{StatusCode: status, Message: msg}
	}

	var tree validation.Tree
	if err := json.Unmarshal(body.Message, &tree); err == nil && status == http.StatusBadRequest {
		return &ValidationError{Tree: tree}
	}
	return &APIError{StatusCode: status, Message: string(body.Message)}
}
