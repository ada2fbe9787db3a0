package services

import (
	"errors"
	"strings"

	"inventory/internal/repositories"
	"inventory/internal/validation"
)

var (
	// ErrInvalidID is returned when a product id is not a non-negative integer.
	ErrInvalidID = errors.New("invalid id")
	// ErrProductNotFound is returned when the requested product does not exist.
	ErrProductNotFound = repositories.ErrProductNotFound
)

// ValidationError carries the field violations of a rejected payload.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a write rejected by a uniqueness rule on Field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func articleConflict() *ConflictError {
	return &ConflictError{Field: "article", Message: "Product with this article already exists"}
}
