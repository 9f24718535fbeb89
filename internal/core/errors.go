package core

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrValidation    = errors.New("validation error")
	ErrDuplicateName = errors.New("tag already exists")
	ErrEmptyName     = errors.New("empty tag name")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidKind   = errors.New("invalid kind")
)

// ValidationError ties a validation failure to the offending field. It
// matches both ErrValidation and the specific cause under errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}
