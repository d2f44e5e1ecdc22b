package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidInput is matched by every input validation failure.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which option input was rejected and why.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

// NewInputError builds an InputError for the given field.
func NewInputError(field string, value float64, reason string) *InputError {
	return &InputError{Field: field, Value: value, Reason: reason}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%v %s", e.Field, e.Value, e.Reason)
}

// Is reports ErrInvalidInput as a match so callers don't need the concrete type.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
