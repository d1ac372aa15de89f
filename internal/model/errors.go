// Package model defines the client, policy and claim records and the pure
// validation rules that apply to them.
package model

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every validation failure.
var ErrValidation = errors.New("validation failed")

// ErrPolicyCancelled is returned when a cancelled policy is asked to change.
var ErrPolicyCancelled = errors.New("policy is cancelled")

// ValidationError describes a rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
