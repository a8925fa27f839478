package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidID is returned when an identifier cannot be parsed.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrInvalidTaskKind is returned when a task kind is not one of the
	// known kinds (inkdot, inkline, inkchapter).
	ErrInvalidTaskKind = errors.New("invalid task kind")

	// ErrInvalidSkillCategory is returned when a skill category is not one
	// of the six fixed categories.
	ErrInvalidSkillCategory = errors.New("invalid skill category")

	// ErrInvalidPromptKind is returned when a prompt kind is not valid.
	ErrInvalidPromptKind = errors.New("invalid prompt kind")

	// ErrInvalidRecordStatus is returned when an attempt record status is
	// not one of draft, submitted, completed.
	ErrInvalidRecordStatus = errors.New("invalid record status")

	// ErrInvalidChallengeType is returned when a daily challenge archetype
	// is unknown.
	ErrInvalidChallengeType = errors.New("invalid challenge type")
)

// ValidationError carries the field that failed validation alongside the
// underlying sentinel error, so callers can both inspect the cause with
// errors.Is and report which input was bad.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
