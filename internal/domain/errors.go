package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped by a *ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or empty.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthenticated is returned when an operation has no caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized is returned when the caller does not own the referenced task.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrInvalidState is returned when an action is not valid for the task's
	// current status, for example starting a task that is not waiting.
	ErrInvalidState = errors.New("invalid task state")

	// ErrInvalidTaskStatus is returned when a status value is not one of the
	// known task statuses.
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field. If err is nil the
// error wraps ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
