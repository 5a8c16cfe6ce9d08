package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service/auth"
	"github.com/phrazzld/task-tracker/internal/store"
	"github.com/phrazzld/task-tracker/internal/task"
)

// Common service errors - sentinel errors used across service implementations.
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in *ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrEmptyBatch indicates a batch request without any items.
	ErrEmptyBatch = domain.NewValidationError("tasks", "cannot be empty", nil)

	// ErrBatchTooLarge indicates a batch request above MaxBatchSize items.
	ErrBatchTooLarge = domain.NewValidationError("tasks", fmt.Sprintf("cannot exceed %d items", MaxBatchSize), nil)
)

// MaxBatchSize bounds the number of items in any batch request.
const MaxBatchSize = 100

// expectedErrors are passed through unwrapped so callers can map them.
var expectedErrors = []error{
	domain.ErrValidation,
	domain.ErrInvalidID,
	domain.ErrUnauthenticated,
	domain.ErrUnauthorized,
	domain.ErrInvalidState,
	store.ErrNotFound,
	store.ErrDuplicate,
	task.ErrQueueFull,
	auth.ErrInvalidCredentials,
}

// ServiceError wraps unexpected errors from a service with context.
type ServiceError struct {
	// Service is the service that failed (e.g., "task", "user")
	Service string
	// Operation is the operation that failed (e.g., "create", "delete_many")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err with service context.
// It returns nil for a nil err and returns expected sentinel errors unchanged.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range expectedErrors {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
