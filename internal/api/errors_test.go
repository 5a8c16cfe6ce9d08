package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/task-tracker/internal/api/shared"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service/auth"
	"github.com/phrazzld/task-tracker/internal/store"
	"github.com/phrazzld/task-tracker/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", store.ErrTaskNotFound), http.StatusNotFound},
		{"invalid state", fmt.Errorf("%w: task is running", domain.ErrInvalidState), http.StatusConflict},
		{"username exists", store.ErrUsernameExists, http.StatusConflict},
		{"validation", domain.ErrEmptyTaskName, http.StatusBadRequest},
		{"invalid id", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable},
		{"execution fault", task.ErrExecutionFault, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"unauthorized", domain.ErrUnauthorized, "Task does not exist or you do not have permission"},
		{"not found", store.ErrTaskNotFound, "Task not found"},
		{"invalid state", domain.ErrInvalidState, "Task is not in a state that allows this action"},
		{"queue full", task.ErrQueueFull, "Task queue is full, try again later"},
		{"domain validation", domain.ErrEmptyTaskName, "Invalid request: name cannot be empty"},
		{"internal detail hidden", errors.New("pq: relation tasks does not exist"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(&CreateTaskRequest{Name: "x", Target: "ftp is not http"})
	assert.Equal(t, "Invalid target: invalid URL", SanitizeValidationError(err))

	err = shared.ValidateRequest(&TaskIDsRequest{})
	assert.Equal(t, "Invalid task_ids: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
