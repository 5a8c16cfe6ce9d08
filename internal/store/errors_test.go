package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "ErrTaskNotFound",
			err:      ErrTaskNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrUserNotFound",
			err:      fmt.Errorf("failed to find user: %w", ErrUserNotFound),
			expected: true,
		},
		{
			name:     "store error wrapping ErrTaskNotFound",
			err:      NewStoreError("task", "get", "lookup failed", ErrTaskNotFound),
			expected: true,
		},
		{
			name:     "ErrStatusConflict",
			err:      ErrStatusConflict,
			expected: false,
		},
		{
			name:     "ErrUsernameExists",
			err:      ErrUsernameExists,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(ErrDuplicate))
	assert.True(t, IsDuplicateError(ErrUsernameExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrUsernameExists)))
	assert.False(t, IsDuplicateError(ErrNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestStoreError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := NewStoreError("task", "update_status", "conditional update lost", ErrStatusConflict)
		assert.Equal(t,
			"update_status operation on task failed: conditional update lost: status conflict",
			err.Error())
		assert.ErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := NewStoreError("user", "create", "bad input", nil)
		assert.Equal(t, "create operation on user failed: bad input", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}

func TestValidateStatusUpdate(t *testing.T) {
	tests := []struct {
		name      string
		status    domain.TaskStatus
		result    *int
		wantPrior domain.TaskStatus
		wantErr   bool
	}{
		{"start", domain.TaskStatusRunning, nil, domain.TaskStatusWaiting, false},
		{"finish", domain.TaskStatusFinished, domain.ResultCode(domain.ResultSuccess), domain.TaskStatusRunning, false},
		{"fail", domain.TaskStatusFailed, domain.ResultCode(domain.ResultFailure), domain.TaskStatusRunning, false},
		{"back to waiting", domain.TaskStatusWaiting, nil, "", true},
		{"unknown status", domain.TaskStatus("paused"), nil, "", true},
		{"terminal without result", domain.TaskStatusFinished, nil, "", true},
		{"running with result", domain.TaskStatusRunning, domain.ResultCode(1), "", true},
		{"finished with failure code", domain.TaskStatusFinished, domain.ResultCode(domain.ResultFailure), "", true},
		{"failed with success code", domain.TaskStatusFailed, domain.ResultCode(domain.ResultSuccess), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior, err := ValidateStatusUpdate(tt.status, tt.result)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidEntity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrior, prior)
		})
	}
}
