package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
)

// TaskStore defines the interface for task persistence.
// Implementations must be safe for concurrent use.
type TaskStore interface {
	// Create saves a new task. The task must already be valid and waiting.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner returns every task owned by ownerID, oldest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// GetMany returns the tasks whose id is in ids, that are owned by ownerID
	// and, when status is non-nil, that currently hold that status.
	GetMany(
		ctx context.Context,
		ids []uuid.UUID,
		ownerID uuid.UUID,
		status *domain.TaskStatus,
	) ([]*domain.Task, error)

	// ListByStatus returns every task currently in status, oldest first.
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)

	// UpdateStatus moves a task to status and records result. The update is
	// applied atomically and only if the task currently holds the status
	// required by domain.RequiredPriorStatus(status).
	// Returns ErrTaskNotFound if the task does not exist, ErrStatusConflict if
	// its current status does not allow the transition, and ErrInvalidEntity
	// if result is not set exactly when status is terminal.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus, result *int) error

	// Delete removes a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteMany removes the tasks in ids that are owned by ownerID and
	// returns how many were removed.
	DeleteMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (int, error)
}

// ValidateStatusUpdate checks the arguments of an UpdateStatus call before a
// store touches any state. It returns the status the task must currently hold.
func ValidateStatusUpdate(status domain.TaskStatus, result *int) (domain.TaskStatus, error) {
	prior, ok := domain.RequiredPriorStatus(status)
	if !ok {
		return "", NewStoreError("task", "update_status", "status cannot be entered by a transition", ErrInvalidEntity)
	}
	if err := domain.ValidateResult(status, result); err != nil {
		return "", NewStoreError("task", "update_status", err.Error(), ErrInvalidEntity)
	}
	return prior, nil
}
