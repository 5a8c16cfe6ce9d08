package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
)

// StatusView is the externally visible state of a task.
type StatusView struct {
	Status domain.TaskStatus `json:"status"`
	Result *int              `json:"result"`
}

// StatusService provides read-only access to a user's tasks.
type StatusService interface {
	// GetStatus returns the status and result of a task owned by ownerID.
	// Returns store.ErrTaskNotFound or domain.ErrUnauthorized.
	GetStatus(ctx context.Context, taskID, ownerID uuid.UUID) (StatusView, error)

	// ListTasks returns every task owned by ownerID, oldest first.
	ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
}

type statusServiceImpl struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewStatusService creates a StatusService backed by taskStore.
func NewStatusService(taskStore store.TaskStore, logger *slog.Logger) StatusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &statusServiceImpl{
		tasks:  taskStore,
		logger: logger.With("component", "status_service"),
	}
}

// GetStatus implements StatusService.
func (s *statusServiceImpl) GetStatus(ctx context.Context, taskID, ownerID uuid.UUID) (StatusView, error) {
	if ownerID == uuid.Nil {
		return StatusView{}, domain.ErrUnauthenticated
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return StatusView{}, NewServiceError("status", "get_status", "failed to load task", err)
	}
	if err := domain.CheckOwnership(t, ownerID); err != nil {
		s.logger.DebugContext(ctx, "status read denied",
			"task_id", taskID,
			"user_id", ownerID)
		return StatusView{}, err
	}

	return StatusView{Status: t.Status, Result: t.Result}, nil
}

// ListTasks implements StatusService.
func (s *statusServiceImpl) ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	if ownerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, NewServiceError("status", "list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}
