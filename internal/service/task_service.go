package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
	"github.com/phrazzld/task-tracker/internal/task"
)

// TaskDispatcher is the part of the task dispatcher used by TaskService.
// *task.Dispatcher implements it.
type TaskDispatcher interface {
	StartOne(ctx context.Context, taskID, ownerID uuid.UUID) (*domain.Task, error)
	StartMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (task.StartSummary, error)
	Cancel(ctx context.Context, taskID, ownerID uuid.UUID) error
	Interrupt(taskID uuid.UUID) bool
}

var _ TaskDispatcher = (*task.Dispatcher)(nil)

// TaskInput carries the user-supplied fields of a new task.
type TaskInput struct {
	Name   string
	Target string
}

// BatchItemError describes why one item of a batch create was rejected.
type BatchItemError struct {
	Index int
	Err   error
}

// BatchCreateResult reports the outcome of CreateBatch.
type BatchCreateResult struct {
	Created []*domain.Task
	Failed  []BatchItemError
}

// Requested returns the number of items in the batch.
func (r BatchCreateResult) Requested() int {
	return len(r.Created) + len(r.Failed)
}

// TaskService provides task lifecycle operations on behalf of a user.
type TaskService interface {
	// Create creates a waiting task owned by ownerID.
	Create(ctx context.Context, ownerID uuid.UUID, input TaskInput) (*domain.Task, error)

	// CreateBatch validates and creates each item in order. Invalid or failed
	// items are reported in the result and do not stop the batch.
	CreateBatch(ctx context.Context, ownerID uuid.UUID, inputs []TaskInput) (BatchCreateResult, error)

	// Start moves a waiting task to running and schedules its execution.
	Start(ctx context.Context, taskID, ownerID uuid.UUID) (*domain.Task, error)

	// StartMany starts every listed task that is owned by ownerID and waiting.
	StartMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (task.StartSummary, error)

	// Cancel stops a running task.
	Cancel(ctx context.Context, taskID, ownerID uuid.UUID) error

	// Delete removes a task at any status. A running execution is interrupted.
	// Returns store.ErrTaskNotFound or domain.ErrUnauthorized.
	Delete(ctx context.Context, taskID, ownerID uuid.UUID) error

	// DeleteMany removes the listed tasks owned by ownerID and returns how
	// many were removed. Unknown and foreign ids are skipped.
	DeleteMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (int, error)
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	dispatcher TaskDispatcher
	logger     *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(taskStore store.TaskStore, dispatcher TaskDispatcher, logger *slog.Logger) (TaskService, error) {
	if taskStore == nil {
		return nil, &ServiceError{Service: "task", Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if dispatcher == nil {
		return nil, &ServiceError{Service: "task", Operation: "create_service", Message: "dispatcher cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:      taskStore,
		dispatcher: dispatcher,
		logger:     logger.With("component", "task_service"),
	}, nil
}

// Create implements TaskService.
func (s *taskServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, input TaskInput) (*domain.Task, error) {
	if ownerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	t, err := domain.NewTask(ownerID, input.Name, input.Target)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "failed to save task",
			"error", err,
			"user_id", ownerID)
		return nil, NewServiceError("task", "create", "failed to save task", err)
	}

	s.logger.InfoContext(ctx, "task created",
		"task_id", t.ID,
		"user_id", ownerID)
	return t, nil
}

// CreateBatch implements TaskService.
func (s *taskServiceImpl) CreateBatch(
	ctx context.Context,
	ownerID uuid.UUID,
	inputs []TaskInput,
) (BatchCreateResult, error) {
	if ownerID == uuid.Nil {
		return BatchCreateResult{}, domain.ErrUnauthenticated
	}
	if len(inputs) == 0 {
		return BatchCreateResult{}, ErrEmptyBatch
	}
	if len(inputs) > MaxBatchSize {
		return BatchCreateResult{}, ErrBatchTooLarge
	}

	var result BatchCreateResult
	for i, input := range inputs {
		t, err := s.Create(ctx, ownerID, input)
		if err != nil {
			result.Failed = append(result.Failed, BatchItemError{Index: i, Err: err})
			continue
		}
		result.Created = append(result.Created, t)
	}

	if len(result.Failed) > 0 {
		s.logger.WarnContext(ctx, "batch create partially failed",
			"user_id", ownerID,
			"requested", len(inputs),
			"failed", len(result.Failed))
	}
	return result, nil
}

// Start implements TaskService.
func (s *taskServiceImpl) Start(ctx context.Context, taskID, ownerID uuid.UUID) (*domain.Task, error) {
	t, err := s.dispatcher.StartOne(ctx, taskID, ownerID)
	if err != nil {
		return nil, NewServiceError("task", "start", "failed to start task", err)
	}
	return t, nil
}

// StartMany implements TaskService.
func (s *taskServiceImpl) StartMany(
	ctx context.Context,
	ids []uuid.UUID,
	ownerID uuid.UUID,
) (task.StartSummary, error) {
	if len(ids) > MaxBatchSize {
		return task.StartSummary{}, ErrBatchTooLarge
	}
	summary, err := s.dispatcher.StartMany(ctx, ids, ownerID)
	if err != nil {
		return summary, NewServiceError("task", "start_many", "failed to start tasks", err)
	}
	return summary, nil
}

// Cancel implements TaskService.
func (s *taskServiceImpl) Cancel(ctx context.Context, taskID, ownerID uuid.UUID) error {
	return NewServiceError("task", "cancel", "failed to cancel task",
		s.dispatcher.Cancel(ctx, taskID, ownerID))
}

// Delete implements TaskService.
func (s *taskServiceImpl) Delete(ctx context.Context, taskID, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return NewServiceError("task", "delete", "failed to load task", err)
	}
	if err := domain.CheckOwnership(t, ownerID); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return NewServiceError("task", "delete", "failed to delete task", err)
	}

	interrupted := s.dispatcher.Interrupt(taskID)
	s.logger.InfoContext(ctx, "task deleted",
		"task_id", taskID,
		"user_id", ownerID,
		"interrupted", interrupted)
	return nil
}

// DeleteMany implements TaskService.
func (s *taskServiceImpl) DeleteMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (int, error) {
	if ownerID == uuid.Nil {
		return 0, domain.ErrUnauthenticated
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > MaxBatchSize {
		return 0, ErrBatchTooLarge
	}

	// Only owned tasks may be interrupted, so resolve them first.
	owned, err := s.tasks.GetMany(ctx, ids, ownerID, nil)
	if err != nil {
		return 0, NewServiceError("task", "delete_many", "failed to load tasks", err)
	}
	if len(owned) == 0 {
		return 0, nil
	}

	ownedIDs := make([]uuid.UUID, len(owned))
	for i, t := range owned {
		ownedIDs[i] = t.ID
	}

	deleted, err := s.tasks.DeleteMany(ctx, ownedIDs, ownerID)
	if err != nil {
		return 0, NewServiceError("task", "delete_many", fmt.Sprintf("failed to delete %d tasks", len(ownedIDs)), err)
	}

	for _, id := range ownedIDs {
		s.dispatcher.Interrupt(id)
	}

	s.logger.InfoContext(ctx, "tasks deleted",
		"user_id", ownerID,
		"requested", len(ids),
		"deleted", deleted)
	return deleted, nil
}
