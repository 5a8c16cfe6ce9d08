package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
)

// taskEntry holds one task behind its own lock so status updates on
// different tasks never contend.
type taskEntry struct {
	mu      sync.Mutex
	task    *domain.Task
	deleted bool
}

// snapshot returns a copy of the task, or nil once the entry is deleted.
func (e *taskEntry) snapshot() *domain.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil
	}
	return e.task.Clone()
}

// TaskStore is a map-backed store.TaskStore. The map lock guards membership
// only; each task's fields are guarded by its entry lock. Every read returns
// a copy.
type TaskStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*taskEntry
	logger  *slog.Logger
	now     func() time.Time
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates an empty TaskStore.
func NewTaskStore(logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		entries: make(map[uuid.UUID]*taskEntry),
		logger:  logger.With(slog.String("component", "memory_task_store")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", err.Error(), store.ErrInvalidEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[task.ID]; exists {
		return store.NewStoreError("task", "create", "task id already in use", store.ErrDuplicate)
	}
	s.entries[task.ID] = &taskEntry{task: task.Clone()}

	s.logger.DebugContext(ctx, "task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

func (s *TaskStore) entry(id uuid.UUID) (*taskEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	task := e.snapshot()
	if task == nil {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// ListByOwner implements store.TaskStore.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.collect(nil, func(t *domain.Task) bool { return t.OwnerID == ownerID }), nil
}

// ListByStatus implements store.TaskStore.
func (s *TaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	return s.collect(nil, func(t *domain.Task) bool { return t.Status == status }), nil
}

// GetMany implements store.TaskStore.
func (s *TaskStore) GetMany(
	ctx context.Context,
	ids []uuid.UUID,
	ownerID uuid.UUID,
	status *domain.TaskStatus,
) ([]*domain.Task, error) {
	return s.collect(ids, func(t *domain.Task) bool {
		if t.OwnerID != ownerID {
			return false
		}
		return status == nil || t.Status == *status
	}), nil
}

// UpdateStatus implements store.TaskStore. The status check and the write
// happen under the task's entry lock, so of several concurrent callers
// attempting the same transition exactly one succeeds.
func (s *TaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	result *int,
) error {
	prior, err := store.ValidateStatusUpdate(status, result)
	if err != nil {
		return err
	}

	e, ok := s.entry(id)
	if !ok {
		return store.ErrTaskNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return store.ErrTaskNotFound
	}
	if e.task.Status != prior {
		return store.NewStoreError("task", "update_status",
			string(e.task.Status)+" -> "+string(status), store.ErrStatusConflict)
	}

	e.task.Status = status
	if result != nil {
		e.task.Result = domain.ResultCode(*result)
	}
	e.task.UpdatedAt = s.now()

	s.logger.DebugContext(ctx, "task status updated",
		slog.String("task_id", id.String()),
		slog.String("from", string(prior)),
		slog.String("to", string(status)))
	return nil
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if !ok {
		return store.ErrTaskNotFound
	}
	e.markDeleted()
	return nil
}

// DeleteMany implements store.TaskStore.
func (s *TaskStore) DeleteMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (int, error) {
	var removed []*taskEntry

	s.mu.Lock()
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok || e.task.OwnerID != ownerID {
			continue
		}
		delete(s.entries, id)
		removed = append(removed, e)
	}
	s.mu.Unlock()

	for _, e := range removed {
		e.markDeleted()
	}
	return len(removed), nil
}

func (e *taskEntry) markDeleted() {
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
}

// collect returns copies of the tasks matching keep, oldest first. When ids
// is non-nil only those entries are considered.
func (s *TaskStore) collect(ids []uuid.UUID, keep func(*domain.Task) bool) []*domain.Task {
	var candidates []*taskEntry

	s.mu.RLock()
	if ids != nil {
		seen := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if e, ok := s.entries[id]; ok {
				candidates = append(candidates, e)
			}
		}
	} else {
		candidates = make([]*taskEntry, 0, len(s.entries))
		for _, e := range s.entries {
			candidates = append(candidates, e)
		}
	}
	s.mu.RUnlock()

	out := make([]*domain.Task, 0, len(candidates))
	for _, e := range candidates {
		if t := e.snapshot(); t != nil && keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
