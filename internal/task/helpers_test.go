package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/events"
	"github.com/phrazzld/task-tracker/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestStore() *memory.TaskStore {
	return memory.NewTaskStore(setupTestLogger())
}

func createWaitingTask(t *testing.T, s *memory.TaskStore, ownerID uuid.UUID, name string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(ownerID, name, "http://example.com/"+name)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), task))
	return task
}

// createRunningTask stores a task that is already running.
func createRunningTask(t *testing.T, s *memory.TaskStore, ownerID uuid.UUID, name string) *domain.Task {
	t.Helper()
	task := createWaitingTask(t, s, ownerID, name)
	require.NoError(t, s.UpdateStatus(context.Background(), task.ID, domain.TaskStatusRunning, nil))
	task.Status = domain.TaskStatusRunning
	return task
}

// waitForTerminal polls until the task reaches a terminal status.
func waitForTerminal(t *testing.T, s *memory.TaskStore, id uuid.UUID) *domain.Task {
	t.Helper()
	var last *domain.Task
	require.Eventually(t, func() bool {
		task, err := s.GetByID(context.Background(), id)
		if err != nil {
			return false
		}
		last = task
		return task.Status.IsTerminal()
	}, 5*time.Second, 5*time.Millisecond)
	return last
}

// countingExecutor counts executions per task and returns a fixed outcome.
type countingExecutor struct {
	mu      sync.Mutex
	counts  map[uuid.UUID]int
	outcome Outcome
	delay   time.Duration
}

func newCountingExecutor(outcome Outcome) *countingExecutor {
	return &countingExecutor{counts: make(map[uuid.UUID]int), outcome: outcome}
}

func (e *countingExecutor) Execute(ctx context.Context, task *domain.Task) (Outcome, error) {
	e.mu.Lock()
	e.counts[task.ID]++
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-time.After(e.delay):
		}
	}
	return e.outcome, nil
}

func (e *countingExecutor) count(id uuid.UUID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[id]
}

func (e *countingExecutor) total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.counts {
		n += c
	}
	return n
}

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskStatusEvent
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskStatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) statusesFor(id uuid.UUID) []domain.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TaskStatus
	for _, e := range r.events {
		if e.TaskID == id {
			out = append(out, e.Status)
		}
	}
	return out
}

func (r *recordingEmitter) reasonFor(id uuid.UUID, status domain.TaskStatus) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.TaskID == id && e.Status == status {
			return e.Reason
		}
	}
	return ""
}

// newTestPool builds a started pool over s; it is stopped on cleanup.
func newTestPool(t *testing.T, s *memory.TaskStore, executor Executor, config WorkerPoolConfig, queueSize int) (*WorkerPool, *recordingEmitter) {
	t.Helper()
	logger := setupTestLogger()
	pool := NewWorkerPool(NewTaskQueue(queueSize, logger), s, executor, config, logger)
	emitter := &recordingEmitter{}
	pool.SetEmitter(emitter)
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool, emitter
}

// schedule reserves a queue slot in pool and schedules task with it.
func schedule(pool *WorkerPool, task *domain.Task) error {
	slot, err := pool.Reserve()
	if err != nil {
		return err
	}
	return pool.Schedule(slot, task)
}
