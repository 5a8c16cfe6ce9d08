package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/events"
	"github.com/phrazzld/task-tracker/internal/redact"
	"github.com/phrazzld/task-tracker/internal/store"
)

// StartSummary reports the result of a batch start.
type StartSummary struct {
	Requested int `json:"requested"`
	Started   int `json:"started"`
	Skipped   int `json:"skipped"`
}

// Dispatcher validates start requests, moves tasks to running and hands
// them to a Scheduler. It is the only component that starts tasks.
type Dispatcher struct {
	store     store.TaskStore
	scheduler Scheduler
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil emitter discards events.
func NewDispatcher(
	taskStore store.TaskStore,
	scheduler Scheduler,
	emitter events.EventEmitter,
	logger *slog.Logger,
) *Dispatcher {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     taskStore,
		scheduler: scheduler,
		emitter:   emitter,
		logger:    logger.With("component", "dispatcher"),
	}
}

// StartOne starts a single task owned by ownerID and returns it in its
// running state. A missing task and a task owned by someone else both yield
// domain.ErrUnauthorized; a task that is not waiting yields
// domain.ErrInvalidState. The execution is scheduled, not awaited.
func (d *Dispatcher) StartOne(ctx context.Context, taskID, ownerID uuid.UUID) (*domain.Task, error) {
	if ownerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	task, err := d.store.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if err := domain.CheckOwnership(task, ownerID); err != nil {
		return nil, err
	}
	if task.Status != domain.TaskStatusWaiting {
		return nil, fmt.Errorf("%w: task is %s", domain.ErrInvalidState, task.Status)
	}

	if err := d.start(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// StartMany starts every task in ids that is owned by ownerID and waiting.
// Other ids are skipped silently.
func (d *Dispatcher) StartMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (StartSummary, error) {
	if ownerID == uuid.Nil {
		return StartSummary{}, domain.ErrUnauthenticated
	}

	ids = uniqueIDs(ids)
	summary := StartSummary{Requested: len(ids)}
	if len(ids) == 0 {
		return summary, nil
	}

	waiting := domain.TaskStatusWaiting
	eligible, err := d.store.GetMany(ctx, ids, ownerID, &waiting)
	if err != nil {
		return summary, fmt.Errorf("failed to load tasks: %w", err)
	}

	for _, task := range eligible {
		if err := d.start(ctx, task); err != nil {
			d.logger.DebugContext(ctx, "skipping task in batch start",
				"task_id", task.ID,
				"error", err)
			continue
		}
		summary.Started++
	}
	summary.Skipped = summary.Requested - summary.Started

	d.logger.InfoContext(ctx, "batch start complete",
		"owner_id", ownerID,
		"requested", summary.Requested,
		"started", summary.Started,
		"skipped", summary.Skipped)
	return summary, nil
}

// start claims queue capacity, moves task to running and schedules it. A
// task that cannot be queued is left waiting. On success task reflects the
// committed running state.
func (d *Dispatcher) start(ctx context.Context, task *domain.Task) error {
	slot, err := d.scheduler.Reserve()
	if err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return fmt.Errorf("%w: %v", ErrQueueFull, err)
		}
		return err
	}
	defer slot.Release()

	err = d.store.UpdateStatus(ctx, task.ID, domain.TaskStatusRunning, nil)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrStatusConflict):
		return fmt.Errorf("%w: task is no longer waiting", domain.ErrInvalidState)
	case store.IsNotFoundError(err):
		return domain.ErrUnauthorized
	default:
		return fmt.Errorf("failed to start task: %w", err)
	}

	task.Status = domain.TaskStatusRunning
	task.Result = nil
	d.emit(ctx, events.NewTaskStatusEvent(task.ID, task.OwnerID, domain.TaskStatusRunning, nil, ""))

	if err := d.scheduler.Schedule(slot, task); err != nil {
		// Only a shutdown races the reservation; nothing will run the task.
		d.logger.ErrorContext(ctx, "failed to schedule task, failing it",
			"task_id", task.ID,
			"error", err)
		d.fail(ctx, task, ReasonShutdown)
		return fmt.Errorf("%w: %v", ErrQueueFull, err)
	}

	d.logger.InfoContext(ctx, "task started",
		"task_id", task.ID,
		"owner_id", task.OwnerID,
		"target", redact.URL(task.Target))
	return nil
}

// Cancel stops the execution of a running task owned by ownerID. The task
// ends failed with ResultFailure once its worker observes the cancellation.
func (d *Dispatcher) Cancel(ctx context.Context, taskID, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	task, err := d.store.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := domain.CheckOwnership(task, ownerID); err != nil {
		return err
	}
	if task.Status != domain.TaskStatusRunning {
		return fmt.Errorf("%w: task is %s", domain.ErrInvalidState, task.Status)
	}

	if d.scheduler.Cancel(taskID) {
		d.logger.InfoContext(ctx, "task cancellation requested", "task_id", taskID)
		return nil
	}

	// Running without a scheduled execution: nothing else will finish it.
	if !d.fail(ctx, task, ReasonCanceled) {
		return fmt.Errorf("%w: task already completed", domain.ErrInvalidState)
	}
	return nil
}

// Interrupt signals the execution of taskID without any ownership check.
// Used after a task has been deleted.
func (d *Dispatcher) Interrupt(taskID uuid.UUID) bool {
	return d.scheduler.Cancel(taskID)
}

// Recover fails every task left running by a previous process. Queues do not
// survive a restart, so nothing would ever complete them. It must run before
// any task is started.
func (d *Dispatcher) Recover(ctx context.Context) (int, error) {
	running, err := d.store.ListByStatus(ctx, domain.TaskStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to list running tasks: %w", err)
	}

	recovered := 0
	for _, task := range running {
		if d.fail(ctx, task, ReasonInterrupted) {
			recovered++
		}
	}

	d.logger.InfoContext(ctx, "recovered interrupted tasks",
		"found", len(running),
		"failed", recovered)
	return recovered, nil
}

// fail moves a running task to failed outside of a worker. It reports
// whether this call applied the terminal status.
// The write runs on its own context so a departed caller cannot leave the
// task running.
func (d *Dispatcher) fail(ctx context.Context, task *domain.Task, reason string) bool {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancel()

	result := domain.ResultCode(domain.ResultFailure)
	err := d.store.UpdateStatus(writeCtx, task.ID, domain.TaskStatusFailed, result)
	if err != nil {
		d.logger.WarnContext(ctx, "could not fail task",
			"task_id", task.ID,
			"reason", reason,
			"error", err)
		return false
	}

	task.Status = domain.TaskStatusFailed
	task.Result = result
	d.emit(writeCtx, events.NewTaskStatusEvent(task.ID, task.OwnerID, domain.TaskStatusFailed, result, reason))
	return true
}

func (d *Dispatcher) emit(ctx context.Context, event *events.TaskStatusEvent) {
	if err := d.emitter.EmitEvent(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "failed to emit status event",
			"task_id", event.TaskID,
			"error", err)
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
