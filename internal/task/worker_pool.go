package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/events"
	"github.com/phrazzld/task-tracker/internal/redact"
	"github.com/phrazzld/task-tracker/internal/store"
)

// Failure reasons attached to status events.
const (
	ReasonError          = "error"
	ReasonTimeout        = "timeout"
	ReasonCanceled       = "canceled"
	ReasonShutdown       = "shutdown"
	ReasonFault          = "fault"
	ReasonInvalidOutcome = "invalid_outcome"
	ReasonInterrupted    = "interrupted"
)

// completionTimeout bounds the terminal status write, which runs on a fresh
// context so it still lands after the job context is cancelled.
const completionTimeout = 10 * time.Second

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int

	// ExecutionTimeout bounds a single execution. Zero disables the limit.
	ExecutionTimeout time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount:      4,
		ExecutionTimeout: time.Minute,
	}
}

// WorkerPool manages a pool of worker goroutines that execute jobs from a
// TaskQueue. It implements Scheduler.
type WorkerPool struct {
	queue    *TaskQueue
	store    store.TaskStore
	executor Executor
	emitter  events.EventEmitter

	workerCount int
	timeout     time.Duration

	inflight *inflight

	// ctx is the parent of every job context; cancel aborts them all
	ctx    context.Context
	cancel context.CancelFunc

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	logger *slog.Logger
}

var _ Scheduler = (*WorkerPool)(nil)

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(
	queue *TaskQueue,
	taskStore store.TaskStore,
	executor Executor,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "worker_pool")

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:       queue,
		store:       taskStore,
		executor:    executor,
		emitter:     events.NopEmitter{},
		workerCount: workerCount,
		timeout:     config.ExecutionTimeout,
		inflight:    newInflight(),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetEmitter sets where terminal status events go. Must be called before Start.
func (p *WorkerPool) SetEmitter(emitter events.EventEmitter) {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	p.emitter = emitter
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool",
			"worker_count", p.workerCount,
			"execution_timeout", p.timeout)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Stop cancels all executions, closes the queue and waits for the workers to
// drain it. Jobs still queued are failed without running.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("stopping worker pool", "in_flight", p.inflight.len())
		p.cancel()
		p.queue.Close()
		p.Start() // a pool that never started still has to drain its queue
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

// Reserve implements Scheduler.
func (p *WorkerPool) Reserve() (*Slot, error) {
	return p.queue.Reserve()
}

// Schedule implements Scheduler. It consumes slot and never blocks.
func (p *WorkerPool) Schedule(slot *Slot, task *domain.Task) error {
	ctx, cancel := context.WithCancel(p.ctx)
	p.inflight.add(task.ID, cancel)

	job := Job{TaskID: task.ID, OwnerID: task.OwnerID, ctx: ctx}
	if err := p.queue.EnqueueReserved(slot, job); err != nil {
		p.inflight.remove(task.ID)
		return err
	}
	return nil
}

// Cancel implements Scheduler.
func (p *WorkerPool) Cancel(taskID uuid.UUID) bool {
	return p.inflight.cancel(taskID)
}

// worker processes jobs until the queue is closed and drained.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)
	for job := range p.queue.GetChannel() {
		p.process(id, job)
	}
	p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
}

// process runs one job and records its terminal status.
func (p *WorkerPool) process(workerID int, job Job) {
	defer p.inflight.remove(job.TaskID)

	logger := p.logger.With(
		"task_id", job.TaskID,
		"worker_id", workerID,
	)

	start := time.Now()
	outcome, reason, err := p.execute(job)
	if err != nil {
		logger.Warn("task execution did not complete",
			"reason", reason,
			"error", redact.Error(err),
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		logger.Info("task execution completed",
			"success", outcome.Success,
			"duration_ms", time.Since(start).Milliseconds())
	}

	p.complete(logger, job, outcome, reason)
}

// execute looks the task up, runs the executor and folds every failure mode
// into a Failed outcome with a reason.
func (p *WorkerPool) execute(job Job) (Outcome, string, error) {
	ctx := job.Context()
	if err := ctx.Err(); err != nil {
		if p.ctx.Err() != nil {
			return Failed(), ReasonShutdown, err
		}
		return Failed(), ReasonCanceled, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	task, err := p.store.GetByID(ctx, job.TaskID)
	if err != nil {
		return Failed(), ReasonFault, fmt.Errorf("%w: lookup failed: %v", ErrExecutionFault, err)
	}
	if task.Status != domain.TaskStatusRunning {
		return Failed(), ReasonFault, fmt.Errorf("%w: task is %s, not running", ErrExecutionFault, task.Status)
	}

	outcome, err := p.safeExecute(ctx, task)
	switch {
	case err == nil && outcome.Valid():
		return outcome, "", nil
	case err == nil:
		return Failed(), ReasonInvalidOutcome,
			fmt.Errorf("%w: outcome %+v is inconsistent", ErrExecutionFault, outcome)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Failed(), ReasonTimeout, err
	case ctx.Err() != nil && p.ctx.Err() != nil:
		return Failed(), ReasonShutdown, err
	case ctx.Err() != nil:
		return Failed(), ReasonCanceled, err
	case errors.Is(err, ErrExecutionFault):
		return Failed(), ReasonFault, err
	default:
		return Failed(), ReasonError, err
	}
}

// safeExecute runs the executor, turning a panic into an execution fault.
func (p *WorkerPool) safeExecute(ctx context.Context, task *domain.Task) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{}
			err = fmt.Errorf("%w: panic: %v", ErrExecutionFault, r)
		}
	}()
	return p.executor.Execute(ctx, task)
}

// complete applies the single terminal status update for a job.
func (p *WorkerPool) complete(logger *slog.Logger, job Job, outcome Outcome, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	status := outcome.Status()
	result := domain.ResultCode(outcome.Code)

	err := p.store.UpdateStatus(ctx, job.TaskID, status, result)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrStatusConflict):
		logger.Error("terminal status rejected, task was already completed: possible double dispatch",
			"status", status,
			"error", err)
		return
	case store.IsNotFoundError(err):
		logger.Warn("task deleted before execution finished", "status", status)
		return
	default:
		logger.Error("failed to record terminal status",
			"status", status,
			"error", err)
		return
	}

	event := events.NewTaskStatusEvent(job.TaskID, job.OwnerID, status, result, reason)
	if err := p.emitter.EmitEvent(ctx, event); err != nil {
		logger.Warn("failed to emit status event", "error", err)
	}
}
