package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
)

// Job is one scheduled execution of one task.
type Job struct {
	TaskID  uuid.UUID
	OwnerID uuid.UUID

	// ctx is cancelled when the task is cancelled or the pool shuts down.
	ctx context.Context
}

// Context returns the job's cancellation context.
func (j Job) Context() context.Context {
	if j.ctx == nil {
		return context.Background()
	}
	return j.ctx
}

// TaskQueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs
	GetChannel() <-chan Job
}

// TaskQueueWriter provides write access to the job queue
type TaskQueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(job Job) error

	// Close closes the queue, preventing further submission
	Close()
}

// Scheduler runs executions for tasks that are already running.
type Scheduler interface {
	// Reserve claims capacity for one execution before the task is moved to
	// running. The slot must be passed to Schedule or released.
	Reserve() (*Slot, error)

	// Schedule queues an execution for task using slot, without waiting for
	// it. It fails only when the scheduler is shutting down.
	Schedule(slot *Slot, task *domain.Task) error

	// Cancel signals the execution of taskID to stop. It reports whether an
	// execution was in flight.
	Cancel(taskID uuid.UUID) bool
}
