package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")

	errSlotNotHeld = errors.New("queue slot is not held")
)

// TaskQueue implements a buffered job queue that satisfies both
// TaskQueueReader and TaskQueueWriter interfaces
type TaskQueue struct {
	mu       sync.Mutex
	jobs     chan Job
	reserved int
	logger   *slog.Logger
	closed   bool
}

// Slot is queue capacity claimed ahead of an enqueue. A slot is either
// consumed by EnqueueReserved or returned with Release.
type Slot struct {
	queue *TaskQueue
	once  sync.Once
}

// Release returns the capacity held by s. It does nothing once s has been
// consumed or released.
func (s *Slot) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.queue.mu.Lock()
		s.queue.reserved--
		s.queue.mu.Unlock()
	})
}

// consume marks s as used and reports whether it was still held.
func (s *Slot) consume() bool {
	held := false
	s.once.Do(func() { held = true })
	return held
}

// NewTaskQueue creates a new queue with the specified buffer size
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if size < 0 {
		size = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		jobs:   make(chan Job, size),
		logger: logger,
	}
}

// Enqueue adds a job to the queue for processing.
// It never blocks: a buffer whose free space is all reserved yields ErrQueueFull.
func (q *TaskQueue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.full() {
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
	return q.send(job)
}

// Reserve claims room for one job without enqueueing anything yet.
func (q *TaskQueue) Reserve() (*Slot, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}
	if q.full() {
		return nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
	q.reserved++
	return &Slot{queue: q}, nil
}

// EnqueueReserved adds job using the capacity held by slot. It only fails if
// the queue was closed after the reservation or slot is no longer held.
func (q *TaskQueue) EnqueueReserved(slot *Slot, job Job) error {
	if slot == nil || slot.queue != q || !slot.consume() {
		return errSlotNotHeld
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.reserved--
	if q.closed {
		return ErrQueueClosed
	}
	return q.send(job)
}

// full reports whether buffered plus reserved jobs use the whole buffer.
// Callers hold q.mu.
func (q *TaskQueue) full() bool {
	return len(q.jobs)+q.reserved >= cap(q.jobs)
}

// send buffers job. Callers hold q.mu and have checked capacity.
func (q *TaskQueue) send(job Job) error {
	select {
	case q.jobs <- job:
		q.logger.Debug("job enqueued",
			"task_id", job.TaskID,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Close closes the queue, preventing further submission. Jobs already
// buffered stay readable from GetChannel.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("task queue closed")
	}
}

// Reserved returns the number of outstanding reservations.
func (q *TaskQueue) Reserved() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reserved
}

// Len returns the number of buffered jobs.
func (q *TaskQueue) Len() int {
	return len(q.jobs)
}

// GetChannel returns a read-only channel for consuming jobs
func (q *TaskQueue) GetChannel() <-chan Job {
	return q.jobs
}
