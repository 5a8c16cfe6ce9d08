package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// inflight maps task ids to the cancel functions of their scheduled
// executions.
type inflight struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newInflight() *inflight {
	return &inflight{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

func (r *inflight) add(id uuid.UUID, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

// remove drops id and releases its context.
func (r *inflight) remove(id uuid.UUID) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// cancel signals the execution of id, leaving it registered until the
// worker finishes with it.
func (r *inflight) cancel(id uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (r *inflight) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
