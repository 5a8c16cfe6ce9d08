package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/task-tracker/internal/domain"
)

// subscription is a handler plus the statuses it wants; empty means all.
type subscription struct {
	handler  EventHandler
	statuses map[domain.TaskStatus]struct{}
}

func (s subscription) wants(status domain.TaskStatus) bool {
	if len(s.statuses) == 0 {
		return true
	}
	_, ok := s.statuses[status]
	return ok
}

// InMemoryEventEmitter dispatches status events synchronously to the handlers
// registered with it, in registration order.
type InMemoryEventEmitter struct {
	mu            sync.RWMutex
	subscriptions []subscription
	logger        *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler subscribes handler to events for the given statuses, or to
// every event when none are given.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, statuses ...domain.TaskStatus) {
	sub := subscription{handler: handler}
	if len(statuses) > 0 {
		sub.statuses = make(map[domain.TaskStatus]struct{}, len(statuses))
		for _, s := range statuses {
			sub.statuses[s] = struct{}{}
		}
	}

	e.mu.Lock()
	e.subscriptions = append(e.subscriptions, sub)
	count := len(e.subscriptions)
	e.mu.Unlock()

	e.logger.Debug("registered event handler",
		"handler_count", count,
		"statuses", statuses)
}

// EmitEvent delivers event to every interested handler. A failing or
// panicking handler does not stop delivery to the others; their errors are
// joined into the returned error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *TaskStatusEvent) error {
	e.mu.RLock()
	subs := e.subscriptions
	e.mu.RUnlock()

	var errs []error
	delivered := 0
	for i, sub := range subs {
		if !sub.wants(event.Status) {
			continue
		}
		delivered++
		if err := deliver(ctx, sub.handler, event); err != nil {
			e.logger.ErrorContext(ctx, "event handler failed",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"task_id", event.TaskID,
				"status", event.Status)
			errs = append(errs, err)
		}
	}

	if delivered > 0 {
		e.logger.DebugContext(ctx, "emitted event",
			"event_id", event.ID,
			"task_id", event.TaskID,
			"status", event.Status,
			"delivered", delivered,
			"failed", len(errs))
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, handler EventHandler, event *TaskStatusEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return handler.HandleEvent(ctx, event)
}
