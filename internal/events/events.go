package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
)

// TaskStatusEvent records that a task entered a new status.
type TaskStatusEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	TaskID  uuid.UUID         `json:"task_id"`
	OwnerID uuid.UUID         `json:"owner_id"`
	Status  domain.TaskStatus `json:"status"`
	Result  *int              `json:"result,omitempty"`

	// Reason is a short, non-sensitive explanation for failures
	// ("timeout", "interrupted", "canceled", ...). Empty otherwise.
	Reason string `json:"reason,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskStatusEvent creates an event for a task that just moved to status.
func NewTaskStatusEvent(
	taskID, ownerID uuid.UUID,
	status domain.TaskStatus,
	result *int,
	reason string,
) *TaskStatusEvent {
	var r *int
	if result != nil {
		r = domain.ResultCode(*result)
	}
	return &TaskStatusEvent{
		ID:         uuid.New(),
		TaskID:     taskID,
		OwnerID:    ownerID,
		Status:     status,
		Result:     r,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

// Marshal encodes the event as JSON.
func (e *TaskStatusEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskStatusEvent) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *TaskStatusEvent) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *TaskStatusEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the execution core to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskStatusEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *TaskStatusEvent) error { return nil }
