package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu sync.Mutex
	// The last event received by this handler
	LastEvent *TaskStatusEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *TaskStatusEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestNewTaskStatusEvent(t *testing.T) {
	taskID, ownerID := uuid.New(), uuid.New()
	result := domain.ResultSuccess

	event := NewTaskStatusEvent(taskID, ownerID, domain.TaskStatusFinished, &result, "")

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, taskID, event.TaskID)
	assert.Equal(t, ownerID, event.OwnerID)
	assert.Equal(t, domain.TaskStatusFinished, event.Status)
	require.NotNil(t, event.Result)
	assert.Equal(t, domain.ResultSuccess, *event.Result)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, 2*time.Second)

	// The event keeps its own copy of the result.
	result = 42
	assert.Equal(t, domain.ResultSuccess, *event.Result)
}

func TestTaskStatusEvent_Marshal(t *testing.T) {
	event := NewTaskStatusEvent(uuid.New(), uuid.New(), domain.TaskStatusRunning, nil, "")

	data, err := event.Marshal()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "running", decoded["status"])
	assert.NotContains(t, decoded, "result")
	assert.NotContains(t, decoded, "reason")
}

func TestEventHandlerFunc(t *testing.T) {
	var got *TaskStatusEvent
	handler := EventHandlerFunc(func(ctx context.Context, event *TaskStatusEvent) error {
		got = event
		return nil
	})

	event := NewTaskStatusEvent(uuid.New(), uuid.New(), domain.TaskStatusRunning, nil, "")
	require.NoError(t, handler.HandleEvent(context.Background(), event))
	assert.Same(t, event, got)
}

func TestNopEmitter(t *testing.T) {
	event := NewTaskStatusEvent(uuid.New(), uuid.New(), domain.TaskStatusRunning, nil, "")
	assert.NoError(t, NopEmitter{}.EmitEvent(context.Background(), event))
}
