package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store/memory"
	"github.com/phrazzld/task-tracker/internal/task"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockDispatcher is a testify mock of service.TaskDispatcher.
type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) StartOne(ctx context.Context, taskID, ownerID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskID, ownerID)
	if t := args.Get(0); t != nil {
		return t.(*domain.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDispatcher) StartMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (task.StartSummary, error) {
	args := m.Called(ctx, ids, ownerID)
	return args.Get(0).(task.StartSummary), args.Error(1)
}

func (m *mockDispatcher) Cancel(ctx context.Context, taskID, ownerID uuid.UUID) error {
	return m.Called(ctx, taskID, ownerID).Error(0)
}

func (m *mockDispatcher) Interrupt(taskID uuid.UUID) bool {
	return m.Called(taskID).Bool(0)
}

func createTask(t *testing.T, store *memory.TaskStore, ownerID uuid.UUID, name string) *domain.Task {
	t.Helper()
	tk, err := domain.NewTask(ownerID, name, "https://example.com/"+name)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), tk))
	return tk
}
