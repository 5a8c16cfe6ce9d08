package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service"
	"github.com/phrazzld/task-tracker/internal/store"
	"github.com/phrazzld/task-tracker/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusService_GetStatus(t *testing.T) {
	ctx := context.Background()
	tasks := memory.NewTaskStore(testLogger())
	svc := service.NewStatusService(tasks, testLogger())

	owner := uuid.New()
	other := uuid.New()
	waiting := createTask(t, tasks, owner, "waiting")
	done := createTask(t, tasks, owner, "done")
	require.NoError(t, tasks.UpdateStatus(ctx, done.ID, domain.TaskStatusRunning, nil))
	require.NoError(t, tasks.UpdateStatus(ctx, done.ID, domain.TaskStatusFinished, domain.ResultCode(domain.ResultSuccess)))

	tests := []struct {
		name       string
		taskID     uuid.UUID
		userID     uuid.UUID
		wantErr    error
		wantStatus domain.TaskStatus
		wantResult *int
	}{
		{"waiting task has no result", waiting.ID, owner, nil, domain.TaskStatusWaiting, nil},
		{"finished task has result", done.ID, owner, nil, domain.TaskStatusFinished, domain.ResultCode(1)},
		{"foreign task", waiting.ID, other, domain.ErrUnauthorized, "", nil},
		{"missing task", uuid.New(), owner, store.ErrTaskNotFound, "", nil},
		{"no caller", waiting.ID, uuid.Nil, domain.ErrUnauthenticated, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.GetStatus(ctx, tt.taskID, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, view.Status)
			assert.Equal(t, tt.wantResult, view.Result)
		})
	}
}

func TestStatusService_ListTasks(t *testing.T) {
	ctx := context.Background()
	tasks := memory.NewTaskStore(testLogger())
	svc := service.NewStatusService(tasks, testLogger())

	owner := uuid.New()
	first := createTask(t, tasks, owner, "first")
	second := createTask(t, tasks, owner, "second")
	createTask(t, tasks, uuid.New(), "foreign")

	list, err := svc.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{list[0].ID, list[1].ID})

	empty, err := svc.ListTasks(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.ListTasks(ctx, uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
