package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service"
	"github.com/phrazzld/task-tracker/internal/store"
	"github.com/phrazzld/task-tracker/internal/store/memory"
	"github.com/phrazzld/task-tracker/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(t *testing.T) (service.TaskService, *memory.TaskStore, *mockDispatcher) {
	t.Helper()
	tasks := memory.NewTaskStore(testLogger())
	dispatcher := new(mockDispatcher)
	svc, err := service.NewTaskService(tasks, dispatcher, testLogger())
	require.NoError(t, err)
	return svc, tasks, dispatcher
}

func TestNewTaskService_NilDependencies(t *testing.T) {
	_, err := service.NewTaskService(nil, new(mockDispatcher), testLogger())
	var serviceErr *service.ServiceError
	assert.ErrorAs(t, err, &serviceErr)

	_, err = service.NewTaskService(memory.NewTaskStore(testLogger()), nil, testLogger())
	assert.ErrorAs(t, err, &serviceErr)
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _ := newTaskService(t)
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, service.TaskInput{Name: "crawl", Target: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusWaiting, created.Status)
	assert.Nil(t, created.Result)
	assert.Equal(t, owner, created.OwnerID)

	stored, err := tasks.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)

	_, err = svc.Create(ctx, owner, service.TaskInput{Name: "", Target: "https://example.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, uuid.Nil, service.TaskInput{Name: "x", Target: "y"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestTaskService_CreateBatch(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("partial failure keeps going", func(t *testing.T) {
		svc, tasks, _ := newTaskService(t)
		result, err := svc.CreateBatch(ctx, owner, []service.TaskInput{
			{Name: "a", Target: "https://a.example"},
			{Name: "", Target: "https://b.example"},
			{Name: "c", Target: "https://c.example"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Requested())
		assert.Len(t, result.Created, 2)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, 1, result.Failed[0].Index)
		assert.ErrorIs(t, result.Failed[0].Err, domain.ErrValidation)

		list, err := tasks.ListByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("empty batch", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		_, err := svc.CreateBatch(ctx, owner, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("batch too large", func(t *testing.T) {
		svc, _, _ := newTaskService(t)
		inputs := make([]service.TaskInput, service.MaxBatchSize+1)
		_, err := svc.CreateBatch(ctx, owner, inputs)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.True(t, strings.Contains(err.Error(), "exceed"))
	})
}

func TestTaskService_StartDelegatesToDispatcher(t *testing.T) {
	ctx := context.Background()
	svc, _, dispatcher := newTaskService(t)
	owner := uuid.New()
	taskID := uuid.New()
	running := &domain.Task{ID: taskID, OwnerID: owner, Status: domain.TaskStatusRunning}

	dispatcher.On("StartOne", mock.Anything, taskID, owner).Return(running, nil).Once()
	got, err := svc.Start(ctx, taskID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusRunning, got.Status)

	dispatcher.On("StartOne", mock.Anything, taskID, owner).Return(nil, domain.ErrInvalidState).Once()
	_, err = svc.Start(ctx, taskID, owner)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	dispatcher.On("StartMany", mock.Anything, ids, owner).
		Return(task.StartSummary{Requested: 2, Started: 1, Skipped: 1}, nil).Once()
	summary, err := svc.StartMany(ctx, ids, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Started)

	dispatcher.On("Cancel", mock.Anything, taskID, owner).Return(nil).Once()
	assert.NoError(t, svc.Cancel(ctx, taskID, owner))

	dispatcher.AssertExpectations(t)
}

func TestTaskService_StartWrapsUnexpectedErrors(t *testing.T) {
	svc, _, dispatcher := newTaskService(t)
	boom := errors.New("boom")
	dispatcher.On("StartOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	_, err := svc.Start(context.Background(), uuid.New(), uuid.New())
	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "start", serviceErr.Operation)
	assert.ErrorIs(t, err, boom)
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, tasks, dispatcher := newTaskService(t)
	owner := uuid.New()
	other := uuid.New()
	tk := createTask(t, tasks, owner, "victim")

	err := svc.Delete(ctx, tk.ID, other)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = svc.Delete(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	dispatcher.On("Interrupt", tk.ID).Return(false).Once()
	require.NoError(t, svc.Delete(ctx, tk.ID, owner))

	_, err = tasks.GetByID(ctx, tk.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	list, err := tasks.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	dispatcher.AssertExpectations(t)
}

func TestTaskService_DeleteMany(t *testing.T) {
	ctx := context.Background()
	svc, tasks, dispatcher := newTaskService(t)
	owner := uuid.New()
	other := uuid.New()

	mine1 := createTask(t, tasks, owner, "mine1")
	mine2 := createTask(t, tasks, owner, "mine2")
	theirs := createTask(t, tasks, other, "theirs")

	dispatcher.On("Interrupt", mine1.ID).Return(false).Once()
	dispatcher.On("Interrupt", mine2.ID).Return(true).Once()

	deleted, err := svc.DeleteMany(ctx, []uuid.UUID{mine1.ID, mine2.ID, theirs.ID, uuid.New()}, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = tasks.GetByID(ctx, theirs.ID)
	assert.NoError(t, err, "foreign task must survive")

	dispatcher.AssertExpectations(t)
	dispatcher.AssertNotCalled(t, "Interrupt", theirs.ID)

	deleted, err = svc.DeleteMany(ctx, nil, owner)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
