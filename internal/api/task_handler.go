package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/api/shared"
	"github.com/phrazzld/task-tracker/internal/platform/logger"
	"github.com/phrazzld/task-tracker/internal/service"
)

// TaskHandler handles task-related HTTP requests.
// All routes require an authenticated user in the request context.
type TaskHandler struct {
	tasks  service.TaskService
	status service.StatusService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, status service.StatusService) *TaskHandler {
	return &TaskHandler{tasks: tasks, status: status}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	t, err := h.tasks.Create(r.Context(), userID, service.TaskInput{Name: req.Name, Target: req.Target})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondOK(w, r, http.StatusCreated, "Task created", IDResponse{ID: t.ID})
}

// BatchCreateTasks handles POST /api/tasks/batch/create.
// Items failing validation are reported and the rest are still created.
func (h *TaskHandler) BatchCreateTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req BatchCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var (
		inputs   []service.TaskInput
		indexes  []int
		failures []BatchCreateFailure
		firstErr error
	)
	for i := range req.Tasks {
		if err := shared.ValidateRequest(&req.Tasks[i]); err != nil {
			failures = append(failures, BatchCreateFailure{Index: i, Error: GetSafeErrorMessage(err)})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		inputs = append(inputs, service.TaskInput{Name: req.Tasks[i].Name, Target: req.Tasks[i].Target})
		indexes = append(indexes, i)
	}

	if len(inputs) == 0 {
		HandleAPIError(w, r, firstErr, "")
		return
	}

	result, err := h.tasks.CreateBatch(r.Context(), userID, inputs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create tasks")
		return
	}

	for _, f := range result.Failed {
		failures = append(failures, BatchCreateFailure{Index: indexes[f.Index], Error: GetSafeErrorMessage(f.Err)})
	}

	resp := BatchCreateResponse{IDs: make([]uuid.UUID, len(result.Created)), Failed: failures}
	for i, t := range result.Created {
		resp.IDs[i] = t.ID
	}

	msg := fmt.Sprintf("Created %d tasks", len(resp.IDs))
	if len(failures) > 0 {
		msg = fmt.Sprintf("Created %d of %d tasks, %d failed", len(resp.IDs), len(req.Tasks), len(failures))
		logger.FromContextOrDefault(r.Context()).Info("batch create partially failed",
			"requested", len(req.Tasks),
			"created", len(resp.IDs))
	}

	count := len(resp.IDs)
	shared.RespondWithJSON(w, r, http.StatusCreated, shared.Envelope{
		Code:    shared.CodeOK,
		Msg:     msg,
		Data:    resp,
		Count:   &count,
		TraceID: shared.GetTraceID(r.Context()),
	})
}

// StartTask handles POST /api/tasks/{id}/start.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.tasks.Start(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start task")
		return
	}

	shared.RespondOK(w, r, http.StatusOK, "Task started", StartResponse{ID: t.ID, Status: t.Status})
}

// BatchStartTasks handles POST /api/tasks/batch/start.
func (h *TaskHandler) BatchStartTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req TaskIDsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	summary, err := h.tasks.StartMany(r.Context(), req.TaskIDs, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start tasks")
		return
	}

	msg := fmt.Sprintf("Started %d of %d tasks", summary.Started, summary.Requested)
	shared.RespondOK(w, r, http.StatusOK, msg, summary)
}

// CancelTask handles POST /api/tasks/{id}/cancel.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Cancel(r.Context(), taskID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to cancel task")
		return
	}

	shared.RespondOK(w, r, http.StatusAccepted, "Task cancellation requested", IDResponse{ID: taskID})
}

// GetTaskStatus handles GET /api/tasks/{id}/status.
func (h *TaskHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.status.GetStatus(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task status")
		return
	}

	shared.RespondOK(w, r, http.StatusOK, "", statusToResponse(view))
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.status.ListTasks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = taskToResponse(t)
	}
	shared.RespondList(w, r, "", resp, len(resp))
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	shared.RespondOK(w, r, http.StatusOK, "Task deleted", nil)
}

// BatchDeleteTasks handles POST /api/tasks/batch/delete.
func (h *TaskHandler) BatchDeleteTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req TaskIDsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deleted, err := h.tasks.DeleteMany(r.Context(), req.TaskIDs, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete tasks")
		return
	}

	shared.RespondList(w, r, fmt.Sprintf("Deleted %d tasks", deleted), nil, deleted)
}
