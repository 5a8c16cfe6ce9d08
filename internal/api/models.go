package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Token     string    `json:"token,omitempty"`
	TokenType string    `json:"token_type,omitempty"`
}

// CreateTaskRequest defines the payload for creating one task.
type CreateTaskRequest struct {
	Name   string `json:"name"   validate:"required,max=100"`
	Target string `json:"target" validate:"required,max=200,http_url"`
}

// BatchCreateRequest defines the payload for creating several tasks.
// Items are validated one by one so a bad item does not reject the batch.
type BatchCreateRequest struct {
	Tasks []CreateTaskRequest `json:"tasks" validate:"required,min=1,max=100"`
}

// TaskIDsRequest defines the payload of the batch start and delete endpoints.
type TaskIDsRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1,max=100"`
}

// IDResponse identifies a created task.
type IDResponse struct {
	ID uuid.UUID `json:"id"`
}

// StartResponse reports a started task.
type StartResponse struct {
	ID     uuid.UUID         `json:"id"`
	Status domain.TaskStatus `json:"status"`
}

// BatchCreateFailure reports one rejected item of a batch create.
type BatchCreateFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchCreateResponse reports the outcome of a batch create.
type BatchCreateResponse struct {
	IDs    []uuid.UUID          `json:"ids"`
	Failed []BatchCreateFailure `json:"failed,omitempty"`
}

// TaskResponse is the list representation of a task.
type TaskResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Target    string            `json:"target"`
	Status    domain.TaskStatus `json:"status"`
	Result    *int              `json:"result"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

// StatusResponse is the status view of a single task.
type StatusResponse struct {
	Status domain.TaskStatus `json:"status"`
	Result *int              `json:"result"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Name:      t.Name,
		Target:    t.Target,
		Status:    t.Status,
		Result:    t.Result,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func statusToResponse(v service.StatusView) StatusResponse {
	return StatusResponse{Status: v.Status, Result: v.Result}
}
