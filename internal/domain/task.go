package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents a task's position in its lifecycle.
type TaskStatus string

// Possible task status values
const (
	TaskStatusWaiting  TaskStatus = "waiting"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusFailed   TaskStatus = "failed"
)

// Result codes recorded when a task reaches a terminal status.
const (
	ResultFailure = 0
	ResultSuccess = 1
)

// Field limits for task input.
const (
	MaxTaskNameLength   = 100
	MaxTaskTargetLength = 200
)

// Validation errors for Task
var (
	ErrEmptyTaskID       = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyTaskOwnerID  = NewValidationError("owner_id", "cannot be empty", ErrInvalidID)
	ErrEmptyTaskName     = NewValidationError("name", "cannot be empty", nil)
	ErrTaskNameTooLong   = NewValidationError("name", "is too long", nil)
	ErrEmptyTaskTarget   = NewValidationError("target", "cannot be empty", nil)
	ErrTaskTargetTooLong = NewValidationError("target", "is too long", nil)
	ErrResultMismatch    = NewValidationError("result", "must be set if and only if status is terminal", nil)
	ErrResultCodeInvalid = NewValidationError("result", "must be 1 for finished and 0 for failed", nil)
)

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusWaiting, TaskStatusRunning, TaskStatusFinished, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusFinished || s == TaskStatusFailed
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// The only legal moves are waiting -> running and running -> finished|failed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	prior, ok := RequiredPriorStatus(next)
	return ok && prior == s
}

// RequiredPriorStatus returns the status a task must currently hold for it to
// move into next. It returns false for statuses that cannot be entered by a
// transition (waiting is only ever an initial status).
func RequiredPriorStatus(next TaskStatus) (TaskStatus, bool) {
	switch next {
	case TaskStatusRunning:
		return TaskStatusWaiting, true
	case TaskStatusFinished, TaskStatusFailed:
		return TaskStatusRunning, true
	default:
		return "", false
	}
}

// ResultFor returns the result code a task holds in status. It returns false
// for non-terminal statuses, which carry no result.
func ResultFor(status TaskStatus) (int, bool) {
	switch status {
	case TaskStatusFinished:
		return ResultSuccess, true
	case TaskStatusFailed:
		return ResultFailure, true
	default:
		return 0, false
	}
}

// ValidateResult checks that result is present if and only if status is
// terminal, and that a present result is the code status requires.
func ValidateResult(status TaskStatus, result *int) error {
	want, terminal := ResultFor(status)
	if terminal != (result != nil) {
		return ErrResultMismatch
	}
	if terminal && *result != want {
		return ErrResultCodeInvalid
	}
	return nil
}

// Task is one unit of owned, trackable work.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Name      string     `json:"name"`
	Target    string     `json:"target"`
	Status    TaskStatus `json:"status"`
	Result    *int       `json:"result"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewTask creates a waiting task owned by ownerID.
// Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, name, target string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Target:    target,
		Status:    TaskStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if t.Name == "" {
		return ErrEmptyTaskName
	}
	if len(t.Name) > MaxTaskNameLength {
		return ErrTaskNameTooLong
	}

	if t.Target == "" {
		return ErrEmptyTaskTarget
	}
	if len(t.Target) > MaxTaskTargetLength {
		return ErrTaskTargetTooLong
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return ValidateResult(t.Status, t.Result)
}

// Clone returns a deep copy of the task so callers can't mutate shared state.
func (t *Task) Clone() *Task {
	c := *t
	if t.Result != nil {
		r := *t.Result
		c.Result = &r
	}
	return &c
}

// ResultCode returns a pointer to code, for use as a terminal result.
func ResultCode(code int) *int {
	return &code
}
