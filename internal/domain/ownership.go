package domain

import "github.com/google/uuid"

// CheckOwnership is the ownership guard consulted before any read or
// mutation of a task on behalf of a user. It returns ErrUnauthenticated for
// an empty caller and ErrUnauthorized when the task belongs to someone else.
func CheckOwnership(task *Task, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	if task == nil || task.OwnerID != userID {
		return ErrUnauthorized
	}
	return nil
}
