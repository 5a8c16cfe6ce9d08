package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCheckOwnership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	task := &Task{ID: uuid.New(), OwnerID: owner}

	assert.NoError(t, CheckOwnership(task, owner))
	assert.ErrorIs(t, CheckOwnership(task, uuid.New()), ErrUnauthorized)
	assert.ErrorIs(t, CheckOwnership(task, uuid.Nil), ErrUnauthenticated)
	assert.ErrorIs(t, CheckOwnership(nil, owner), ErrUnauthorized)
}
