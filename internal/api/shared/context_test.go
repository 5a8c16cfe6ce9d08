package shared_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/api/shared"
	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, shared.GetTraceID(ctx))

	ctx = shared.SetTraceID(ctx)
	id := shared.GetTraceID(ctx)
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, shared.NewTraceID())
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := shared.UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = shared.UserIDFromContext(shared.WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := shared.UserIDFromContext(shared.WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
