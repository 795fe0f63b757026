package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/collabgames/internal/domain"
	context_ "github.com/mkrupp/collabgames/internal/infra/context"
)

func TestUserFromContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := context_.UserFromContext(ctx)
	assert.False(t, ok)

	_, ok = context_.UserIDFromContext(context_.WithUser(ctx, nil))
	assert.False(t, ok)

	//nolint:exhaustruct
	user := &domain.User{ID: 7, Name: "alice"}
	ctx = context_.WithUser(ctx, user)

	got, ok := context_.UserFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, user, got)

	id, ok := context_.UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestTraceIDFromContext(t *testing.T) {
	t.Parallel()

	_, ok := context_.TraceIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := context_.TraceIDFromContext(context_.WithTraceID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
