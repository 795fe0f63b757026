// Package context carries request-scoped values: the trace ID set by the
// tracing middleware and the user resolved from the bearer token.
package context

import (
	"context"

	"github.com/mkrupp/collabgames/internal/domain"
)

type contextKey int

const (
	contextKeyTraceID contextKey = iota
	contextKeyUser
)

// WithTraceID returns a context carrying the trace ID of the current request.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// TraceIDFromContext returns the trace ID, if any.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}

// UserFromContext returns the user resolved from the request's bearer token.
// A nil user counts as absent.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)

	return user, ok && user != nil
}

// UserIDFromContext returns the ID of the resolved user, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID, true
	}

	return 0, false
}
