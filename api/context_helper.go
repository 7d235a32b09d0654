package api

import (
	"context"
	"time"

	"github.com/linesmerrill/video-hearings-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type callerContextKey struct{}

// WithCaller stores the authenticated caller on the context
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the caller stored by the auth middleware
func CallerFromContext(ctx context.Context) (models.Caller, bool) {
	c, ok := ctx.Value(callerContextKey{}).(models.Caller)
	return c, ok
}
