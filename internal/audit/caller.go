// ABOUTME: Caller identity carried through the request context
// ABOUTME: Lets model clients attribute audit records without extra parameters
package audit

import (
	"context"

	"github.com/google/uuid"
)

type callerKey struct{}

// Caller identifies who triggered a model call
type Caller struct {
	UserID    string
	SessionID string
}

// WithCaller attaches caller identity to ctx. An empty sessionID gets a fresh one.
func WithCaller(ctx context.Context, userID, sessionID string) context.Context {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return context.WithValue(ctx, callerKey{}, Caller{UserID: userID, SessionID: sessionID})
}

// CallerFrom returns the caller attached to ctx, or the zero Caller
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
