package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of the request-context keys set by the API layer.
type ContextKey string

// Context keys
const (
	// UserIDContextKey holds the authenticated subject as a string
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey holds the per-request trace id
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the length of a generated trace id in hex characters
	TraceIDLength = 32
)

// SetTraceID stores a freshly generated trace id in ctx.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, generateTraceID())
}

// WithTraceID stores the given trace id in ctx. An empty id generates one.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = generateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace id stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithUserID stores the authenticated subject in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserID returns the authenticated subject stored in ctx.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
