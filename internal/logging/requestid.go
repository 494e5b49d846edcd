// Package logging provides request ID context propagation and the slog setup
// shared by both client runtimes.
package logging

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// HeaderRequestID carries the request id to the backend and back to bridge callers.
const HeaderRequestID = "X-Request-ID"

// GenerateRequestID creates a request ID of the form "agent-{uuid}".
func GenerateRequestID() string {
	return "agent-" + uuid.New().String()
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureRequestID returns ctx carrying a request id, generating one if absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := GetRequestID(ctx); id != "" {
		return ctx, id
	}
	id := GenerateRequestID()
	return WithRequestID(ctx, id), id
}

// GetOrGenerateRequestID retrieves X-Request-ID from header or generates a new one.
func GetOrGenerateRequestID(r *http.Request) string {
	if requestID := r.Header.Get(HeaderRequestID); requestID != "" {
		return requestID
	}
	return GenerateRequestID()
}
