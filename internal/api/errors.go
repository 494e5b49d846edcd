package api

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing messages for degraded results.
const (
	SessionExpiredDetail = "Session expired. Please log in again."
	NetworkErrorDetail   = "Network error. Is the backend running?"
)

var (
	// ErrTransport marks network failures and unusable responses.
	ErrTransport = errors.New("transport error")
	// ErrSessionExpired is returned when a 401 could not be recovered by a refresh.
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx backend result other than an expired session.
type APIError struct {
	Status int
	Detail string
	Fields map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// UserMessage renders err for display: server detail for domain errors,
// fixed messages for transport and session failures.
func UserMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionExpired):
		return SessionExpiredDetail
	case errors.Is(err, ErrTransport):
		return NetworkErrorDetail
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
