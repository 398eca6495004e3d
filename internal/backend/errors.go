package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the bearer token was rejected and the user must log in again
	ErrUnauthorized = errors.New("authentication required")

	// ErrUnavailable means the backend could not be reached
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError is a business error reported by the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Message extracts the user-facing message from err, falling back to fallback
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
