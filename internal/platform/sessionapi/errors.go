package sessionapi

import (
	"errors"
	"fmt"
)

// Error definitions for the sessionapi package.
var (
	// ErrNotConfigured is returned when the client is built without a base URL.
	ErrNotConfigured = errors.New("session endpoint base url is not configured")

	// ErrTransientFailure marks failures worth retrying: network errors and 5xx responses.
	ErrTransientFailure = errors.New("transient session endpoint failure")

	// ErrRejected marks 4xx responses; retrying will not help.
	ErrRejected = errors.New("session endpoint rejected the request")

	// ErrInvalidResponse is returned when a 2xx response cannot be decoded.
	ErrInvalidResponse = errors.New("invalid session endpoint response")
)

// StatusError records the HTTP status of a failed call.
type StatusError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	return fmt.Sprintf("session endpoint returned status %d: %v", e.StatusCode, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StatusError) Unwrap() error {
	return e.Err
}
