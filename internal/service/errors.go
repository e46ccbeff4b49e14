package service

import (
	"errors"
	"fmt"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrTimerNotFound indicates no timer exists for the task.
	// API layer should map this to HTTP 404 Not Found.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrTimerNotActive indicates the timer exists but is neither running nor paused.
	// API layer should map this to HTTP 409 Conflict.
	ErrTimerNotActive = errors.New("timer is not active")

	// ErrSameColumn indicates a move whose source and target columns are equal.
	ErrSameColumn = errors.New("task is already in that column")

	// ErrInvalidAdjustment indicates a manual adjustment that is not a finite number.
	ErrInvalidAdjustment = errors.New("energy adjustment must be a finite number")

	// ErrInvalidOperation indicates an unknown preview operation.
	ErrInvalidOperation = errors.New("unknown energy operation")

	// ErrMissingDependency indicates a nil collaborator passed to a constructor.
	ErrMissingDependency = errors.New("missing dependency")
)

// WorkflowError wraps a failure of one workflow operation.
type WorkflowError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for WorkflowError.
func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("workflow %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("workflow %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// NewWorkflowError creates a new WorkflowError.
func NewWorkflowError(operation, message string, err error) *WorkflowError {
	return &WorkflowError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
