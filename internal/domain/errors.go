// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTaskID is returned when a task ID is empty.
	ErrInvalidTaskID = errors.New("invalid task ID")

	// ErrInvalidPriority is returned when a task priority is not one of the known values.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidTransactionType is returned when an energy transaction type is unknown.
	ErrInvalidTransactionType = errors.New("invalid energy transaction type")

	// ErrNegativeRate is returned when a category carries a negative hourly rate.
	ErrNegativeRate = errors.New("hourly rate cannot be negative")
)
