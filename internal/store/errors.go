package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by the key/value and session stores. Backends wrap them in
// a StoreError; callers match with errors.Is.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrUpdateFailed      = errors.New("update failed")
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrClosed is returned by any operation on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyKey rejects key/value operations without a key.
	ErrEmptyKey = errors.New("key must not be empty")

	ErrSessionNotFound     = fmt.Errorf("%w: session", ErrNotFound)
	ErrSessionAlreadyEnded = fmt.Errorf("%w: session already ended", ErrUpdateFailed)
)

// IsNotFoundError reports whether err is, or wraps, ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError records which store operation failed on which entity. The
// cause stays reachable through Unwrap.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := e.Entity + " " + e.Operation + ": " + e.Message
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError; err may be nil.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
