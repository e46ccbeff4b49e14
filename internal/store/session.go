package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is one recorded run of a task timer on the session endpoint.
type Session struct {
	ID         uuid.UUID
	TaskID     string
	UserID     string
	HourlyRate float64
	StartedAt  time.Time
	EndedAt    *time.Time
	EndAction  string
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// SessionStore persists sessions for the reference session endpoint.
type SessionStore interface {
	// Create inserts a new open session. The ID is assigned by the caller.
	Create(ctx context.Context, s *Session) error

	// GetByID returns the session or ErrSessionNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// End closes an open session with the given action.
	// Returns ErrSessionNotFound or ErrSessionAlreadyEnded.
	End(ctx context.Context, id uuid.UUID, action string, endedAt time.Time) (*Session, error)

	// WithTx returns a store bound to the transaction.
	WithTx(tx DBTX) SessionStore
}
