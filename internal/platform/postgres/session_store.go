package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/store"
)

// PostgresSessionStore implements store.SessionStore on PostgreSQL.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// NewPostgresSessionStore creates a session store over a connection or
// transaction. If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx store.DBTX) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *store.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if session.ID == uuid.Nil || session.TaskID == "" || session.UserID == "" || session.HourlyRate < 0 {
		return store.NewStoreError("session", "create", "id, task_id and user_id are required", store.ErrInvalidEntity)
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sessions (id, task_id, user_id, hourly_rate, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.TaskID,
		session.UserID,
		session.HourlyRate,
		session.StartedAt,
	)
	if err != nil {
		mapped := MapError(err)
		log.Error("failed to create session",
			slog.String("session_id", session.ID.String()),
			slog.String("task_id", session.TaskID),
			slog.String("error", err.Error()))
		return store.NewStoreError("session", "create", "insert failed", mapped)
	}

	log.Info("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("task_id", session.TaskID))
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	query := `
		SELECT id, task_id, user_id, hourly_rate, started_at, ended_at, COALESCE(end_action, '')
		FROM sessions
		WHERE id = $1
	`
	var session store.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.TaskID,
		&session.UserID,
		&session.HourlyRate,
		&session.StartedAt,
		&session.EndedAt,
		&session.EndAction,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrNotFound) {
			return nil, store.ErrSessionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get session",
			slog.String("session_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("session", "get", "query failed", mapped)
	}
	return &session, nil
}

// End implements store.SessionStore.End. Only an open session can be ended.
func (s *PostgresSessionStore) End(
	ctx context.Context,
	id uuid.UUID,
	action string,
	endedAt time.Time,
) (*store.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE sessions
		SET ended_at = $2, end_action = $3
		WHERE id = $1 AND ended_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, endedAt, action)
	if err != nil {
		log.Error("failed to end session",
			slog.String("session_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("session", "end", "update failed", MapError(err))
	}

	if err := CheckRowsAffected(result, "session"); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to end session: %w", err)
		}
		// Either missing or already ended; tell them apart.
		existing, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Ended() {
			return existing, store.ErrSessionAlreadyEnded
		}
		return nil, store.NewStoreError("session", "end", "no rows updated", store.ErrUpdateFailed)
	}

	log.Info("session ended",
		slog.String("session_id", id.String()),
		slog.String("action", action))
	return s.GetByID(ctx, id)
}
