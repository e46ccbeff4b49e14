package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/platform/postgres"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/phrazzld/tempo/internal/testdb"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostgresSessionStore(t *testing.T) {
	db := testdb.GetTestDB(t)

	t.Run("create, get and end", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := postgres.NewPostgresSessionStore(tx, quietLogger())
			started := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

			session := &store.Session{
				ID:         uuid.New(),
				TaskID:     "task-1",
				UserID:     "user-1",
				HourlyRate: 60,
				StartedAt:  started,
			}
			require.NoError(t, s.Create(ctx, session))

			got, err := s.GetByID(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, "task-1", got.TaskID)
			assert.InDelta(t, 60.0, got.HourlyRate, 1e-9)
			assert.True(t, got.StartedAt.Equal(started))
			assert.False(t, got.Ended())

			ended, err := s.End(ctx, session.ID, "stop", started.Add(time.Hour))
			require.NoError(t, err)
			require.True(t, ended.Ended())
			assert.Equal(t, "stop", ended.EndAction)
			assert.True(t, ended.EndedAt.Equal(started.Add(time.Hour)))

			_, err = s.End(ctx, session.ID, "stop", started.Add(2*time.Hour))
			assert.ErrorIs(t, err, store.ErrSessionAlreadyEnded)
		})
	})

	t.Run("missing session", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := postgres.NewPostgresSessionStore(tx, quietLogger())

			_, err := s.GetByID(ctx, uuid.New())
			assert.ErrorIs(t, err, store.ErrSessionNotFound)
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = s.End(ctx, uuid.New(), "stop", time.Now())
			assert.ErrorIs(t, err, store.ErrSessionNotFound)
		})
	})

	t.Run("duplicate id", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := postgres.NewPostgresSessionStore(tx, quietLogger())
			session := &store.Session{ID: uuid.New(), TaskID: "a", UserID: "u"}

			require.NoError(t, s.Create(ctx, session))
			err := s.Create(ctx, session)
			assert.ErrorIs(t, err, store.ErrDuplicate)
		})
	})
}

func TestPostgresSessionStore_RejectsInvalidSession(t *testing.T) {
	t.Parallel()
	// Validation happens before any query, so a nil-backed store is never touched.
	s := postgres.NewPostgresSessionStore(&sql.DB{}, quietLogger())

	tests := []struct {
		name    string
		session store.Session
	}{
		{"missing id", store.Session{TaskID: "a", UserID: "u"}},
		{"missing task", store.Session{ID: uuid.New(), UserID: "u"}},
		{"missing user", store.Session{ID: uuid.New(), TaskID: "a"}},
		{"negative rate", store.Session{ID: uuid.New(), TaskID: "a", UserID: "u", HourlyRate: -1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			session := tt.session
			err := s.Create(context.Background(), &session)
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testdb.GetTestDB(t)
	ctx := context.Background()

	require.NoError(t, postgres.Migrate(ctx, db, quietLogger()))

	status, err := postgres.MigrationStatus(ctx, db)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.Equal(t, goose.StateApplied, s.State)
	}
}
