package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tempo/internal/platform/postgres"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "sessions",
		ColumnName:     "task_id",
		ConstraintName: "sessions_task_id_check",
	}
}

// fakeResult implements sql.Result for testing
type fakeResult struct {
	rowsAffected int64
	err          error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, r.err }
func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()
	generic := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
		same    bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), wantIs: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), wantIs: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), wantIs: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), wantIs: store.ErrInvalidEntity},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", newPgError("23505")), wantIs: store.ErrDuplicate},
		{name: "unmapped postgres code", err: newPgError("40001"), same: true},
		{name: "generic error", err: generic, same: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tt.err)
			switch {
			case tt.wantNil:
				assert.NoError(t, got)
			case tt.same:
				assert.Equal(t, tt.err, got)
			default:
				assert.ErrorIs(t, got, tt.wantIs)
			}
		})
	}
}

func TestMapError_Message(t *testing.T) {
	t.Parallel()

	got := postgres.MapError(newPgError("23514"))
	assert.Contains(t, got.Error(), "check violation (sessions_task_id_check)")

	noConstraint := &pgconn.PgError{Code: "23502", ColumnName: "user_id"}
	assert.Contains(t, postgres.MapError(noConstraint).Error(), "not null violation (user_id)")

	bare := &pgconn.PgError{Code: "23505"}
	assert.Contains(t, postgres.MapError(bare).Error(), "unique violation: ")
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(fakeResult{rowsAffected: 1}, "session"))

	err := postgres.CheckRowsAffected(fakeResult{}, "session")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "session not found")

	assert.Equal(t, store.ErrNotFound, postgres.CheckRowsAffected(fakeResult{}, ""))

	boom := errors.New("driver gone")
	assert.ErrorIs(t, postgres.CheckRowsAffected(fakeResult{err: boom}, "session"), boom)

	assert.Error(t, postgres.CheckRowsAffected(nil, "session"))
}
