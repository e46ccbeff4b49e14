package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tempo/internal/store"
)

// SQLSTATE codes mapped onto store sentinels.
var sqlStateErrors = map[string]struct {
	sentinel error
	label    string
}{
	"23505": {store.ErrDuplicate, "unique violation"},
	"23503": {store.ErrInvalidEntity, "foreign key violation"},
	"23514": {store.ErrInvalidEntity, "check violation"},
	"23502": {store.ErrInvalidEntity, "not null violation"},
}

// MapError translates driver errors into store sentinels so handlers can
// match them with errors.Is. The original error text is kept in the
// message. Unmapped errors come back unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	mapped, ok := sqlStateErrors[pgErr.Code]
	if !ok {
		return err
	}
	detail := pgErr.ConstraintName
	if detail == "" {
		detail = pgErr.ColumnName
	}
	if detail == "" {
		return fmt.Errorf("%w: %s: %v", mapped.sentinel, mapped.label, err)
	}
	return fmt.Errorf("%w: %s (%s): %v", mapped.sentinel, mapped.label, detail, err)
}

// CheckRowsAffected reports store.ErrNotFound when an update touched no rows.
func CheckRowsAffected(result sql.Result, entity string) error {
	if result == nil {
		return errors.New("check rows affected: nil result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if entity == "" {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: %s not found", store.ErrNotFound, entity)
}
