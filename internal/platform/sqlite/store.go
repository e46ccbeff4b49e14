package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/phrazzld/tempo/internal/store"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const entity = "kv"

// KVStore implements store.KVStore on a single SQLite table.
type KVStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Compile-time check that KVStore implements store.KVStore
var _ store.KVStore = (*KVStore)(nil)

// Open opens (creating if needed) the database at path and applies pending
// migrations. The parent directory is created with owner-only permissions.
func Open(ctx context.Context, path string, logger *slog.Logger) (*KVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sqlite_kv", "path", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("sqlite store ready")
	return &KVStore{db: db, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	migrationsFS, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrationsFS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("applied migration",
			"version", r.Source.Version,
			"duration_ms", r.Duration.Milliseconds())
	}
	return nil
}

// Get implements store.KVStore.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, store.ErrEmptyKey
	}
	if err := s.checkOpen("get"); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("failed to read key", "key", key, "error", err)
		return "", false, store.NewStoreError(entity, "get", "query failed", err)
	}
	return value, true, nil
}

// Set implements store.KVStore.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return store.ErrEmptyKey
	}
	if err := s.checkOpen("set"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("failed to write key", "key", key, "error", err)
		return store.NewStoreError(entity, "set", "write failed", err)
	}
	return nil
}

// Remove implements store.KVStore.
func (s *KVStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return store.ErrEmptyKey
	}
	if err := s.checkOpen("remove"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		s.logger.Error("failed to remove key", "key", key, "error", err)
		return store.NewStoreError(entity, "remove", "delete failed", err)
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	if err := s.checkOpen("keys"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, store.NewStoreError(entity, "keys", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, store.NewStoreError(entity, "keys", "scan failed", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(entity, "keys", "iteration failed", err)
	}
	return keys, nil
}

// Close releases the database. Later calls return store.ErrClosed.
func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *KVStore) checkOpen(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.NewStoreError(entity, op, "store closed", store.ErrClosed)
	}
	return nil
}
