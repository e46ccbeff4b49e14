package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

// ErrUnknownMigrationCommand is returned for commands other than up and status.
var ErrUnknownMigrationCommand = errors.New("unknown migration command")

// ErrNoDatabase is returned when a migration command runs without database.url.
var ErrNoDatabase = errors.New("database.url is required for migrations")

// runMigrations applies or reports the session endpoint schema migrations.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if command != "up" && command != "status" {
		return fmt.Errorf("%w: %q", ErrUnknownMigrationCommand, command)
	}
	if !cfg.SessionEndpointEnabled() {
		return ErrNoDatabase
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if command == "up" {
		return postgres.Migrate(ctx, db, logger)
	}

	statuses, err := postgres.MigrationStatus(ctx, db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		attrs := []any{"version", s.Source.Version, "path", s.Source.Path, "state", string(s.State)}
		if s.State == goose.StateApplied {
			attrs = append(attrs, "applied_at", s.AppliedAt)
		}
		logger.Info("migration", attrs...)
	}
	return nil
}
