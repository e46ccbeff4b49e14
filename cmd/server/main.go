// Package main runs the tempo server: the timer registry and energy ledger
// behind their HTTP API, optionally hosting the reference session endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/platform/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses flags, loads configuration and either runs a migration command
// or serves until shutdown. It returns the process exit code.
func run(args []string) int {
	flags := flag.NewFlagSet("tempo", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (default ./config.yaml when present)")
	migrateCmd := flags.String("migrate", "", "run a session endpoint migration command (up, status) and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	log, closer, err := logger.Setup(cfg.Server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		return 1
	}
	defer func() { _ = closer.Close() }()

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"store_driver", cfg.Store.Driver,
		"session_sync", cfg.SessionEnabled(),
		"session_endpoint", cfg.SessionEndpointEnabled())

	ctx := context.Background()

	if *migrateCmd != "" {
		if err := runMigrations(ctx, cfg, *migrateCmd, log); err != nil {
			log.Error("migration command failed", "command", *migrateCmd, "error", err)
			return 1
		}
		return 0
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		return 1
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		log.Error("server stopped with error", "error", err)
		return 1
	}
	return 0
}
