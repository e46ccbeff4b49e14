package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/energy"
	"github.com/phrazzld/tempo/internal/job"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/persistence"
	"github.com/phrazzld/tempo/internal/platform/postgres"
	"github.com/phrazzld/tempo/internal/platform/sessionapi"
	"github.com/phrazzld/tempo/internal/platform/sqlite"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/phrazzld/tempo/internal/service/auth"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/phrazzld/tempo/internal/timer"
)

// application holds every long-lived component of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	kv       store.KVStore
	kvCloser io.Closer

	dispatcher *job.Dispatcher
	tokens     auth.JWTService
	registry   *timer.Registry
	ledger     *ledger.Ledger
	workflow   *service.Workflow

	timerStore  *persistence.TimerPersistence
	ledgerStore *persistence.LedgerPersistence

	// db and sessions are set only when this process hosts the session endpoint.
	db       *sql.DB
	sessions store.SessionStore
}

// newApplication wires the components described by cfg. Persisted timer and
// ledger state is restored before the persistence layers subscribe to
// changes. On error everything opened so far is closed again.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *application, err error) {
	app = &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup(ctx)
			app = nil
		}
	}()

	if err = app.openStore(ctx); err != nil {
		return nil, err
	}

	app.dispatcher = job.NewDispatcher(job.DispatcherConfig{
		WorkerCount: cfg.Session.Workers,
		QueueSize:   cfg.Session.QueueSize,
		JobTimeout:  cfg.Session.Timeout,
	}, logger)
	app.dispatcher.Start()

	if cfg.Auth.JWTSecret != "" {
		if app.tokens, err = auth.NewJWTService(cfg.Auth); err != nil {
			return nil, fmt.Errorf("failed to create JWT service: %w", err)
		}
	}

	rates := timer.ChainRates{timer.StaticRates(cfg.Timer.DefaultRates)}
	opts := []timer.Option{timer.WithSubmitter(app.dispatcher)}
	if cfg.SessionEnabled() {
		client, clientErr := sessionapi.NewClient(cfg.Session, app.tokens, cfg.Auth.UserID, logger)
		if clientErr != nil {
			return nil, fmt.Errorf("failed to create session client: %w", clientErr)
		}
		rates = append(rates, client)
		opts = append(opts, timer.WithSessionClient(client))
	}
	opts = append(opts, timer.WithRateLookup(rates))

	app.registry = timer.New(timerConfig(cfg), logger, opts...)

	ledgerCfg := ledgerConfig(cfg.Energy)
	if err = ledgerCfg.Validate(); err != nil {
		return nil, err
	}
	app.ledger = ledger.New(ledgerCfg, logger)

	app.timerStore = persistence.NewTimerPersistence(app.kv, cfg.Store.TimerKey, app.registry, logger)
	app.ledgerStore = persistence.NewLedgerPersistence(app.kv, cfg.Store.LedgerKey, app.ledger, logger)
	if err = app.restore(ctx); err != nil {
		return nil, err
	}
	app.registry.Subscribe(app.timerStore)
	app.ledger.Subscribe(app.ledgerStore)

	calculator := energy.NewCalculatorWithParams(energyParams(cfg.Energy))
	if app.workflow, err = service.NewWorkflow(app.registry, app.ledger, calculator, logger); err != nil {
		return nil, err
	}

	if cfg.SessionEndpointEnabled() {
		if err = app.openSessionEndpoint(ctx); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func (app *application) openStore(ctx context.Context) error {
	switch app.config.Store.Driver {
	case "memory":
		app.kv = store.NewMemoryKV()
	default:
		kv, err := sqlite.Open(ctx, app.config.Store.Path, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
		app.kv = kv
		app.kvCloser = kv
	}
	return nil
}

func (app *application) restore(ctx context.Context) error {
	restored, err := app.ledgerStore.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore energy ledger: %w", err)
	}
	timers, err := app.timerStore.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore timers: %w", err)
	}
	app.logger.Info("state restored", "ledger_restored", restored, "timers_restored", timers)
	return nil
}

func (app *application) openSessionEndpoint(ctx context.Context) error {
	db, err := postgres.Open(ctx, app.config.Database.URL, app.config.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	app.db = db
	if err := postgres.Migrate(ctx, db, app.logger); err != nil {
		return err
	}
	app.sessions = postgres.NewPostgresSessionStore(db, app.logger)
	return nil
}

// flush writes the current timer and ledger state to the store.
func (app *application) flush(ctx context.Context) error {
	var errs []error
	if app.timerStore != nil {
		if err := app.timerStore.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("save timers: %w", err))
		}
	}
	if app.ledgerStore != nil {
		if err := app.ledgerStore.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("save energy ledger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// cleanup flushes state and releases resources in reverse order of
// acquisition. It tolerates a partially initialized application.
func (app *application) cleanup(ctx context.Context) {
	if app.registry != nil {
		app.registry.Close()
	}
	if err := app.flush(ctx); err != nil {
		app.logger.Error("failed to flush state", "error", err)
	}
	if app.dispatcher != nil {
		if err := app.dispatcher.Shutdown(ctx); err != nil {
			app.logger.Error("failed to drain background jobs", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
	if app.kvCloser != nil {
		if err := app.kvCloser.Close(); err != nil {
			app.logger.Error("failed to close state store", "error", err)
		}
	}
}

func timerConfig(cfg *config.Config) timer.Config {
	return timer.Config{
		TickInterval:   cfg.Timer.TickInterval,
		RetainFinished: cfg.Timer.RetainFinished,
		UserID:         cfg.Auth.UserID,
		SessionTimeout: cfg.Session.Timeout,
	}
}

func ledgerConfig(cfg config.EnergyConfig) ledger.Config {
	return ledger.Config{
		MaxEnergy:          cfg.MaxEnergy,
		InitialEnergy:      cfg.InitialEnergy,
		SoftLimit:          cfg.DailyExpenditureSoftLimit,
		HardLimit:          cfg.DailyExpenditureHardLimit,
		TransactionLogSize: cfg.TransactionLogSize,
		Policy:             ledger.ExpenditurePolicy(cfg.ExpenditurePolicy),
		Location:           cfg.Location(),
	}
}

func energyParams(cfg config.EnergyConfig) *energy.Params {
	columns := make([]domain.Column, 0, len(cfg.Columns))
	for _, c := range cfg.Columns {
		columns = append(columns, domain.Column(c))
	}
	focusReward := cfg.TimeFactors.FocusSessionReward
	return energy.NewParams(energy.ParamsConfig{
		LowWeight:             cfg.PriorityWeights.Low,
		MediumWeight:          cfg.PriorityWeights.Medium,
		HighWeight:            cfg.PriorityWeights.High,
		BaseStartCost:         cfg.BaseStartCost,
		BaseMoveCost:          cfg.BaseMoveCost,
		BaseCompletionReward:  cfg.BaseCompletionReward,
		FocusSessionReward:    &focusReward,
		FocusIncrementMinutes: cfg.TimeFactors.FocusIncrementMinutes,
		ForwardMoveFactor:     cfg.ForwardMoveFactor,
		BackwardMoveFactor:    cfg.BackwardMoveFactor,
		Columns:               columns,
	})
}
