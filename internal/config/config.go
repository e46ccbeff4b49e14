package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Session  SessionConfig  `mapstructure:"session"`
	Timer    TimerConfig    `mapstructure:"timer" validate:"required"`
	Energy   EnergyConfig   `mapstructure:"energy" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// LogFile, when set, receives a rotated copy of the JSON log stream.
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" validate:"gte=0"`
	LogMaxBackups int    `mapstructure:"log_max_backups" validate:"gte=0"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days" validate:"gte=0"`
}

// DatabaseConfig configures the PostgreSQL database behind the reference
// session endpoint. An empty URL disables the endpoint.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains the shared secret used to sign and verify session
// endpoint tokens.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
	UserID        string        `mapstructure:"user_id" validate:"required"`
}

// StoreConfig selects where timer and ledger snapshots are persisted.
type StoreConfig struct {
	Driver    string `mapstructure:"driver" validate:"required,oneof=sqlite memory"`
	Path      string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	TimerKey  string `mapstructure:"timer_key" validate:"required"`
	LedgerKey string `mapstructure:"ledger_key" validate:"required,nefield=TimerKey"`
}

// SessionConfig configures the client for the external session endpoint.
// An empty BaseURL disables session syncing.
type SessionConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Workers    int           `mapstructure:"workers" validate:"gt=0"`
	QueueSize  int           `mapstructure:"queue_size" validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

// TimerConfig configures the timer registry.
type TimerConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval" validate:"gt=0"`
	RetainFinished bool          `mapstructure:"retain_finished"`

	// DefaultRates maps category ids to hourly rates for categories that
	// carry no rate of their own.
	DefaultRates map[string]float64 `mapstructure:"default_rates" validate:"dive,gte=0"`
}

// PriorityWeights holds the multiplier for each task priority.
type PriorityWeights struct {
	Low    float64 `mapstructure:"low" validate:"gt=0"`
	Medium float64 `mapstructure:"medium" validate:"gt=0"`
	High   float64 `mapstructure:"high" validate:"gt=0"`
}

// TimeFactors holds the focus session reward settings.
type TimeFactors struct {
	FocusSessionReward    float64 `mapstructure:"focus_session_reward" validate:"gte=0"`
	FocusIncrementMinutes int     `mapstructure:"focus_increment_minutes" validate:"gt=0"`
}

// EnergyConfig configures the energy ledger and the impact calculator.
type EnergyConfig struct {
	MaxEnergy     float64 `mapstructure:"max_energy" validate:"gt=0"`
	InitialEnergy float64 `mapstructure:"initial_energy" validate:"gte=0,ltefield=MaxEnergy"`

	PriorityWeights      PriorityWeights `mapstructure:"priority_weights"`
	BaseStartCost        float64         `mapstructure:"base_start_cost" validate:"gt=0"`
	BaseMoveCost         float64         `mapstructure:"base_move_cost" validate:"gt=0"`
	BaseCompletionReward float64         `mapstructure:"base_completion_reward" validate:"gt=0"`
	TimeFactors          TimeFactors     `mapstructure:"time_factors"`
	ForwardMoveFactor    float64         `mapstructure:"forward_move_factor" validate:"gt=0"`
	BackwardMoveFactor   float64         `mapstructure:"backward_move_factor" validate:"gt=0"`
	Columns              []string        `mapstructure:"columns" validate:"omitempty,min=2,unique,dive,required"`

	DailyExpenditureSoftLimit float64 `mapstructure:"daily_expenditure_soft_limit" validate:"gt=0"`
	DailyExpenditureHardLimit float64 `mapstructure:"daily_expenditure_hard_limit" validate:"gtefield=DailyExpenditureSoftLimit"`

	TransactionLogSize int    `mapstructure:"transaction_log_size" validate:"gt=0"`
	ExpenditurePolicy  string `mapstructure:"expenditure_policy" validate:"oneof=applied requested"`

	// Timezone decides where calendar days begin. Empty means the local zone.
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone. Load has already validated it.
func (e EnergyConfig) Location() *time.Location {
	if e.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SessionEnabled reports whether runs are synced to a session endpoint.
func (c *Config) SessionEnabled() bool {
	return c.Session.BaseURL != ""
}

// SessionEndpointEnabled reports whether this process hosts the reference
// session endpoint.
func (c *Config) SessionEndpointEnabled() bool {
	return c.Database.URL != ""
}
