package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TEMPO_SERVER_PORT.
const EnvPrefix = "TEMPO"

// ErrSecretRequired is returned when a session feature is enabled without a JWT secret.
var ErrSecretRequired = errors.New("auth.jwt_secret is required when session syncing or the session endpoint is enabled")

// Load configuration from environment variables and an optional config.yaml
// in the working directory. Environment variables take precedence over values
// from the config file.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about; keys without
	// a default need an explicit binding.
	for _, key := range []string{"database.url", "auth.jwt_secret", "session.base_url", "energy.timezone"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the rules spanning sections.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if (cfg.SessionEnabled() || cfg.SessionEndpointEnabled()) && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("configuration validation failed: %w", ErrSecretRequired)
	}

	if cfg.Energy.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Energy.Timezone); err != nil {
			return fmt.Errorf("configuration validation failed: energy.timezone: %w", err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.log_max_size_mb", 10)
	v.SetDefault("server.log_max_backups", 3)
	v.SetDefault("server.log_max_age_days", 28)

	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("auth.token_lifetime", 5*time.Minute)
	v.SetDefault("auth.user_id", "local")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "tempo.db")
	v.SetDefault("store.timer_key", "timer_state")
	v.SetDefault("store.ledger_key", "energy_ledger")

	v.SetDefault("session.timeout", 5*time.Second)
	v.SetDefault("session.workers", 4)
	v.SetDefault("session.queue_size", 100)
	v.SetDefault("session.max_retries", 2)
	v.SetDefault("session.retry_delay", 250*time.Millisecond)

	v.SetDefault("timer.tick_interval", time.Second)
	v.SetDefault("timer.retain_finished", true)

	v.SetDefault("energy.max_energy", 100.0)
	v.SetDefault("energy.initial_energy", 100.0)
	v.SetDefault("energy.priority_weights.low", 1.0)
	v.SetDefault("energy.priority_weights.medium", 1.5)
	v.SetDefault("energy.priority_weights.high", 2.0)
	v.SetDefault("energy.base_start_cost", 10.0)
	v.SetDefault("energy.base_move_cost", 5.0)
	v.SetDefault("energy.base_completion_reward", 15.0)
	v.SetDefault("energy.time_factors.focus_session_reward", 5.0)
	v.SetDefault("energy.time_factors.focus_increment_minutes", 25)
	v.SetDefault("energy.forward_move_factor", 0.5)
	v.SetDefault("energy.backward_move_factor", 1.5)
	v.SetDefault("energy.columns", []string{"todo", "in_progress", "review", "done"})
	v.SetDefault("energy.daily_expenditure_soft_limit", 50.0)
	v.SetDefault("energy.daily_expenditure_hard_limit", 80.0)
	v.SetDefault("energy.transaction_log_size", 50)
	v.SetDefault("energy.expenditure_policy", "applied")
}
