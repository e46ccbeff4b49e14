package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ExpenditurePolicy decides which delta counts as spent when the balance clamps.
type ExpenditurePolicy string

const (
	// PolicyApplied records only the portion of a delta that changed the balance.
	PolicyApplied ExpenditurePolicy = "applied"

	// PolicyRequested records the full delta the caller asked for.
	PolicyRequested ExpenditurePolicy = "requested"
)

// DefaultTransactionLogSize is the number of transactions kept in State.
const DefaultTransactionLogSize = 50

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid ledger configuration")

// Config holds the ledger settings.
type Config struct {
	MaxEnergy          float64
	InitialEnergy      float64
	SoftLimit          float64
	HardLimit          float64
	TransactionLogSize int
	Policy             ExpenditurePolicy

	// Location decides where calendar days begin. Nil means time.Local.
	Location *time.Location
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxEnergy:          100,
		InitialEnergy:      100,
		SoftLimit:          50,
		HardLimit:          80,
		TransactionLogSize: DefaultTransactionLogSize,
		Policy:             PolicyApplied,
		Location:           time.Local,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.MaxEnergy <= 0:
		return fmt.Errorf("%w: max energy must be positive", ErrInvalidConfig)
	case c.InitialEnergy < 0 || c.InitialEnergy > c.MaxEnergy:
		return fmt.Errorf("%w: initial energy must be within [0, %.1f]", ErrInvalidConfig, c.MaxEnergy)
	case c.SoftLimit < 0 || c.HardLimit < c.SoftLimit:
		return fmt.Errorf("%w: hard limit must be at least the soft limit", ErrInvalidConfig)
	case c.Policy != PolicyApplied && c.Policy != PolicyRequested:
		return fmt.Errorf("%w: unknown expenditure policy %q", ErrInvalidConfig, c.Policy)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.TransactionLogSize <= 0 {
		c.TransactionLogSize = DefaultTransactionLogSize
	}
	if c.Policy == "" {
		c.Policy = PolicyApplied
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}
