package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/phrazzld/tempo/internal/events"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/store"
)

// LedgerSnapshotVersion is the current ledger snapshot format.
const LedgerSnapshotVersion = 1

// LedgerSource is what LedgerPersistence saves from and restores into.
type LedgerSource interface {
	State() ledger.State
	DefaultState() ledger.State
	Restore(s ledger.State)
}

type ledgerSnapshot struct {
	Version int          `json:"version"`
	SavedAt time.Time    `json:"saved_at"`
	State   ledger.State `json:"state"`
}

// LedgerPersistence saves the energy ledger under one key.
type LedgerPersistence struct {
	kv     store.KVStore
	key    string
	source LedgerSource
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

// Compile-time check that LedgerPersistence can subscribe to ledger events
var _ events.EventHandler = (*LedgerPersistence)(nil)

// NewLedgerPersistence creates a persister for source stored under key.
func NewLedgerPersistence(kv store.KVStore, key string, source LedgerSource, logger *slog.Logger) *LedgerPersistence {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerPersistence{
		kv:     kv,
		key:    key,
		source: source,
		now:    time.Now,
		logger: logger.With("component", "ledger_persistence", "key", key),
	}
}

// Save writes the current ledger state.
func (p *LedgerPersistence) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(ledgerSnapshot{
		Version: LedgerSnapshotVersion,
		SavedAt: p.now(),
		State:   p.source.State(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}
	if err := p.kv.Set(ctx, p.key, string(data)); err != nil {
		return fmt.Errorf("failed to write ledger snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted state. The boolean is false when nothing usable
// was stored, in which case the source's default state is returned. A
// malformed snapshot is logged and removed.
func (p *LedgerPersistence) Load(ctx context.Context) (ledger.State, bool, error) {
	raw, ok, err := p.kv.Get(ctx, p.key)
	if err != nil {
		return ledger.State{}, false, fmt.Errorf("failed to read ledger snapshot: %w", err)
	}
	if !ok {
		return p.source.DefaultState(), false, nil
	}

	state, err := decodeLedger(raw)
	if err != nil {
		p.logger.Warn("discarding malformed ledger snapshot", "error", err)
		if rmErr := p.kv.Remove(ctx, p.key); rmErr != nil {
			return ledger.State{}, false, fmt.Errorf("failed to remove malformed ledger snapshot: %w", rmErr)
		}
		return p.source.DefaultState(), false, nil
	}
	return state, true, nil
}

func decodeLedger(raw string) (ledger.State, error) {
	var snapshot ledgerSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return ledger.State{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if snapshot.Version != LedgerSnapshotVersion {
		return ledger.State{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, snapshot.Version)
	}

	s := snapshot.State
	switch {
	case s.MaxEnergy <= 0:
		return ledger.State{}, fmt.Errorf("%w: max energy must be positive", ErrMalformedSnapshot)
	case s.CurrentEnergy < 0 || s.CurrentEnergy > s.MaxEnergy || math.IsNaN(s.CurrentEnergy):
		return ledger.State{}, fmt.Errorf("%w: current energy %.2f outside [0, %.2f]",
			ErrMalformedSnapshot, s.CurrentEnergy, s.MaxEnergy)
	case s.DailyExpenditure < 0:
		return ledger.State{}, fmt.Errorf("%w: negative daily expenditure", ErrMalformedSnapshot)
	case s.StreakDays < 0 || s.TotalTasksCompleted < 0:
		return ledger.State{}, fmt.Errorf("%w: negative counters", ErrMalformedSnapshot)
	}
	for i, tx := range s.Transactions {
		if !tx.Type.IsValid() {
			return ledger.State{}, fmt.Errorf("%w: transaction %d has unknown type %q",
				ErrMalformedSnapshot, i, tx.Type)
		}
	}
	return s, nil
}

// Restore loads the persisted state into the source. It reports whether a
// snapshot was applied.
func (p *LedgerPersistence) Restore(ctx context.Context) (bool, error) {
	state, ok, err := p.Load(ctx)
	if err != nil || !ok {
		return false, err
	}
	p.source.Restore(state)
	return true, nil
}

// Clear removes the snapshot.
func (p *LedgerPersistence) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.kv.Remove(ctx, p.key); err != nil {
		return fmt.Errorf("failed to clear ledger snapshot: %w", err)
	}
	return nil
}

// HandleEvent saves after every ledger change.
func (p *LedgerPersistence) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Source != events.SourceLedger {
		return nil
	}
	if err := p.Save(ctx); err != nil {
		p.logger.Error("failed to save ledger after change", "event_type", event.Type, "error", err)
		return err
	}
	return nil
}
