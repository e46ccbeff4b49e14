package ledger

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/energy"
	"github.com/phrazzld/tempo/internal/events"
)

// Event types published by the ledger
const (
	EventApplied     = "energy.applied"
	EventWeeklyReset = "energy.weekly_reset"
)

const dayLayout = "2006-01-02"

// AppliedPayload is the payload of an EventApplied event.
type AppliedPayload struct {
	Transaction   domain.EnergyTransaction `json:"transaction"`
	CurrentEnergy float64                  `json:"current_energy"`
	Limits        Limits                   `json:"limits"`
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger is the single writer of energy state. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	cfg    Config
	state  State
	now    func() time.Time
	logger *slog.Logger

	emitter *events.InMemoryEventEmitter
}

// New creates a ledger at cfg.InitialEnergy. An invalid cfg is logged and
// replaced by DefaultConfig.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "energy_ledger")

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Warn("invalid ledger configuration, using defaults", "error", err)
		cfg = DefaultConfig()
	}

	l := &Ledger{
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
		emitter: events.NewInMemoryEventEmitter(logger),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.state = l.freshState()
	return l
}

// DefaultState returns the state a new ledger starts from.
func (l *Ledger) DefaultState() State {
	return l.freshState()
}

func (l *Ledger) freshState() State {
	return State{
		CurrentEnergy: l.cfg.InitialEnergy,
		MaxEnergy:     l.cfg.MaxEnergy,
		LastUpdated:   l.now(),
		Transactions:  []domain.EnergyTransaction{},
	}
}

// Config returns the ledger configuration.
func (l *Ledger) Config() Config {
	return l.cfg
}

// Subscribe registers a handler for ledger events.
func (l *Ledger) Subscribe(handler events.EventHandler) {
	l.emitter.RegisterHandler(handler)
}

// Apply records tx and moves the balance by tx.EnergyDelta, clamped into
// [0, MaxEnergy]. It never fails: out-of-range deltas are clamped, an unknown
// transaction type is recorded as a manual adjustment and a non-finite delta
// counts as zero.
func (l *Ledger) Apply(ctx context.Context, tx domain.EnergyTransaction) Result {
	if !tx.Type.IsValid() {
		l.logger.Warn("unknown transaction type, recording as manual adjustment",
			"type", tx.Type, "task_id", tx.TaskID)
		tx.Type = domain.TransactionManualAdjust
	}
	if math.IsNaN(tx.EnergyDelta) || math.IsInf(tx.EnergyDelta, 0) {
		l.logger.Warn("non-finite energy delta ignored", "task_id", tx.TaskID)
		tx.EnergyDelta = 0
	}

	l.mu.Lock()
	now := l.now()
	l.rollover(now)

	current := l.state.CurrentEnergy
	next := energy.Clamp(current+tx.EnergyDelta, 0, l.state.MaxEnergy)
	applied := next - current

	l.recordExpenditure(tx.EnergyDelta, applied)

	switch tx.Type {
	case domain.TransactionTaskComplete:
		l.state.TotalTasksCompleted++
		l.state.WeeklyStats.TasksCompleted++
		if today := l.dayKey(now); l.state.LastCompletionDay != today {
			l.state.StreakDays++
			l.state.LastCompletionDay = today
		}
	case domain.TransactionFocusSession:
		if m := tx.Metadata.SessionDurationMinutes; m > 0 {
			l.state.WeeklyStats.FocusMinutes += m
		}
	}

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.Timestamp = now
	tx.AppliedDelta = applied

	l.state.CurrentEnergy = next
	l.state.Transactions = append(l.state.Transactions, tx)
	if over := len(l.state.Transactions) - l.cfg.TransactionLogSize; over > 0 {
		l.state.Transactions = append([]domain.EnergyTransaction(nil), l.state.Transactions[over:]...)
	}
	l.state.LastUpdated = now

	result := Result{
		Transaction: tx,
		Energy:      next,
		MaxEnergy:   l.state.MaxEnergy,
		Clamped:     applied != tx.EnergyDelta,
		Limits:      l.limitsLocked(),
	}
	l.mu.Unlock()

	l.logger.Debug("energy applied",
		"type", tx.Type,
		"task_id", tx.TaskID,
		"requested", tx.EnergyDelta,
		"applied", applied,
		"current_energy", next)

	l.emit(ctx, EventApplied, tx.TaskID, AppliedPayload{
		Transaction:   tx,
		CurrentEnergy: next,
		Limits:        result.Limits,
	})

	return result
}

// recordExpenditure updates daily and weekly totals. Caller holds l.mu.
func (l *Ledger) recordExpenditure(requested, applied float64) {
	delta := applied
	if l.cfg.Policy == PolicyRequested {
		delta = requested
	}

	switch {
	case delta < 0:
		l.state.DailyExpenditure += -delta
		l.state.WeeklyStats.EnergySpent += -delta
	case delta > 0:
		l.state.WeeklyStats.EnergyGained += delta
	}
}

// rollover clears the daily expenditure once the calendar day of now differs
// from that of the last update. Caller holds l.mu.
func (l *Ledger) rollover(now time.Time) {
	if l.state.LastUpdated.IsZero() {
		l.state.LastUpdated = now
		return
	}
	if l.dayKey(l.state.LastUpdated) == l.dayKey(now) {
		return
	}

	l.logger.Debug("new day, resetting daily expenditure",
		"previous_expenditure", l.state.DailyExpenditure)
	l.state.DailyExpenditure = 0
	l.state.LastUpdated = now
}

func (l *Ledger) dayKey(t time.Time) string {
	return t.In(l.cfg.Location).Format(dayLayout)
}

// CheckLimits reports today's expenditure against the configured limits.
func (l *Ledger) CheckLimits() Limits {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(l.now())
	return l.limitsLocked()
}

func (l *Ledger) limitsLocked() Limits {
	spent := l.state.DailyExpenditure
	level := LimitOK
	switch {
	case spent > l.cfg.HardLimit:
		level = LimitHard
	case spent > l.cfg.SoftLimit:
		level = LimitSoft
	}
	return Limits{
		Level:            level,
		DailyExpenditure: spent,
		SoftLimit:        l.cfg.SoftLimit,
		HardLimit:        l.cfg.HardLimit,
	}
}

// State returns a copy of the current state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(l.now())
	return l.state.clone()
}

// Restore replaces the ledger state, typically with a persisted snapshot.
// The balance is clamped to the configured maximum, counters are floored at
// zero and the transaction log is trimmed.
func (l *Ledger) Restore(s State) {
	s = s.clone()
	s.MaxEnergy = l.cfg.MaxEnergy
	s.CurrentEnergy = energy.Clamp(s.CurrentEnergy, 0, s.MaxEnergy)
	s.DailyExpenditure = math.Max(0, s.DailyExpenditure)
	if s.StreakDays < 0 {
		s.StreakDays = 0
	}
	if s.TotalTasksCompleted < 0 {
		s.TotalTasksCompleted = 0
	}
	if over := len(s.Transactions) - l.cfg.TransactionLogSize; over > 0 {
		s.Transactions = s.Transactions[over:]
	}
	if s.Transactions == nil {
		s.Transactions = []domain.EnergyTransaction{}
	}

	l.mu.Lock()
	l.state = s
	l.rollover(l.now())
	l.mu.Unlock()

	l.logger.Info("ledger restored",
		"current_energy", s.CurrentEnergy,
		"transactions", len(s.Transactions))
}

// ResetWeeklyStats clears the weekly aggregates.
func (l *Ledger) ResetWeeklyStats(ctx context.Context) WeeklyStats {
	l.mu.Lock()
	l.rollover(l.now())
	previous := l.state.WeeklyStats
	l.state.WeeklyStats = WeeklyStats{}
	l.mu.Unlock()

	l.emit(ctx, EventWeeklyReset, "", previous)
	return previous
}

func (l *Ledger) emit(ctx context.Context, eventType, taskID string, payload interface{}) {
	event, err := events.NewEvent(events.SourceLedger, eventType, taskID, payload)
	if err != nil {
		l.logger.Error("failed to build ledger event", "event_type", eventType, "error", err)
		return
	}
	if err := l.emitter.EmitEvent(ctx, event); err != nil {
		l.logger.Warn("ledger event handler failed", "event_type", eventType, "error", err)
	}
}
