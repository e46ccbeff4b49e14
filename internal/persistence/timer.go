package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/events"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/phrazzld/tempo/internal/timer"
)

// TimerSnapshotVersion is the current timer snapshot format.
const TimerSnapshotVersion = 1

// TimerSource is what TimerPersistence saves from and restores into.
// Both *timer.Registry and *timer.Single satisfy it.
type TimerSource interface {
	Export() []timer.Entry
	Restore(ctx context.Context, entries []timer.Entry) int
}

type timerSnapshot struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Timers  []timerRecord `json:"timers"`
}

type timerRecord struct {
	Task            domain.Task `json:"task"`
	ElapsedSeconds  int64       `json:"elapsed_seconds"`
	IsRunning       bool        `json:"is_running"`
	IsPaused        bool        `json:"is_paused"`
	State           timer.State `json:"state"`
	SessionEarnings float64     `json:"session_earnings"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	ActiveSession   string      `json:"active_session,omitempty"`
	HourlyRate      float64     `json:"hourly_rate"`
	LastUpdateTime  time.Time   `json:"last_update_time"`
}

// TimerPersistence saves the live timers of a TimerSource under one key.
type TimerPersistence struct {
	kv     store.KVStore
	key    string
	source TimerSource
	now    func() time.Time
	logger *slog.Logger

	// mu keeps export-then-write atomic so an older snapshot never
	// overwrites a newer one.
	mu sync.Mutex
}

// Compile-time check that TimerPersistence can subscribe to registry events
var _ events.EventHandler = (*TimerPersistence)(nil)

// NewTimerPersistence creates a persister for source stored under key.
func NewTimerPersistence(kv store.KVStore, key string, source TimerSource, logger *slog.Logger) *TimerPersistence {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerPersistence{
		kv:     kv,
		key:    key,
		source: source,
		now:    time.Now,
		logger: logger.With("component", "timer_persistence", "key", key),
	}
}

// SetClock replaces time.Now, for tests.
func (p *TimerPersistence) SetClock(now func() time.Time) {
	p.now = now
}

// Save writes the running and paused timers. When none are live the key is
// removed, so a stopped or reset timer leaves nothing behind.
func (p *TimerPersistence) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	snapshot := timerSnapshot{Version: TimerSnapshotVersion, SavedAt: now}
	for _, e := range p.source.Export() {
		if !e.State.IsLive() {
			continue
		}
		snapshot.Timers = append(snapshot.Timers, toRecord(e, now))
	}

	if len(snapshot.Timers) == 0 {
		if err := p.kv.Remove(ctx, p.key); err != nil {
			return fmt.Errorf("failed to clear timer snapshot: %w", err)
		}
		p.logger.Debug("no live timers, snapshot cleared")
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode timer snapshot: %w", err)
	}
	if err := p.kv.Set(ctx, p.key, string(data)); err != nil {
		return fmt.Errorf("failed to write timer snapshot: %w", err)
	}

	p.logger.Debug("timer snapshot saved", "timers", len(snapshot.Timers))
	return nil
}

func toRecord(e timer.Entry, now time.Time) timerRecord {
	last := e.LastUpdate
	if last.IsZero() {
		last = now
	}
	return timerRecord{
		Task:            e.Task,
		ElapsedSeconds:  e.ElapsedSeconds,
		IsRunning:       e.State == timer.StateRunning,
		IsPaused:        e.State == timer.StatePaused,
		State:           e.State,
		SessionEarnings: e.SessionEarnings,
		StartedAt:       e.StartedAt,
		ActiveSession:   e.ExternalSessionID,
		HourlyRate:      e.HourlyRate,
		LastUpdateTime:  last,
	}
}

// Load reads the snapshot and applies drift correction: each running timer
// gains floor(now - last_update_time) seconds, never negative. Paused timers
// are returned as saved.
//
// A malformed snapshot is logged, removed, and yields no entries. Only store
// errors are returned.
func (p *TimerPersistence) Load(ctx context.Context) ([]timer.Entry, error) {
	raw, ok, err := p.kv.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read timer snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	entries, err := decodeTimers(raw, p.now())
	if err != nil {
		p.logger.Warn("discarding malformed timer snapshot", "error", err)
		if rmErr := p.kv.Remove(ctx, p.key); rmErr != nil {
			return nil, fmt.Errorf("failed to remove malformed timer snapshot: %w", rmErr)
		}
		return nil, nil
	}
	return entries, nil
}

func decodeTimers(raw string, now time.Time) ([]timer.Entry, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	var snapshot timerSnapshot
	if err := dec.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if snapshot.Version != TimerSnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, snapshot.Version)
	}

	entries := make([]timer.Entry, 0, len(snapshot.Timers))
	seen := make(map[string]bool, len(snapshot.Timers))
	for i, rec := range snapshot.Timers {
		e, err := fromRecord(rec, now)
		if err != nil {
			return nil, fmt.Errorf("%w: timer %d: %v", ErrMalformedSnapshot, i, err)
		}
		if seen[e.TaskID] {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrMalformedSnapshot, e.TaskID)
		}
		seen[e.TaskID] = true
		entries = append(entries, e)
	}
	return entries, nil
}

func fromRecord(rec timerRecord, now time.Time) (timer.Entry, error) {
	state := rec.State
	if state == "" {
		switch {
		case rec.IsRunning && !rec.IsPaused:
			state = timer.StateRunning
		case rec.IsPaused && !rec.IsRunning:
			state = timer.StatePaused
		}
	}
	if !state.IsLive() {
		return timer.Entry{}, fmt.Errorf("state %q cannot be restored", rec.State)
	}
	if rec.LastUpdateTime.IsZero() {
		return timer.Entry{}, fmt.Errorf("missing last_update_time")
	}
	if math.IsNaN(rec.HourlyRate) {
		return timer.Entry{}, fmt.Errorf("invalid hourly rate")
	}

	e := timer.Entry{
		TaskID:            rec.Task.ID,
		Task:              rec.Task,
		ElapsedSeconds:    rec.ElapsedSeconds,
		State:             state,
		HourlyRate:        rec.HourlyRate,
		StartedAt:         rec.StartedAt,
		ExternalSessionID: rec.ActiveSession,
		LastUpdate:        rec.LastUpdateTime,
	}
	if err := e.Validate(); err != nil {
		return timer.Entry{}, err
	}

	if state == timer.StateRunning {
		e.ElapsedSeconds += Drift(rec.LastUpdateTime, now)
		e.LastUpdate = now
	}
	e.SessionEarnings = timer.Earnings(e.ElapsedSeconds, e.HourlyRate)
	return e, nil
}

// Drift returns the whole seconds between last and now, or zero when the
// clock went backwards.
func Drift(last, now time.Time) int64 {
	d := int64(math.Floor(now.Sub(last).Seconds()))
	if d < 0 {
		return 0
	}
	return d
}

// Restore loads the snapshot into the source and returns how many timers
// were restored. Running timers resume ticking.
func (p *TimerPersistence) Restore(ctx context.Context) (int, error) {
	entries, err := p.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	n := p.source.Restore(ctx, entries)
	p.logger.Info("timers restored from snapshot", "count", n)
	return n, nil
}

// Clear removes the snapshot.
func (p *TimerPersistence) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.kv.Remove(ctx, p.key); err != nil {
		return fmt.Errorf("failed to clear timer snapshot: %w", err)
	}
	return nil
}

// HandleEvent saves on every registry state change.
func (p *TimerPersistence) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Source != events.SourceTimer {
		return nil
	}
	if err := p.Save(ctx); err != nil {
		p.logger.Error("failed to save timers after state change",
			"event_type", event.Type, "task_id", event.TaskID, "error", err)
		return err
	}
	return nil
}
