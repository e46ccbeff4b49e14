package timer

import (
	"fmt"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
)

// State is the lifecycle state of a timer entry.
type State string

// Timer states
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateRunning, StatePaused, StateStopped:
		return true
	default:
		return false
	}
}

// IsLive reports whether the entry is mid-run (running or paused).
func (s State) IsLive() bool {
	return s == StateRunning || s == StatePaused
}

// Entry is the timer for one task. Values handed out by the registry are
// snapshots.
type Entry struct {
	TaskID            string      `json:"task_id"`
	Task              domain.Task `json:"task"`
	ElapsedSeconds    int64       `json:"elapsed_seconds"`
	State             State       `json:"state"`
	HourlyRate        float64     `json:"hourly_rate"`
	SessionEarnings   float64     `json:"session_earnings"`
	StartedAt         *time.Time  `json:"started_at,omitempty"`
	EndedAt           *time.Time  `json:"ended_at,omitempty"`
	ExternalSessionID string      `json:"external_session_id,omitempty"`

	// LastUpdate is when elapsed time or state last changed.
	LastUpdate time.Time `json:"last_update"`

	// run identifies the current run so that a session id arriving late can
	// be matched against the run that requested it.
	run uint64
	seq uint64
}

// Validate checks an entry before it is restored into a registry.
func (e Entry) Validate() error {
	if e.TaskID == "" {
		return domain.ErrInvalidTaskID
	}
	if !e.State.IsValid() {
		return fmt.Errorf("%w: unknown timer state %q", domain.ErrValidation, e.State)
	}
	if e.ElapsedSeconds < 0 {
		return fmt.Errorf("%w: negative elapsed seconds", domain.ErrValidation)
	}
	if e.HourlyRate < 0 {
		return domain.ErrNegativeRate
	}
	return nil
}

// Earnings returns the money accrued for elapsed seconds at an hourly rate.
func Earnings(elapsedSeconds int64, hourlyRate float64) float64 {
	return float64(elapsedSeconds) / 3600 * hourlyRate
}

// ElapsedMinutes returns the elapsed time in minutes.
func (e Entry) ElapsedMinutes() float64 {
	return float64(e.ElapsedSeconds) / 60
}

func (e *Entry) recompute() {
	e.SessionEarnings = Earnings(e.ElapsedSeconds, e.HourlyRate)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
