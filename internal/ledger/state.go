package ledger

import (
	"time"

	"github.com/phrazzld/tempo/internal/domain"
)

// WeeklyStats accumulates activity until ResetWeeklyStats is called.
type WeeklyStats struct {
	EnergySpent    float64 `json:"energy_spent"`
	EnergyGained   float64 `json:"energy_gained"`
	TasksCompleted int     `json:"tasks_completed"`
	FocusMinutes   float64 `json:"focus_minutes"`
}

// State is a snapshot of the ledger. Values returned by Ledger.State are
// copies; changing them does not affect the ledger.
type State struct {
	CurrentEnergy       float64                    `json:"current_energy"`
	MaxEnergy           float64                    `json:"max_energy"`
	DailyExpenditure    float64                    `json:"daily_expenditure"`
	WeeklyStats         WeeklyStats                `json:"weekly_stats"`
	StreakDays          int                        `json:"streak_days"`
	TotalTasksCompleted int                        `json:"total_tasks_completed"`
	LastUpdated         time.Time                  `json:"last_updated"`
	LastCompletionDay   string                     `json:"last_completion_day,omitempty"`
	Transactions        []domain.EnergyTransaction `json:"transactions"`
}

func (s State) clone() State {
	out := s
	out.Transactions = append([]domain.EnergyTransaction(nil), s.Transactions...)
	return out
}

// LimitLevel classifies today's expenditure against the configured limits.
type LimitLevel string

// Limit levels
const (
	LimitOK   LimitLevel = "ok"
	LimitSoft LimitLevel = "soft"
	LimitHard LimitLevel = "hard"
)

// Limits reports today's expenditure against the soft and hard thresholds.
// A threshold is crossed only when expenditure is strictly greater.
type Limits struct {
	Level            LimitLevel `json:"level"`
	DailyExpenditure float64    `json:"daily_expenditure"`
	SoftLimit        float64    `json:"soft_limit"`
	HardLimit        float64    `json:"hard_limit"`
}

// SoftExceeded reports whether the soft limit (or the hard one) is crossed.
func (l Limits) SoftExceeded() bool {
	return l.Level == LimitSoft || l.Level == LimitHard
}

// HardExceeded reports whether the hard limit is crossed.
func (l Limits) HardExceeded() bool {
	return l.Level == LimitHard
}

// Result describes the outcome of a single Apply.
type Result struct {
	Transaction domain.EnergyTransaction `json:"transaction"`
	Energy      float64                  `json:"current_energy"`
	MaxEnergy   float64                  `json:"max_energy"`
	Clamped     bool                     `json:"clamped"`
	Limits      Limits                   `json:"limits"`
}
