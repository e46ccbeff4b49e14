package api

import (
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/timer"
)

// CategoryPayload is the category embedded in a task body.
type CategoryPayload struct {
	ID         string   `json:"id"                    validate:"required"`
	Name       string   `json:"name,omitempty"`
	HourlyRate *float64 `json:"hourly_rate,omitempty" validate:"omitempty,gte=0"`
}

// TaskPayload is a task as sent by clients. Tasks are owned by the caller's
// task store; the engine only reads the fields below.
type TaskPayload struct {
	ID         string           `json:"id"                    validate:"required,max=128"`
	Title      string           `json:"title"                 validate:"max=500"`
	Priority   string           `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high"`
	Column     string           `json:"column,omitempty"`
	CategoryID string           `json:"category_id,omitempty"`
	Category   *CategoryPayload `json:"category,omitempty"`
	DueDate    *time.Time       `json:"due_date,omitempty"`
}

// ToDomain converts the payload into a domain task.
func (p TaskPayload) ToDomain() domain.Task {
	task := domain.Task{
		ID:         p.ID,
		Title:      p.Title,
		Priority:   domain.Priority(p.Priority),
		Column:     domain.Column(p.Column),
		CategoryID: p.CategoryID,
		DueDate:    p.DueDate,
	}
	if p.Category != nil {
		task.Category = &domain.Category{
			ID:         p.Category.ID,
			Name:       p.Category.Name,
			HourlyRate: p.Category.HourlyRate,
		}
	}
	return task
}

// StartTimerRequest starts (or resumes) the timer of a task.
type StartTimerRequest struct {
	Task TaskPayload `json:"task"`
}

// MoveTaskRequest charges a column move.
type MoveTaskRequest struct {
	Task TaskPayload `json:"task"`
	From string      `json:"from" validate:"required"`
	To   string      `json:"to"   validate:"required"`
}

// CompleteTaskRequest completes a task.
type CompleteTaskRequest struct {
	Task TaskPayload `json:"task"`
}

// AdjustEnergyRequest manually corrects the balance.
type AdjustEnergyRequest struct {
	Delta  *float64 `json:"delta"             validate:"required"`
	Note   string   `json:"note,omitempty"    validate:"max=500"`
	TaskID string   `json:"task_id,omitempty"`
}

// PreviewRequest asks what an operation would do to the balance.
type PreviewRequest struct {
	Operation       string       `json:"operation"                  validate:"required,oneof=start move complete focus"`
	Task            *TaskPayload `json:"task,omitempty"`
	From            string       `json:"from,omitempty"`
	To              string       `json:"to,omitempty"`
	DurationMinutes float64      `json:"duration_minutes,omitempty" validate:"gte=0"`
}

// RecommendationRequest ranks candidate tasks against the balance.
type RecommendationRequest struct {
	Tasks []TaskPayload `json:"tasks" validate:"dive"`
	Limit int           `json:"limit" validate:"gte=0"`
}

// TimersResponse lists every timer with the registry aggregates.
type TimersResponse struct {
	Timers        []timer.Entry `json:"timers"`
	TotalEarnings float64       `json:"total_earnings"`
	ActiveTimers  int           `json:"active_timers"`
}

// BulkTimersResponse lists the timers changed by a bulk operation.
type BulkTimersResponse struct {
	Timers []timer.Entry `json:"timers"`
	Count  int           `json:"count"`
}

// DeletedResponse reports how many timers were removed.
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// LimitsResponse reports today's expenditure against the limits.
type LimitsResponse struct {
	ledger.Limits
	SoftExceeded bool `json:"soft_exceeded"`
	HardExceeded bool `json:"hard_exceeded"`
}

// WeeklyResetResponse returns the statistics that were cleared.
type WeeklyResetResponse struct {
	Previous ledger.WeeklyStats `json:"previous"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ActiveTimers int    `json:"active_timers"`
	Ticking      bool   `json:"ticking"`
}

// StartSessionRequest opens a session on the reference endpoint.
type StartSessionRequest struct {
	TaskID     string  `json:"task_id"     validate:"required,max=128"`
	UserID     string  `json:"user_id"`
	HourlyRate float64 `json:"hourly_rate" validate:"gte=0"`
}

// StartSessionResponse carries the id of the new session.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
}

// EndSessionRequest closes a session.
type EndSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id"`
	Action    string `json:"action" validate:"omitempty,oneof=stop reset delete complete"`
}

// StatusResponse is a bare acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// RateResponse carries a category's hourly rate; nil means none is known.
type RateResponse struct {
	CategoryID string   `json:"category_id"`
	HourlyRate *float64 `json:"hourly_rate"`
}
