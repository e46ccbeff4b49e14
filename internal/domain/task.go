package domain

import (
	"fmt"
	"time"
)

// Priority ranks how important a task is. It drives energy weights and
// recommendation ordering.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns a sortable weight for the priority; higher means more important.
// Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Column is a workflow column on the kanban board.
type Column string

// Default workflow columns, in board order.
const (
	ColumnTodo       Column = "todo"
	ColumnInProgress Column = "in_progress"
	ColumnReview     Column = "review"
	ColumnDone       Column = "done"
)

// Category groups tasks and optionally carries the hourly rate used for
// earnings. A nil HourlyRate means the rate must be looked up elsewhere.
type Category struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
}

// Task is the subset of a kanban task record the engine needs. Tasks are
// owned by the external task store; the engine only reads them.
type Task struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Priority   Priority   `json:"priority"`
	Column     Column     `json:"column,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`
	Category   *Category  `json:"category,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// Validate checks the fields the engine relies on.
func (t Task) Validate() error {
	if t.ID == "" {
		return ErrInvalidTaskID
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.Category != nil && t.Category.HourlyRate != nil && *t.Category.HourlyRate < 0 {
		return ErrNegativeRate
	}
	return nil
}

// EffectivePriority returns the task priority, treating an unset priority as medium.
func (t Task) EffectivePriority() Priority {
	if t.Priority == "" {
		return PriorityMedium
	}
	return t.Priority
}

// EmbeddedRate returns the hourly rate carried by the task's category, if any.
func (t Task) EmbeddedRate() (float64, bool) {
	if t.Category == nil || t.Category.HourlyRate == nil {
		return 0, false
	}
	return *t.Category.HourlyRate, true
}

// CategoryKey returns the category identifier to use for a rate lookup.
func (t Task) CategoryKey() string {
	if t.CategoryID != "" {
		return t.CategoryID
	}
	if t.Category != nil {
		return t.Category.ID
	}
	return ""
}
