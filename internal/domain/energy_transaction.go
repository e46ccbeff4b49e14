package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType records why an energy delta was applied.
type TransactionType string

// Possible transaction types
const (
	TransactionTaskStart    TransactionType = "task_start"
	TransactionTaskMove     TransactionType = "task_move"
	TransactionTaskComplete TransactionType = "task_complete"
	TransactionFocusSession TransactionType = "focus_session"
	TransactionManualAdjust TransactionType = "manual_adjust"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTaskStart,
		TransactionTaskMove,
		TransactionTaskComplete,
		TransactionFocusSession,
		TransactionManualAdjust:
		return true
	default:
		return false
	}
}

// TransactionMetadata carries display and audit details for a transaction.
type TransactionMetadata struct {
	TaskTitle              string   `json:"task_title,omitempty"`
	FromColumn             Column   `json:"from_column,omitempty"`
	ToColumn               Column   `json:"to_column,omitempty"`
	Priority               Priority `json:"priority,omitempty"`
	SessionDurationMinutes float64  `json:"session_duration_minutes,omitempty"`
	Note                   string   `json:"note,omitempty"`
}

// EnergyTransaction is an immutable record of one energy delta and its cause.
// EnergyDelta is what the caller asked for; AppliedDelta is what actually
// changed the balance after clamping.
type EnergyTransaction struct {
	ID           uuid.UUID           `json:"id"`
	TaskID       string              `json:"task_id,omitempty"`
	Type         TransactionType     `json:"type"`
	EnergyDelta  float64             `json:"energy_delta"`
	AppliedDelta float64             `json:"applied_delta"`
	Timestamp    time.Time           `json:"timestamp"`
	Metadata     TransactionMetadata `json:"metadata"`
}

// NewEnergyTransaction creates a transaction for the given task and delta.
// ID and Timestamp are assigned by the ledger when the transaction is applied.
func NewEnergyTransaction(txType TransactionType, task *Task, delta float64) EnergyTransaction {
	tx := EnergyTransaction{
		Type:        txType,
		EnergyDelta: delta,
	}
	if task != nil {
		tx.TaskID = task.ID
		tx.Metadata.TaskTitle = task.Title
		tx.Metadata.Priority = task.EffectivePriority()
	}
	return tx
}
