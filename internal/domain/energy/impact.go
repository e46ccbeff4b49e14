// Package energy implements the pure energy impact calculations: how much
// mental energy starting, moving or completing a task costs or returns, and
// how focus sessions are rewarded. Nothing in this package holds state.
package energy

import (
	"fmt"
	"math"

	"github.com/phrazzld/tempo/internal/domain"
)

// Operation identifies the task action an impact is computed for.
type Operation string

// Supported operations
const (
	OperationStart    Operation = "start"
	OperationMove     Operation = "move"
	OperationComplete Operation = "complete"
	OperationFocus    Operation = "focus"
)

// IsValid reports whether op is a supported operation.
func (op Operation) IsValid() bool {
	switch op {
	case OperationStart, OperationMove, OperationComplete, OperationFocus:
		return true
	default:
		return false
	}
}

// TransactionType maps the operation onto the ledger transaction type.
func (op Operation) TransactionType() domain.TransactionType {
	switch op {
	case OperationStart:
		return domain.TransactionTaskStart
	case OperationMove:
		return domain.TransactionTaskMove
	case OperationComplete:
		return domain.TransactionTaskComplete
	case OperationFocus:
		return domain.TransactionFocusSession
	default:
		return domain.TransactionManualAdjust
	}
}

// Impact is a signed energy delta together with a human-readable explanation.
type Impact struct {
	Delta       float64 `json:"delta"`
	Explanation string  `json:"explanation"`
}

// CalculateTaskStartCost returns the (negative) energy cost of starting work on a task.
func CalculateTaskStartCost(task domain.Task, params *Params) Impact {
	priority := task.EffectivePriority()
	cost := params.BaseStartCost * params.weight(priority)

	return Impact{
		Delta:       -cost,
		Explanation: fmt.Sprintf("starting a %s priority task costs %.1f energy", priority, cost),
	}
}

// CalculateColumnMoveImpact returns the energy delta for moving a task between
// workflow columns.
//
// Forward moves cost less than the base move cost and a forward move into the
// final column returns a small reward. Backward moves cost more than base.
// Moves involving a column outside the configured workflow are charged the
// plain base cost. Moving within the same column is free.
func CalculateColumnMoveImpact(
	task domain.Task,
	from, to domain.Column,
	params *Params,
) Impact {
	if from == to {
		return Impact{Delta: 0, Explanation: "task stays in the same column"}
	}

	priority := task.EffectivePriority()
	base := params.BaseMoveCost * params.weight(priority)

	fromIdx := params.columnIndex(from)
	toIdx := params.columnIndex(to)

	if fromIdx < 0 || toIdx < 0 {
		return Impact{
			Delta: -base,
			Explanation: fmt.Sprintf(
				"moving a %s priority task from %s to %s costs %.1f energy",
				priority, from, to, base,
			),
		}
	}

	if toIdx > fromIdx {
		amount := base * params.ForwardMoveFactor
		if to == params.FinalColumn() {
			return Impact{
				Delta: amount,
				Explanation: fmt.Sprintf(
					"finishing the workflow for a %s priority task returns %.1f energy",
					priority, amount,
				),
			}
		}
		return Impact{
			Delta: -amount,
			Explanation: fmt.Sprintf(
				"forward progress from %s to %s costs %.1f energy",
				from, to, amount,
			),
		}
	}

	amount := base * params.BackwardMoveFactor
	return Impact{
		Delta: -amount,
		Explanation: fmt.Sprintf(
			"moving a %s priority task back from %s to %s costs %.1f energy",
			priority, from, to, amount,
		),
	}
}

// CalculateTaskCompletionReward returns the (positive) energy reward for completing a task.
func CalculateTaskCompletionReward(task domain.Task, params *Params) Impact {
	priority := task.EffectivePriority()
	reward := params.BaseCompletionReward * params.weight(priority)

	return Impact{
		Delta:       reward,
		Explanation: fmt.Sprintf("completing a %s priority task returns %.1f energy", priority, reward),
	}
}

// CalculateFocusSessionReward rewards each completed focus increment
// (25 minutes by default). Partial increments earn nothing.
func CalculateFocusSessionReward(durationMinutes float64, params *Params) Impact {
	increment := params.FocusIncrementMinutes
	if increment <= 0 {
		increment = 25
	}
	if durationMinutes < 0 || math.IsNaN(durationMinutes) {
		durationMinutes = 0
	}

	blocks := math.Floor(durationMinutes / float64(increment))
	reward := params.FocusSessionReward * blocks

	return Impact{
		Delta: reward,
		Explanation: fmt.Sprintf(
			"%.0f completed %d-minute focus block(s) return %.1f energy",
			blocks, increment, reward,
		),
	}
}

// SummaryRequest describes a hypothetical operation to preview.
type SummaryRequest struct {
	Task            domain.Task
	Operation       Operation
	FromColumn      domain.Column
	ToColumn        domain.Column
	DurationMinutes float64
	CurrentEnergy   float64
	MaxEnergy       float64
}

// Summary is a preview of what an operation would do to the energy balance.
type Summary struct {
	Operation       Operation `json:"operation"`
	TaskID          string    `json:"task_id"`
	Delta           float64   `json:"delta"`
	CurrentEnergy   float64   `json:"current_energy"`
	ProjectedEnergy float64   `json:"projected_energy"`
	Affordable      bool      `json:"affordable"`
	Explanation     string    `json:"explanation"`
	Message         string    `json:"message"`
}

// GenerateEnergyImpactSummary previews an operation before the user commits to it.
// The projected energy is clamped to [0, MaxEnergy]; an operation is affordable
// when its cost does not exceed the current balance.
func GenerateEnergyImpactSummary(req SummaryRequest, params *Params) Summary {
	var impact Impact
	switch req.Operation {
	case OperationStart:
		impact = CalculateTaskStartCost(req.Task, params)
	case OperationMove:
		impact = CalculateColumnMoveImpact(req.Task, req.FromColumn, req.ToColumn, params)
	case OperationComplete:
		impact = CalculateTaskCompletionReward(req.Task, params)
	case OperationFocus:
		impact = CalculateFocusSessionReward(req.DurationMinutes, params)
	default:
		impact = Impact{Explanation: fmt.Sprintf("unknown operation %q has no energy impact", req.Operation)}
	}

	projected := Clamp(req.CurrentEnergy+impact.Delta, 0, req.MaxEnergy)
	affordable := impact.Delta >= 0 || -impact.Delta <= req.CurrentEnergy

	title := req.Task.Title
	if title == "" {
		title = req.Task.ID
	}

	var message string
	switch {
	case impact.Delta == 0:
		message = fmt.Sprintf("%s %q leaves energy at %.1f/%.1f", req.Operation, title, req.CurrentEnergy, req.MaxEnergy)
	case impact.Delta > 0:
		message = fmt.Sprintf("%s %q restores %.1f energy (%.1f -> %.1f of %.1f)",
			req.Operation, title, impact.Delta, req.CurrentEnergy, projected, req.MaxEnergy)
	case affordable:
		message = fmt.Sprintf("%s %q uses %.1f energy (%.1f -> %.1f of %.1f)",
			req.Operation, title, -impact.Delta, req.CurrentEnergy, projected, req.MaxEnergy)
	default:
		message = fmt.Sprintf("%s %q needs %.1f energy but only %.1f remains",
			req.Operation, title, -impact.Delta, req.CurrentEnergy)
	}

	return Summary{
		Operation:       req.Operation,
		TaskID:          req.Task.ID,
		Delta:           impact.Delta,
		CurrentEnergy:   req.CurrentEnergy,
		ProjectedEnergy: projected,
		Affordable:      affordable,
		Explanation:     impact.Explanation,
		Message:         message,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
