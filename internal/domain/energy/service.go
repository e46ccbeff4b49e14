package energy

import (
	"github.com/phrazzld/tempo/internal/domain"
)

// Calculator defines the interface for energy impact calculations.
// Implementations hold only their parameters and never mutate caller state.
type Calculator interface {
	// StartCost returns the energy impact of starting work on a task
	StartCost(task domain.Task) Impact

	// MoveImpact returns the energy impact of moving a task between columns
	MoveImpact(task domain.Task, from, to domain.Column) Impact

	// CompletionReward returns the energy impact of completing a task
	CompletionReward(task domain.Task) Impact

	// FocusReward returns the energy impact of a finished focus session
	FocusReward(durationMinutes float64) Impact

	// Summary previews a hypothetical operation
	Summary(req SummaryRequest) Summary

	// Params exposes the parameters in use
	Params() *Params
}

// defaultCalculator is the standard implementation of the Calculator interface
type defaultCalculator struct {
	params *Params
}

// NewDefaultCalculator creates a new calculator with default parameters
func NewDefaultCalculator() Calculator {
	return &defaultCalculator{
		params: NewDefaultParams(),
	}
}

// NewCalculatorWithParams creates a new calculator with custom parameters
func NewCalculatorWithParams(params *Params) Calculator {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultCalculator{
		params: params,
	}
}

func (c *defaultCalculator) StartCost(task domain.Task) Impact {
	return CalculateTaskStartCost(task, c.params)
}

func (c *defaultCalculator) MoveImpact(task domain.Task, from, to domain.Column) Impact {
	return CalculateColumnMoveImpact(task, from, to, c.params)
}

func (c *defaultCalculator) CompletionReward(task domain.Task) Impact {
	return CalculateTaskCompletionReward(task, c.params)
}

func (c *defaultCalculator) FocusReward(durationMinutes float64) Impact {
	return CalculateFocusSessionReward(durationMinutes, c.params)
}

func (c *defaultCalculator) Summary(req SummaryRequest) Summary {
	return GenerateEnergyImpactSummary(req, c.params)
}

func (c *defaultCalculator) Params() *Params {
	return c.params
}
