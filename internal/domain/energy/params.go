package energy

import (
	"github.com/phrazzld/tempo/internal/domain"
)

// Params defines all configurable parameters for energy impact calculation
type Params struct {
	// Per-priority multipliers applied to every base amount
	PriorityWeights map[domain.Priority]float64

	// Base amounts before weighting
	BaseStartCost        float64
	BaseMoveCost         float64
	BaseCompletionReward float64

	// Reward per completed focus increment
	FocusSessionReward    float64
	FocusIncrementMinutes int

	// Move scaling by direction
	ForwardMoveFactor  float64
	BackwardMoveFactor float64

	// Workflow columns in board order; the last one is "done"
	Columns []domain.Column
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	LowWeight    float64
	MediumWeight float64
	HighWeight   float64

	BaseStartCost        float64
	BaseMoveCost         float64
	BaseCompletionReward float64

	// FocusSessionReward is a pointer because zero is a valid setting that
	// turns focus rewards off; nil keeps the default.
	FocusSessionReward    *float64
	FocusIncrementMinutes int

	ForwardMoveFactor  float64
	BackwardMoveFactor float64

	Columns []domain.Column
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		PriorityWeights: map[domain.Priority]float64{
			domain.PriorityLow:    1.0,
			domain.PriorityMedium: 1.5,
			domain.PriorityHigh:   2.0,
		},

		BaseStartCost:        10,
		BaseMoveCost:         5,
		BaseCompletionReward: 15,

		FocusSessionReward:    5,
		FocusIncrementMinutes: 25,

		ForwardMoveFactor:  0.5,
		BackwardMoveFactor: 1.5,

		Columns: []domain.Column{
			domain.ColumnTodo,
			domain.ColumnInProgress,
			domain.ColumnReview,
			domain.ColumnDone,
		},
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values keep the defaults, except for FocusSessionReward.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.LowWeight > 0 {
		params.PriorityWeights[domain.PriorityLow] = config.LowWeight
	}
	if config.MediumWeight > 0 {
		params.PriorityWeights[domain.PriorityMedium] = config.MediumWeight
	}
	if config.HighWeight > 0 {
		params.PriorityWeights[domain.PriorityHigh] = config.HighWeight
	}

	if config.BaseStartCost > 0 {
		params.BaseStartCost = config.BaseStartCost
	}
	if config.BaseMoveCost > 0 {
		params.BaseMoveCost = config.BaseMoveCost
	}
	if config.BaseCompletionReward > 0 {
		params.BaseCompletionReward = config.BaseCompletionReward
	}
	if config.FocusSessionReward != nil && *config.FocusSessionReward >= 0 {
		params.FocusSessionReward = *config.FocusSessionReward
	}
	if config.FocusIncrementMinutes > 0 {
		params.FocusIncrementMinutes = config.FocusIncrementMinutes
	}

	if config.ForwardMoveFactor > 0 {
		params.ForwardMoveFactor = config.ForwardMoveFactor
	}
	if config.BackwardMoveFactor > 0 {
		params.BackwardMoveFactor = config.BackwardMoveFactor
	}

	if len(config.Columns) > 1 {
		params.Columns = append([]domain.Column(nil), config.Columns...)
	}

	return params
}

// weight returns the multiplier for a priority, falling back to the medium weight.
func (p *Params) weight(priority domain.Priority) float64 {
	if w, ok := p.PriorityWeights[priority]; ok {
		return w
	}
	return p.PriorityWeights[domain.PriorityMedium]
}

// columnIndex returns the board position of a column, or -1 when unknown.
func (p *Params) columnIndex(c domain.Column) int {
	for i, col := range p.Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// FinalColumn returns the last workflow column.
func (p *Params) FinalColumn() domain.Column {
	if len(p.Columns) == 0 {
		return domain.ColumnDone
	}
	return p.Columns[len(p.Columns)-1]
}
