package energy

import (
	"testing"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultParams(t *testing.T) {
	params := NewDefaultParams()

	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh} {
		_, ok := params.PriorityWeights[p]
		assert.True(t, ok, "missing weight for %s", p)
	}

	assert.Less(t, params.PriorityWeights[domain.PriorityLow], params.PriorityWeights[domain.PriorityHigh])
	assert.Less(t, params.ForwardMoveFactor, params.BackwardMoveFactor)
	assert.Equal(t, domain.ColumnDone, params.FinalColumn())
}

func reward(v float64) *float64 {
	return &v
}

func TestNewParams(t *testing.T) {
	params := NewParams(ParamsConfig{
		HighWeight:           3,
		BaseCompletionReward: 40,
		FocusSessionReward:   reward(8),
		Columns:              []domain.Column{"backlog", "doing", "shipped"},
	})

	assert.Equal(t, 3.0, params.PriorityWeights[domain.PriorityHigh])
	assert.Equal(t, 1.0, params.PriorityWeights[domain.PriorityLow], "zero values keep defaults")
	assert.Equal(t, 40.0, params.BaseCompletionReward)
	assert.Equal(t, 8.0, params.FocusSessionReward)
	assert.Equal(t, domain.Column("shipped"), params.FinalColumn())

	// Each call gets an independent weight table
	other := NewDefaultParams()
	assert.Equal(t, 2.0, other.PriorityWeights[domain.PriorityHigh])
}

func TestNewParams_FocusSessionReward(t *testing.T) {
	tests := []struct {
		name   string
		reward *float64
		expect float64
	}{
		{"unset keeps default", nil, 5},
		{"zero disables the reward", reward(0), 0},
		{"negative is ignored", reward(-2), 5},
		{"positive overrides", reward(7), 7},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			params := NewParams(ParamsConfig{FocusSessionReward: tt.reward})
			assert.Equal(t, tt.expect, params.FocusSessionReward)
			assert.InDelta(t, 2*tt.expect, CalculateFocusSessionReward(50, params).Delta, 1e-9)
		})
	}
}

func TestCalculator(t *testing.T) {
	calc := NewCalculatorWithParams(nil)
	task := domain.Task{ID: "t", Priority: domain.PriorityLow}

	assert.InDelta(t, -10, calc.StartCost(task).Delta, 1e-9)
	assert.InDelta(t, 15, calc.CompletionReward(task).Delta, 1e-9)
	assert.InDelta(t, 10, calc.FocusReward(50).Delta, 1e-9)
	assert.InDelta(t, -2.5, calc.MoveImpact(task, domain.ColumnTodo, domain.ColumnInProgress).Delta, 1e-9)
	assert.NotNil(t, calc.Params())
}
