package api

import (
	"net/http"
	"testing"

	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/energy"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/recommend"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyHandler_Status(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/energy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[service.Status](t, w)
	assert.InDelta(t, 100.0, status.State.CurrentEnergy, 1e-9)
	assert.InDelta(t, 100.0, status.State.MaxEnergy, 1e-9)
	assert.Equal(t, ledger.LimitOK, status.Limits.Level)
}

func TestEnergyHandler_MoveCompleteAdjust(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/energy/move", map[string]interface{}{
		"task": taskBody("a", "high"), "from": "todo", "to": "in_progress",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[ledger.Result](t, w)
	assert.InDelta(t, -5.0, moved.Transaction.AppliedDelta, 1e-9)
	assert.Equal(t, domain.ColumnInProgress, moved.Transaction.Metadata.ToColumn)
	assert.InDelta(t, 95.0, moved.Energy, 1e-9)

	w = env.do(t, http.MethodPost, "/api/energy/move", map[string]interface{}{
		"task": taskBody("a", "high"), "from": "review", "to": "review",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Task is already in that column", decode[shared.ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodPost, "/api/energy/complete", map[string]interface{}{"task": taskBody("a", "high")})
	require.Equal(t, http.StatusOK, w.Code)
	completed := decode[service.CompleteResult](t, w)
	assert.Nil(t, completed.Stopped)
	assert.InDelta(t, 5.0, completed.Completion.Transaction.AppliedDelta, 1e-9)
	assert.True(t, completed.Completion.Clamped)
	assert.InDelta(t, 100.0, completed.Completion.Energy, 1e-9)

	w = env.do(t, http.MethodPost, "/api/energy/adjust", map[string]interface{}{"delta": -40, "note": "long meeting"})
	require.Equal(t, http.StatusOK, w.Code)
	adjusted := decode[ledger.Result](t, w)
	assert.InDelta(t, 60.0, adjusted.Energy, 1e-9)
	assert.Equal(t, "long meeting", adjusted.Transaction.Metadata.Note)

	w = env.do(t, http.MethodPost, "/api/energy/adjust", map[string]interface{}{"note": "no delta"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid delta: required field", decode[shared.ErrorResponse](t, w).Error)

	assert.Equal(t, 1, env.ledger.State().TotalTasksCompleted)
}

func TestEnergyHandler_CompleteStopsLiveTimer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/timers/start", map[string]interface{}{"task": taskBody("a", "low")}).Code)

	w := env.do(t, http.MethodPost, "/api/energy/complete", map[string]interface{}{"task": taskBody("a", "low")})
	require.Equal(t, http.StatusOK, w.Code)
	completed := decode[service.CompleteResult](t, w)
	require.NotNil(t, completed.Stopped)
	assert.Equal(t, "a", completed.Stopped.Entry.TaskID)

	entry, ok := env.registry.Get("a")
	require.True(t, ok)
	assert.False(t, entry.State.IsLive())
}

func TestEnergyHandler_Preview(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantDelta  float64
	}{
		{
			name:       "start",
			body:       map[string]interface{}{"operation": "start", "task": taskBody("a", "high")},
			wantStatus: http.StatusOK,
			wantDelta:  -20,
		},
		{
			name:       "focus",
			body:       map[string]interface{}{"operation": "focus", "duration_minutes": 50},
			wantStatus: http.StatusOK,
			wantDelta:  10,
		},
		{
			name:       "unknown operation",
			body:       map[string]interface{}{"operation": "dance", "task": taskBody("a", "high")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "start without task",
			body:       map[string]interface{}{"operation": "start"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative duration",
			body:       map[string]interface{}{"operation": "focus", "duration_minutes": -1},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := env.do(t, http.MethodPost, "/api/energy/preview", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			summary := decode[energy.Summary](t, w)
			assert.InDelta(t, tt.wantDelta, summary.Delta, 1e-9)
			assert.True(t, summary.Affordable)
		})
	}
}

func TestEnergyHandler_PreviewDoesNotApply(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/energy/preview", map[string]interface{}{
		"operation": "start", "task": taskBody("a", "high"),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 80.0, decode[energy.Summary](t, w).ProjectedEnergy, 1e-9)
	assert.InDelta(t, 100.0, env.ledger.State().CurrentEnergy, 1e-9)
	assert.Empty(t, env.ledger.State().Transactions)
}

func TestEnergyHandler_Limits(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/energy/adjust", map[string]interface{}{"delta": -60}).Code)

	w := env.do(t, http.MethodGet, "/api/energy/limits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	limits := decode[LimitsResponse](t, w)
	assert.Equal(t, ledger.LimitSoft, limits.Level)
	assert.InDelta(t, 60.0, limits.DailyExpenditure, 1e-9)
	assert.True(t, limits.SoftExceeded)
	assert.False(t, limits.HardExceeded)
}

func TestEnergyHandler_WeeklyReset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/energy/adjust", map[string]interface{}{"delta": -15}).Code)

	w := env.do(t, http.MethodPost, "/api/energy/weekly-reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 15.0, decode[WeeklyResetResponse](t, w).Previous.EnergySpent, 1e-9)
	assert.Zero(t, env.ledger.State().WeeklyStats.EnergySpent)
}

func TestEnergyHandler_Recommend(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/api/energy/adjust", map[string]interface{}{"delta": -85}).Code)

	w := env.do(t, http.MethodPost, "/api/recommendations", map[string]interface{}{
		"tasks": []interface{}{taskBody("a", "low"), taskBody("b", "high")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[recommend.Recommendation](t, w)
	assert.True(t, rec.Blocked, "85 spent crosses the hard limit of 80")
	assert.Empty(t, rec.Affordable)
	assert.Len(t, rec.ExceedsCapacity, 2)

	w = env.do(t, http.MethodPost, "/api/recommendations", map[string]interface{}{
		"tasks": []interface{}{map[string]string{"title": "no id"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
