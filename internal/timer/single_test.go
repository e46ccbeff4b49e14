package timer

import (
	"context"
	"testing"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSingle_RequiresTaskID(t *testing.T) {
	t.Parallel()
	_, err := NewSingle(domain.Task{}, DefaultConfig(), testLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidTaskID)
}

func TestSingle_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewSingle(taskWithRate("solo", 120), Config{TickInterval: 1 << 40}, testLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "solo", s.TaskID())
	assert.Equal(t, StateIdle, s.Entry().State)
	assert.Empty(t, s.Export())
	assert.False(t, s.Tick(), "idle timers do not tick")

	_, err = s.Start(ctx)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		assert.True(t, s.Tick())
	}

	_, ok := s.Pause(ctx)
	require.True(t, ok)
	assert.False(t, s.Tick())
	_, ok = s.Resume(ctx)
	require.True(t, ok)

	e, ok := s.Stop(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(30), e.ElapsedSeconds)
	assert.InDelta(t, 1.0, e.SessionEarnings, 0.0001)

	e, ok = s.Reset(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(0), e.ElapsedSeconds)
}

func TestSingle_RestoreIgnoresOtherTasks(t *testing.T) {
	t.Parallel()
	s, err := NewSingle(domain.Task{ID: "mine"}, DefaultConfig(), testLogger())
	require.NoError(t, err)
	defer s.Close()

	n := s.Restore(context.Background(), []Entry{
		{TaskID: "other", State: StatePaused, ElapsedSeconds: 10},
		{TaskID: "mine", State: StatePaused, ElapsedSeconds: 42},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(42), s.Entry().ElapsedSeconds)
	assert.Len(t, s.Export(), 1)
}
