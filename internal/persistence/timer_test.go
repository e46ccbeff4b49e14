package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/phrazzld/tempo/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timerKey = "timer_state"

func newRegistry(t *testing.T, now time.Time) *timer.Registry {
	t.Helper()
	cfg := timer.DefaultConfig()
	cfg.TickInterval = time.Hour
	r := timer.New(cfg, testLogger(), timer.WithClock(func() time.Time { return now }))
	t.Cleanup(r.Close)
	return r
}

func hourlyTask(id string, hourly float64) domain.Task {
	return domain.Task{
		ID:       id,
		Title:    "Task " + id,
		Priority: domain.PriorityHigh,
		Category: &domain.Category{ID: "consulting", HourlyRate: &hourly},
	}
}

func TestDrift(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gap  time.Duration
		want int64
	}{
		{"whole seconds", 10 * time.Second, 10},
		{"fraction floored", 2900 * time.Millisecond, 2},
		{"no gap", 0, 0},
		{"clock went backwards", -5 * time.Second, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Drift(testNow, testNow.Add(tt.gap)))
		})
	}
}

func TestTimerPersistence_RoundTripAppliesDriftToRunningOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKV()

	reg := newRegistry(t, testNow)
	saver := NewTimerPersistence(kv, timerKey, reg, testLogger())
	saver.SetClock(func() time.Time { return testNow })

	_, err := reg.Start(ctx, hourlyTask("run", 3600))
	require.NoError(t, err)
	_, err = reg.Start(ctx, hourlyTask("hold", 3600))
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		reg.Tick(testNow)
	}
	_, ok := reg.Pause(ctx, "hold")
	require.True(t, ok)
	require.NoError(t, saver.Save(ctx))

	later := testNow.Add(10 * time.Second)
	restored := newRegistry(t, later)
	loader := NewTimerPersistence(kv, timerKey, restored, testLogger())
	loader.SetClock(func() time.Time { return later })

	n, err := loader.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	running, ok := restored.Get("run")
	require.True(t, ok)
	assert.Equal(t, timer.StateRunning, running.State)
	assert.Equal(t, int64(40), running.ElapsedSeconds)
	assert.InDelta(t, 40.0, running.SessionEarnings, 1e-9)
	assert.Equal(t, "consulting", running.Task.Category.ID)

	paused, ok := restored.Get("hold")
	require.True(t, ok)
	assert.Equal(t, timer.StatePaused, paused.State)
	assert.Equal(t, int64(30), paused.ElapsedSeconds)

	assert.True(t, restored.Ticking())
}

func TestTimerPersistence_SaveWithoutLiveTimersRemovesKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	reg := newRegistry(t, testNow)
	p := NewTimerPersistence(kv, timerKey, reg, testLogger())

	_, err := reg.Start(ctx, hourlyTask("a", 60))
	require.NoError(t, err)
	require.NoError(t, p.Save(ctx))
	_, ok, err := kv.Get(ctx, timerKey)
	require.NoError(t, err)
	require.True(t, ok)

	_, stopped := reg.Stop(ctx, "a")
	require.True(t, stopped)
	require.NoError(t, p.Save(ctx))

	_, ok, err = kv.Get(ctx, timerKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimerPersistence_MalformedSnapshotIsDiscarded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"wrong version", `{"version": 99, "timers": []}`},
		{"stopped state", `{"version": 1, "timers": [{"task": {"id": "a"}, "state": "stopped", "last_update_time": "2026-05-04T10:00:00Z"}]}`},
		{"missing last update", `{"version": 1, "timers": [{"task": {"id": "a"}, "state": "running"}]}`},
		{"missing task id", `{"version": 1, "timers": [{"task": {}, "state": "running", "last_update_time": "2026-05-04T10:00:00Z"}]}`},
		{"duplicate task", `{"version": 1, "timers": [
			{"task": {"id": "a"}, "state": "paused", "last_update_time": "2026-05-04T10:00:00Z"},
			{"task": {"id": "a"}, "state": "paused", "last_update_time": "2026-05-04T10:00:00Z"}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			kv := store.NewMemoryKV()
			require.NoError(t, kv.Set(ctx, timerKey, tt.raw))

			reg := newRegistry(t, testNow)
			p := NewTimerPersistence(kv, timerKey, reg, testLogger())

			entries, err := p.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)

			_, ok, err := kv.Get(ctx, timerKey)
			require.NoError(t, err)
			assert.False(t, ok, "malformed snapshot should be removed")
		})
	}
}

func TestTimerPersistence_LegacyFlagsWithoutState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	raw := `{"version": 1, "timers": [
		{"task": {"id": "a"}, "elapsed_seconds": 5, "is_running": true, "hourly_rate": 3600, "last_update_time": "2026-05-04T10:00:00Z"},
		{"task": {"id": "b"}, "elapsed_seconds": 7, "is_paused": true, "last_update_time": "2026-05-04T10:00:00Z"}]}`
	require.NoError(t, kv.Set(ctx, timerKey, raw))

	reg := newRegistry(t, testNow)
	p := NewTimerPersistence(kv, timerKey, reg, testLogger())
	p.SetClock(func() time.Time { return testNow.Add(3 * time.Second) })

	entries, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, timer.StateRunning, entries[0].State)
	assert.Equal(t, int64(8), entries[0].ElapsedSeconds)
	assert.InDelta(t, 8.0, entries[0].SessionEarnings, 1e-9)
	assert.Equal(t, timer.StatePaused, entries[1].State)
	assert.Equal(t, int64(7), entries[1].ElapsedSeconds)
}

func TestTimerPersistence_StoreErrorsAreReturned(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := newRegistry(t, testNow)
	p := NewTimerPersistence(failingKV{}, timerKey, reg, testLogger())

	_, err := p.Load(ctx)
	assert.ErrorIs(t, err, errBroken)

	_, err = p.Restore(ctx)
	assert.ErrorIs(t, err, errBroken)

	assert.ErrorIs(t, p.Save(ctx), errBroken)
	assert.ErrorIs(t, p.Clear(ctx), errBroken)
}

func TestTimerPersistence_SavesOnRegistryEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	reg := newRegistry(t, testNow)
	p := NewTimerPersistence(kv, timerKey, reg, testLogger())
	reg.Subscribe(p)

	_, err := reg.Start(ctx, hourlyTask("a", 60))
	require.NoError(t, err)

	raw, ok, err := kv.Get(ctx, timerKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"state":"running"`)

	_, ok = reg.Pause(ctx, "a")
	require.True(t, ok)
	raw, _, err = kv.Get(ctx, timerKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"is_paused":true`)

	_, ok = reg.Reset(ctx, "a")
	require.True(t, ok)
	_, ok, err = kv.Get(ctx, timerKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimerPersistence_SingleTimer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemoryKV()

	cfg := timer.DefaultConfig()
	cfg.TickInterval = time.Hour
	clock := timer.WithClock(func() time.Time { return testNow })

	single, err := timer.NewSingle(hourlyTask("solo", 120), cfg, testLogger(), clock)
	require.NoError(t, err)
	t.Cleanup(single.Close)
	p := NewTimerPersistence(kv, timerKey, single, testLogger())
	p.SetClock(func() time.Time { return testNow })
	single.Subscribe(p)

	_, err = single.Start(ctx)
	require.NoError(t, err)
	single.Tick()
	single.Tick()
	require.NoError(t, p.Save(ctx))

	again, err := timer.NewSingle(hourlyTask("solo", 120), cfg, testLogger(), clock)
	require.NoError(t, err)
	t.Cleanup(again.Close)
	loader := NewTimerPersistence(kv, timerKey, again, testLogger())
	loader.SetClock(func() time.Time { return testNow.Add(58 * time.Second) })

	n, err := loader.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(60), again.Entry().ElapsedSeconds)
	assert.InDelta(t, 2.0, again.Entry().SessionEarnings, 1e-9)
}

func TestTimerPersistence_IgnoresOtherSources(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t, testNow)
	p := NewTimerPersistence(failingKV{}, timerKey, reg, testLogger())

	err := p.HandleEvent(context.Background(), ledgerEvent(t))
	assert.NoError(t, err)
}
