package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmitter() *InMemoryEventEmitter {
	return NewInMemoryEventEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmitEvent_NoHandlers(t *testing.T) {
	t.Parallel()

	emitter := newEmitter()
	event, err := NewEvent(SourceTimer, "timer.started", "t", map[string]string{"state": "running"})
	require.NoError(t, err)

	assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	assert.Zero(t, emitter.HandlerCount())
}

func TestEmitEvent_DeliversInOrder(t *testing.T) {
	t.Parallel()

	emitter := newEmitter()
	var order []string
	for _, name := range []string{"persistence", "metrics"} {
		name := name
		emitter.RegisterHandler(HandlerFunc(func(ctx context.Context, event *Event) error {
			order = append(order, name+":"+event.Type)
			return nil
		}))
	}

	event, err := NewEvent(SourceLedger, "energy.applied", "", nil)
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), event))
	assert.Equal(t, []string{"persistence:energy.applied", "metrics:energy.applied"}, order)
	assert.Equal(t, 2, emitter.HandlerCount())
}

func TestEmitEvent_FailuresDoNotStopDelivery(t *testing.T) {
	t.Parallel()

	emitter := newEmitter()
	saveErr := errors.New("kv write failed")

	failing := &MockEventHandler{HandlerError: saveErr}
	panicking := HandlerFunc(func(context.Context, *Event) error { panic("nil map") })
	last := &MockEventHandler{}

	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(panicking)
	emitter.RegisterHandler(last)

	event, err := NewEvent(SourceTimer, "timer.stopped", "t", nil)
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	assert.ErrorIs(t, err, saveErr)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "nil map")

	assert.Equal(t, 1, failing.HandledCount)
	assert.Equal(t, 1, last.HandledCount)
	assert.Same(t, event, last.LastEvent)
}

func TestNewInMemoryEventEmitter_NilLogger(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, NewInMemoryEventEmitter(nil).logger)
}
