package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopJob() Job {
	return NewFuncJob("noop", func(ctx context.Context) error { return nil })
}

func TestQueue_Enqueue(t *testing.T) {
	q := NewQueue(2, setupTestLogger())

	require.NoError(t, q.Enqueue(noopJob()))
	require.NoError(t, q.Enqueue(noopJob()))
	assert.Equal(t, 2, q.Len())

	err := q.Enqueue(noopJob())
	assert.True(t, errors.Is(err, ErrQueueFull), "got %v", err)
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(2, setupTestLogger())
	j := noopJob()
	require.NoError(t, q.Enqueue(j))

	q.Close()
	q.Close() // closing twice is harmless

	assert.ErrorIs(t, q.Enqueue(noopJob()), ErrQueueClosed)

	// Jobs queued before Close are still delivered
	got, ok := <-q.GetChannel()
	assert.True(t, ok)
	assert.Equal(t, j.ID(), got.ID())

	_, ok = <-q.GetChannel()
	assert.False(t, ok)
}

func TestNewQueue_MinimumSize(t *testing.T) {
	q := NewQueue(0, setupTestLogger())
	assert.Equal(t, 1, cap(q.GetChannel()))
}
