package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unrelated", err: errors.New("disk full"), want: false},
		{name: "sentinel", err: ErrNotFound, want: true},
		{name: "wrapped", err: fmt.Errorf("load timers: %w", ErrNotFound), want: true},
		{name: "session not found", err: ErrSessionNotFound, want: true},
		{name: "inside store error", err: NewStoreError("session", "get", "no row", ErrSessionNotFound), want: true},
		{name: "already ended", err: ErrSessionAlreadyEnded, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNotFoundError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	bare := NewStoreError("kv", "set", "empty key", nil)
	assert.Equal(t, "kv set: empty key", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))

	cause := errors.New("disk I/O error")
	err := fmt.Errorf("save ledger: %w", NewStoreError("kv", "get", "query failed", cause))
	assert.Equal(t, "save ledger: kv get: query failed: disk I/O error", err.Error())
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	if assert.ErrorAs(t, err, &storeErr) {
		assert.Equal(t, "kv", storeErr.Entity)
		assert.Equal(t, "get", storeErr.Operation)
	}

	assert.ErrorIs(t, ErrSessionAlreadyEnded, ErrUpdateFailed)
	assert.NotErrorIs(t, ErrSessionAlreadyEnded, ErrNotFound)
}
