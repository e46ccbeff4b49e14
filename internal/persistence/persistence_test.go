package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/tempo/internal/store"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBroken = errors.New("disk on fire")

// failingKV fails every operation.
type failingKV struct{}

var _ store.KVStore = failingKV{}

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (failingKV) Set(context.Context, string, string) error          { return errBroken }
func (failingKV) Remove(context.Context, string) error               { return errBroken }
