package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

// Buffer collects JSON log lines for test assertions. It is safe for
// concurrent use, so loggers handed to background goroutines can share it.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every line written so far.
func (b *Buffer) Entries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewBufferString(b.String()))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("decode log line %q: %w", line, err)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Find returns the first entry logged with msg.
func (b *Buffer) Find(msg string) (map[string]interface{}, bool) {
	entries, err := b.Entries()
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if e[slog.MessageKey] == msg {
			return e, true
		}
	}
	return nil, false
}

// NewTestLogger returns a debug-level JSON logger writing into a fresh Buffer.
func NewTestLogger(t testing.TB) (*slog.Logger, *Buffer) {
	t.Helper()
	buf := &Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// RequireEntry fails t unless an entry with msg was logged and returns it.
func RequireEntry(t testing.TB, b *Buffer, msg string) map[string]interface{} {
	t.Helper()
	entry, ok := b.Find(msg)
	if !ok {
		t.Fatalf("no log entry %q in:\n%s", msg, b.String())
	}
	return entry
}
