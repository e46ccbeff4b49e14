package timer

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/events"
)

// Single is a one-task timer for callers that track a single task at a time.
// It wraps its own Registry, so it shares the same tick, earnings and session
// behaviour.
type Single struct {
	reg  *Registry
	task domain.Task
}

// NewSingle creates a timer bound to task.
func NewSingle(task domain.Task, cfg Config, logger *slog.Logger, opts ...Option) (*Single, error) {
	if task.ID == "" {
		return nil, domain.ErrInvalidTaskID
	}
	return &Single{reg: New(cfg, logger, opts...), task: task}, nil
}

// TaskID returns the bound task id.
func (s *Single) TaskID() string {
	return s.task.ID
}

// Start begins or resumes the timer.
func (s *Single) Start(ctx context.Context) (Entry, error) {
	return s.reg.Start(ctx, s.task)
}

// Pause suspends the timer.
func (s *Single) Pause(ctx context.Context) (Entry, bool) {
	return s.reg.Pause(ctx, s.task.ID)
}

// Resume continues a paused timer.
func (s *Single) Resume(ctx context.Context) (Entry, bool) {
	return s.reg.Resume(ctx, s.task.ID)
}

// Stop finishes the current run.
func (s *Single) Stop(ctx context.Context) (Entry, bool) {
	return s.reg.Stop(ctx, s.task.ID)
}

// Reset zeroes the timer.
func (s *Single) Reset(ctx context.Context) (Entry, bool) {
	return s.reg.Reset(ctx, s.task.ID)
}

// Entry returns the current snapshot. Before the first start it reports an
// idle, zeroed timer.
func (s *Single) Entry() Entry {
	if e, ok := s.reg.Get(s.task.ID); ok {
		return e
	}
	return Entry{TaskID: s.task.ID, Task: s.task, State: StateIdle}
}

// Subscribe registers a handler for the wrapped registry's events.
func (s *Single) Subscribe(handler events.EventHandler) {
	s.reg.Subscribe(handler)
}

// Export returns the bound entry, if any, for persistence.
func (s *Single) Export() []Entry {
	if e, ok := s.reg.Get(s.task.ID); ok {
		return []Entry{e}
	}
	return nil
}

// Restore loads the persisted entry for the bound task and ignores others.
func (s *Single) Restore(ctx context.Context, entries []Entry) int {
	for _, e := range entries {
		if e.TaskID == s.task.ID {
			return s.reg.Restore(ctx, []Entry{e})
		}
	}
	return 0
}

// Tick advances the timer by one second if it is running.
func (s *Single) Tick() bool {
	return s.reg.Tick(s.reg.now()) > 0
}

// Close stops the tick goroutine.
func (s *Single) Close() {
	s.reg.Close()
}
