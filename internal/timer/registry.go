package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/events"
	"github.com/phrazzld/tempo/internal/job"
)

// Event types published by the registry
const (
	EventStarted         = "timer.started"
	EventPaused          = "timer.paused"
	EventResumed         = "timer.resumed"
	EventStopped         = "timer.stopped"
	EventReset           = "timer.reset"
	EventDeleted         = "timer.deleted"
	EventRestored        = "timer.restored"
	EventSessionAttached = "timer.session_attached"
)

// DefaultTickInterval is how often running timers advance.
const DefaultTickInterval = time.Second

// Config holds the registry settings.
type Config struct {
	// TickInterval is the wall-clock period of one tick. Each tick adds one
	// second of elapsed time regardless of the interval.
	TickInterval time.Duration

	// RetainFinished keeps a frozen summary of stopped timers. When false,
	// Stop removes the entry.
	RetainFinished bool

	// UserID is sent with every session request.
	UserID string

	// SessionTimeout bounds session calls when no job submitter is configured.
	SessionTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TickInterval:   DefaultTickInterval,
		RetainFinished: true,
		SessionTimeout: 10 * time.Second,
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithSessionClient enables session syncing.
func WithSessionClient(client SessionClient) Option {
	return func(r *Registry) {
		r.sessions = client
	}
}

// WithRateLookup sets the lookup used for categories without an embedded rate.
func WithRateLookup(lookup RateLookup) Option {
	return func(r *Registry) {
		r.rates = lookup
	}
}

// WithSubmitter runs session calls on the given job submitter instead of
// one goroutine per call.
func WithSubmitter(s job.Submitter) Option {
	return func(r *Registry) {
		r.jobs = s
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Registry holds one Entry per task. It is safe for concurrent use.
//
// Every mutation and every tick is serialized by one mutex, so a tick never
// observes a half-applied bulk operation. Events are emitted after the mutex
// is released.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	seq     uint64
	run     uint64
	ticking bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup

	cfg      Config
	sessions SessionClient
	rates    RateLookup
	jobs     job.Submitter
	now      func() time.Time
	logger   *slog.Logger
	emitter  *events.InMemoryEventEmitter
}

// New creates an empty registry.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultConfig().SessionTimeout
	}
	logger = logger.With("component", "timer_registry")

	r := &Registry{
		entries: make(map[string]*Entry),
		done:    make(chan struct{}),
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
		emitter: events.NewInMemoryEventEmitter(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.jobs == nil {
		r.jobs = goSubmitter{timeout: cfg.SessionTimeout, logger: logger}
	}
	return r
}

// Subscribe registers a handler for registry events.
func (r *Registry) Subscribe(handler events.EventHandler) {
	r.emitter.RegisterHandler(handler)
}

// change is a committed state change waiting to be published.
type change struct {
	eventType string
	entry     Entry
}

// Start begins or continues timing task.
//
// An absent, idle or stopped entry starts a fresh run from zero and requests
// a new session. A paused entry resumes with its elapsed time kept. A running
// entry is left alone. Only an empty task id is an error.
func (r *Registry) Start(ctx context.Context, task domain.Task) (Entry, error) {
	e, _, err := r.StartRun(ctx, task)
	return e, err
}

// StartRun is Start that also reports whether a fresh run began. The
// decision is made under the registry lock, so of several concurrent calls
// for the same idle task exactly one reports true.
func (r *Registry) StartRun(ctx context.Context, task domain.Task) (Entry, bool, error) {
	if task.ID == "" {
		return Entry{}, false, domain.ErrInvalidTaskID
	}

	// The rate lookup may hit the network, so it runs unlocked. A fresh run
	// only commits once a rate has been resolved for this call.
	var rate float64
	var resolved bool
	for {
		r.mu.Lock()
		e, ok := r.entries[task.ID]
		if ok && e.State == StateRunning {
			snapshot := *e
			r.mu.Unlock()
			return snapshot, false, nil
		}
		if ok && e.State == StatePaused {
			now := r.now()
			e.State = StateRunning
			e.LastUpdate = now
			c := change{EventResumed, *e}
			r.ensureTickingLocked()
			r.mu.Unlock()

			r.publish(ctx, c)
			return c.entry, false, nil
		}
		if !resolved {
			r.mu.Unlock()
			rate = r.resolveRate(ctx, task)
			resolved = true
			continue
		}

		now := r.now()
		if !ok {
			r.seq++
			e = &Entry{TaskID: task.ID, State: StateIdle, seq: r.seq}
			r.entries[task.ID] = e
		}
		r.run++
		e.run = r.run
		e.Task = task
		e.HourlyRate = rate
		e.ElapsedSeconds = 0
		e.ExternalSessionID = ""
		e.StartedAt = timePtr(now)
		e.EndedAt = nil
		e.State = StateRunning
		e.LastUpdate = now
		e.recompute()
		c := change{EventStarted, *e}
		r.ensureTickingLocked()
		r.mu.Unlock()

		r.requestSession(c.entry)
		r.publish(ctx, c)
		return c.entry, true, nil
	}
}

func (r *Registry) resolveRate(ctx context.Context, task domain.Task) float64 {
	if rate, ok := task.EmbeddedRate(); ok && rate >= 0 {
		return rate
	}
	if r.rates != nil {
		if key := task.CategoryKey(); key != "" {
			if rate, ok := r.rates.ResolveRate(ctx, key); ok && rate >= 0 {
				return rate
			}
		}
	}
	r.logger.Debug("no hourly rate for task, earnings stay at zero",
		"task_id", task.ID, "category_id", task.CategoryKey())
	return 0
}

// Pause suspends a running timer. It is a no-op in any other state.
func (r *Registry) Pause(ctx context.Context, taskID string) (Entry, bool) {
	return r.mutateOne(ctx, taskID, r.pauseLocked)
}

// Resume continues a paused timer. It is a no-op in any other state.
func (r *Registry) Resume(ctx context.Context, taskID string) (Entry, bool) {
	return r.mutateOne(ctx, taskID, r.resumeLocked)
}

// PauseAll pauses every running timer and returns the ones that changed.
func (r *Registry) PauseAll(ctx context.Context) []Entry {
	return r.mutateAll(ctx, r.pauseLocked)
}

// ResumeAll resumes every paused timer and returns the ones that changed.
func (r *Registry) ResumeAll(ctx context.Context) []Entry {
	return r.mutateAll(ctx, r.resumeLocked)
}

// Stop finishes a running or paused timer. Elapsed time and earnings freeze
// at the moment of the call. If the run holds a session id, the session
// endpoint is notified in the background; otherwise nothing is sent.
func (r *Registry) Stop(ctx context.Context, taskID string) (Entry, bool) {
	return r.mutateOne(ctx, taskID, r.stopLocked)
}

// StopAll stops every live timer. Session notifications are submitted
// independently, so one failing call does not affect the others.
func (r *Registry) StopAll(ctx context.Context) []Entry {
	return r.mutateAll(ctx, r.stopLocked)
}

// Reset zeroes a timer and returns it to idle. The session handle is
// dropped without contacting the session endpoint.
func (r *Registry) Reset(ctx context.Context, taskID string) (Entry, bool) {
	return r.mutateOne(ctx, taskID, r.resetLocked)
}

// ResetAll resets every timer that is not already idle and zeroed.
func (r *Registry) ResetAll(ctx context.Context) []Entry {
	return r.mutateAll(ctx, r.resetLocked)
}

// Delete removes a timer, notifying the session endpoint first when the run
// holds a session id.
func (r *Registry) Delete(ctx context.Context, taskID string) (Entry, bool) {
	return r.mutateOne(ctx, taskID, r.deleteLocked)
}

// DeleteAll removes every timer and returns how many were removed.
func (r *Registry) DeleteAll(ctx context.Context) int {
	return len(r.mutateAll(ctx, r.deleteLocked))
}

// transition applies a state change to e and reports the event to publish.
// It returns false when e is not in a state the transition applies to.
// Caller holds r.mu.
type transition func(e *Entry, now time.Time) (change, bool)

func (r *Registry) mutateOne(ctx context.Context, taskID string, fn transition) (Entry, bool) {
	r.mu.Lock()
	e, ok := r.entries[taskID]
	if !ok {
		r.mu.Unlock()
		return Entry{}, false
	}
	c, changed := fn(e, r.now())
	if !changed {
		snapshot := *e
		r.mu.Unlock()
		return snapshot, false
	}
	r.mu.Unlock()

	r.publish(ctx, c)
	return c.entry, true
}

func (r *Registry) mutateAll(ctx context.Context, fn transition) []Entry {
	r.mu.Lock()
	now := r.now()
	var changes []change
	for _, e := range r.sortedLocked() {
		if c, ok := fn(e, now); ok {
			changes = append(changes, c)
		}
	}
	r.mu.Unlock()

	out := make([]Entry, 0, len(changes))
	for _, c := range changes {
		r.publish(ctx, c)
		out = append(out, c.entry)
	}
	return out
}

func (r *Registry) pauseLocked(e *Entry, now time.Time) (change, bool) {
	if e.State != StateRunning {
		return change{}, false
	}
	e.State = StatePaused
	e.LastUpdate = now
	return change{EventPaused, *e}, true
}

func (r *Registry) resumeLocked(e *Entry, now time.Time) (change, bool) {
	if e.State != StatePaused {
		return change{}, false
	}
	e.State = StateRunning
	e.LastUpdate = now
	r.ensureTickingLocked()
	return change{EventResumed, *e}, true
}

func (r *Registry) stopLocked(e *Entry, now time.Time) (change, bool) {
	if !e.State.IsLive() {
		return change{}, false
	}
	e.State = StateStopped
	e.EndedAt = timePtr(now)
	e.LastUpdate = now
	e.recompute()
	snapshot := *e

	if e.ExternalSessionID != "" {
		r.endSession(e.TaskID, e.ExternalSessionID)
	}
	if !r.cfg.RetainFinished {
		delete(r.entries, e.TaskID)
	}
	return change{EventStopped, snapshot}, true
}

func (r *Registry) resetLocked(e *Entry, now time.Time) (change, bool) {
	if e.State == StateIdle && e.ElapsedSeconds == 0 && e.ExternalSessionID == "" {
		return change{}, false
	}
	// A new run id orphans any session request still in flight.
	r.run++
	e.run = r.run
	e.State = StateIdle
	e.ElapsedSeconds = 0
	e.ExternalSessionID = ""
	e.StartedAt = nil
	e.EndedAt = nil
	e.LastUpdate = now
	e.recompute()
	return change{EventReset, *e}, true
}

func (r *Registry) deleteLocked(e *Entry, now time.Time) (change, bool) {
	if e.ExternalSessionID != "" && e.State.IsLive() {
		r.endSession(e.TaskID, e.ExternalSessionID)
	}
	if e.State == StateRunning {
		e.EndedAt = timePtr(now)
	}
	delete(r.entries, e.TaskID)
	return change{EventDeleted, *e}, true
}

// Tick advances every running timer by one second and recomputes its
// earnings. All entries share the same now. It returns how many advanced.
func (r *Registry) Tick(now time.Time) int {
	n, _ := r.advance(now, false)
	return n
}

// advance implements Tick. With fromLoop set, finding nothing to advance
// also marks the tick goroutine as finished, under the same lock.
func (r *Registry) advance(now time.Time, fromLoop bool) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.State != StateRunning {
			continue
		}
		e.ElapsedSeconds++
		e.LastUpdate = now
		e.recompute()
		n++
	}

	if fromLoop && n == 0 {
		r.ticking = false
		return 0, true
	}
	return n, false
}

// ensureTickingLocked starts the tick goroutine unless it is already
// running. Caller holds r.mu.
func (r *Registry) ensureTickingLocked() {
	if r.ticking || r.closed {
		return
	}
	r.ticking = true
	r.wg.Add(1)
	go r.tickLoop()
}

func (r *Registry) tickLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.logger.Debug("tick loop started", "interval", r.cfg.TickInterval)
	for {
		select {
		case <-r.done:
			r.mu.Lock()
			r.ticking = false
			r.mu.Unlock()
			return
		case <-ticker.C:
			if _, idle := r.advance(r.now(), true); idle {
				r.logger.Debug("no running timers, tick loop stopped")
				return
			}
		}
	}
}

// Ticking reports whether the tick goroutine is active.
func (r *Registry) Ticking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticking
}

// Get returns a snapshot of the timer for taskID.
func (r *Registry) Get(taskID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[taskID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Export returns snapshots of every entry in creation order.
func (r *Registry) Export() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.sortedLocked()
	out := make([]Entry, len(sorted))
	for i, e := range sorted {
		out[i] = *e
	}
	return out
}

func (r *Registry) sortedLocked() []*Entry {
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// TotalEarnings sums session earnings over all entries.
func (r *Registry) TotalEarnings() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0.0
	for _, e := range r.entries {
		total += e.SessionEarnings
	}
	return total
}

// TotalActiveTimers counts running entries.
func (r *Registry) TotalActiveTimers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.State == StateRunning {
			n++
		}
	}
	return n
}

// Restore loads previously exported entries, replacing any entry with the
// same task id. Invalid entries are skipped and logged. Earnings are
// recomputed, and the tick goroutine starts when a restored entry is running.
// It returns the number of entries restored.
func (r *Registry) Restore(ctx context.Context, entries []Entry) int {
	r.mu.Lock()
	var changes []change
	for _, in := range entries {
		if err := in.Validate(); err != nil {
			r.logger.Warn("skipping invalid timer entry", "task_id", in.TaskID, "error", err)
			continue
		}
		e := in
		r.seq++
		r.run++
		e.seq = r.seq
		e.run = r.run
		e.Task.ID = e.TaskID
		e.recompute()
		r.entries[e.TaskID] = &e
		if e.State == StateRunning {
			r.ensureTickingLocked()
		}
		changes = append(changes, change{EventRestored, e})
	}
	r.mu.Unlock()

	for _, c := range changes {
		r.publish(ctx, c)
	}
	if len(changes) > 0 {
		r.logger.Info("timers restored", "count", len(changes))
	}
	return len(changes)
}

// Close stops the tick goroutine. Entries stay readable and mutable, but
// running timers no longer advance on their own.
func (r *Registry) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.done)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// requestSession asks the session endpoint for a session id for the run
// captured in e.
func (r *Registry) requestSession(e Entry) {
	if r.sessions == nil {
		return
	}
	req := StartSessionRequest{
		TaskID:     e.TaskID,
		UserID:     r.cfg.UserID,
		HourlyRate: e.HourlyRate,
	}
	run := e.run

	r.submit(job.NewFuncJob(job.TypeSessionStart, func(ctx context.Context) error {
		id, err := r.sessions.StartSession(ctx, req)
		if err != nil {
			return fmt.Errorf("start session for task %s: %w", req.TaskID, err)
		}
		r.attachSession(ctx, req.TaskID, run, id)
		return nil
	}), req.TaskID)
}

// attachSession stores a session id on the run that requested it. If that
// run has already finished, the session is closed right away.
func (r *Registry) attachSession(ctx context.Context, taskID string, run uint64, sessionID string) {
	if sessionID == "" {
		return
	}

	r.mu.Lock()
	e, ok := r.entries[taskID]
	if !ok || e.run != run || !e.State.IsLive() {
		r.mu.Unlock()
		r.logger.Info("session id arrived after the run ended, closing it",
			"task_id", taskID, "session_id", sessionID)
		r.endSession(taskID, sessionID)
		return
	}
	e.ExternalSessionID = sessionID
	c := change{EventSessionAttached, *e}
	r.mu.Unlock()

	r.publish(ctx, c)
}

// endSession submits the stop notification for sessionID. It never blocks.
func (r *Registry) endSession(taskID, sessionID string) {
	if r.sessions == nil {
		return
	}
	req := EndSessionRequest{
		SessionID: sessionID,
		UserID:    r.cfg.UserID,
		Action:    EndActionStop,
	}

	r.submit(job.NewFuncJob(job.TypeSessionEnd, func(ctx context.Context) error {
		if err := r.sessions.EndSession(ctx, req); err != nil {
			return fmt.Errorf("end session %s: %w", sessionID, err)
		}
		return nil
	}), taskID)
}

func (r *Registry) submit(j job.Job, taskID string) {
	if err := r.jobs.Submit(j); err != nil {
		r.logger.Warn("failed to queue session job",
			"task_id", taskID, "job_type", j.Type(), "error", err)
	}
}

func (r *Registry) publish(ctx context.Context, c change) {
	event, err := events.NewEvent(events.SourceTimer, c.eventType, c.entry.TaskID, c.entry)
	if err != nil {
		r.logger.Error("failed to build timer event", "event_type", c.eventType, "error", err)
		return
	}
	if err := r.emitter.EmitEvent(ctx, event); err != nil {
		r.logger.Warn("timer event handler failed", "event_type", c.eventType, "error", err)
	}
}

// goSubmitter runs each job on its own goroutine. It is used when no worker
// pool is configured.
type goSubmitter struct {
	timeout time.Duration
	logger  *slog.Logger
}

func (s goSubmitter) Submit(j job.Job) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := j.Execute(ctx); err != nil {
			s.logger.Warn("job execution failed", "job_id", j.ID(), "job_type", j.Type(), "error", err)
		}
	}()
	return nil
}
