package job

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// Queue implements a buffered job queue that satisfies both
// QueueReader and QueueWriter interfaces
type Queue struct {
	jobs   chan Job
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewQueue creates a new job queue with the specified buffer size
func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		jobs:   make(chan Job, size),
		logger: logger,
	}
}

// Enqueue adds a job to the queue for processing.
// Returns an error if the queue is full or closed; it never blocks.
func (q *Queue) Enqueue(j Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- j:
		q.logger.Debug("job enqueued",
			"job_id", j.ID(),
			"job_type", j.Type(),
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Close closes the queue, preventing further job submission.
// Jobs already queued remain readable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("job queue closed")
	}
}

// GetChannel returns a read-only channel for consuming jobs
func (q *Queue) GetChannel() <-chan Job {
	return q.jobs
}

// Len returns the number of jobs waiting in the queue
func (q *Queue) Len() int {
	return len(q.jobs)
}
