package job

import (
	"context"
	"log/slog"
	"time"
)

// DispatcherConfig holds configuration for the dispatcher
type DispatcherConfig struct {
	// WorkerCount determines how many jobs run concurrently
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory queue
	QueueSize int

	// JobTimeout bounds each job execution
	JobTimeout time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		WorkerCount: 4,
		QueueSize:   100,
		JobTimeout:  10 * time.Second,
	}
}

// Dispatcher couples a Queue with a WorkerPool and implements Submitter.
type Dispatcher struct {
	queue  *Queue
	pool   *WorkerPool
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. Call Start before submitting work.
func NewDispatcher(config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_dispatcher")

	queue := NewQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{
		WorkerCount: config.WorkerCount,
		JobTimeout:  config.JobTimeout,
	}, logger)

	return &Dispatcher{
		queue:  queue,
		pool:   pool,
		logger: logger,
	}
}

// SetErrorHandler forwards to the underlying worker pool
func (d *Dispatcher) SetErrorHandler(handler func(j Job, err error)) {
	d.pool.SetErrorHandler(handler)
}

// Start launches the workers
func (d *Dispatcher) Start() {
	d.pool.Start()
}

// Submit queues a job without blocking
func (d *Dispatcher) Submit(j Job) error {
	return d.queue.Enqueue(j)
}

// Shutdown stops accepting jobs and lets the workers drain what is queued.
// If ctx expires first, the remaining jobs are abandoned and ctx.Err() is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.queue.Close()

	done := make(chan struct{})
	go func() {
		d.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("job dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn("job dispatcher shutdown timed out", "pending_jobs", d.queue.Len())
		d.pool.Stop()
		return ctx.Err()
	}
}
