package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool manages a pool of worker goroutines that process jobs
// from a job queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// queue provides read access to the jobs to be processed
	queue QueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// jobTimeout bounds a single job execution
	jobTimeout time.Duration

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a job execution fails
	// If nil, errors are only logged
	errorHandler func(j Job, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int

	// JobTimeout bounds each job execution. Zero means 30 seconds.
	JobTimeout time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
		JobTimeout:  30 * time.Second,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(queue QueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	jobTimeout := config.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		jobTimeout:  jobTimeout,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler allows setting a custom error handler for job execution failures
func (p *WorkerPool) SetErrorHandler(handler func(j Job, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("worker pool started", "worker_count", p.workerCount)
}

// Stop cancels all workers and waits for them to exit.
// Jobs still queued are abandoned.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Wait blocks until every worker has exited, which happens once the queue
// channel is closed and drained, or the pool is stopped.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// worker processes jobs from the queue
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case j, ok := <-p.queue.GetChannel():
			if !ok {
				p.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(j, id)
		}
	}
}

// process handles execution of a single job
func (p *WorkerPool) process(j Job, workerID int) {
	ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer cancel()

	logger := p.logger.With(
		"job_id", j.ID(),
		"job_type", j.Type(),
		"worker_id", workerID,
	)

	if err := j.Execute(ctx); err != nil {
		logger.Warn("job execution failed", "error", err)
		if p.errorHandler != nil {
			p.errorHandler(j, err)
		}
		return
	}

	logger.Debug("job completed")
}
