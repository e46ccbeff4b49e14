package job

import (
	"context"

	"github.com/google/uuid"
)

// Job type constants
const (
	// TypeSessionStart requests a session handle from the session endpoint
	TypeSessionStart = "session_start"

	// TypeSessionEnd notifies the session endpoint that a run has stopped
	TypeSessionEnd = "session_end"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Submitter accepts jobs for asynchronous execution.
type Submitter interface {
	// Submit queues a job. Returns an error if the job cannot be queued.
	Submit(j Job) error
}

// QueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type QueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs
	GetChannel() <-chan Job
}

// QueueWriter provides write access to the job queue
type QueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(j Job) error

	// Close closes the queue, preventing further submission
	Close()
}

// funcJob is a Job backed by a plain function.
type funcJob struct {
	id      uuid.UUID
	jobType string
	fn      func(ctx context.Context) error
}

// NewFuncJob wraps fn as a Job of the given type.
func NewFuncJob(jobType string, fn func(ctx context.Context) error) Job {
	return &funcJob{
		id:      uuid.New(),
		jobType: jobType,
		fn:      fn,
	}
}

func (j *funcJob) ID() uuid.UUID {
	return j.id
}

func (j *funcJob) Type() string {
	return j.jobType
}

func (j *funcJob) Execute(ctx context.Context) error {
	return j.fn(ctx)
}
