// Package queue holds pending audit jobs between the producer that lists the
// stored matches and the workers that replay them.
package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/courtside/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job asks for every set of one match to be replayed.
type Job struct {
	TeamID  uuid.UUID
	MatchID string
}

// Queue provides enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking. It returns ErrFull or ErrClosed
	// when the job was not accepted.
	Enqueue(ctx context.Context, j Job) error
	// EnqueueWait blocks until the job is accepted or ctx is done.
	EnqueueWait(ctx context.Context, j Job) error
	// Dequeue returns a channel that receives jobs. It is closed once the
	// queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job
	Len(ctx context.Context) int
	// Close stops accepting jobs. Pending jobs are still delivered.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job if there is room.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return q.rejected("closed", ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return q.rejected("context_cancelled", err)
	}
	select {
	case q.jobs <- j:
		q.accepted()
		return nil
	default:
		return q.rejected("queue_full", ErrFull)
	}
}

// EnqueueWait adds a job, waiting for room.
func (q *InMemoryQueue) EnqueueWait(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return q.rejected("closed", ErrClosed)
	}
	select {
	case q.jobs <- j:
		q.accepted()
		return nil
	case <-ctx.Done():
		return q.rejected("context_cancelled", ctx.Err())
	}
}

func (q *InMemoryQueue) accepted() {
	metrics.RecordQueueEnqueue()
	metrics.UpdateQueueSize(len(q.jobs))
}

func (q *InMemoryQueue) rejected(reason string, err error) error {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
	return err
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.jobs))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
