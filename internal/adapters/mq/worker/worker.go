// Package worker runs audit jobs: each job replays every stored set of one
// match and reports whether the log is still consistent.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Auditor replays the match named by a job.
type Auditor interface {
	AuditMatch(ctx context.Context, job queue.Job) error
}

// Result is the outcome of one job.
type Result struct {
	Job      queue.Job
	Err      error
	Duration time.Duration
}

// Reporter receives every result. It must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, r Result)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, r Result)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, r Result) { f(ctx, r) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker pulls jobs off a queue until it is closed.
type InMemoryWorker struct {
	queue    Queue
	auditor  Auditor
	reporter Reporter
	name     string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, auditor Auditor, reporter Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		auditor:  auditor,
		reporter: reporter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	} else {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until the queue is drained, ctx is cancelled or the
// worker is shut down.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker after the job in progress.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	err := w.audit(ctx, job)
	elapsed := time.Since(start)
	metrics.RecordWorkerProcessingLatency(float64(elapsed.Milliseconds()))
	metrics.RecordAuditResult(err)

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "audit_failed")
		w.logger.Warn(ctx, "audit failed",
			logger.String("match", job.MatchID),
			logger.Error(err),
		)
	} else {
		w.logger.Debug(ctx, "audit passed",
			logger.String("match", job.MatchID),
			logger.Duration("took", elapsed),
		)
	}
	if w.reporter != nil {
		w.reporter.Report(ctx, Result{Job: job, Err: err, Duration: elapsed})
	}
}

// audit turns a panicking replay into a failed result.
func (w *InMemoryWorker) audit(ctx context.Context, job queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit of match %s panicked: %v", job.MatchID, r)
		}
	}()
	return w.auditor.AuditMatch(ctx, job)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers, one per CPU when
// workerCount is not positive. opts apply to every worker; a WithLogger
// logger is also used by the pool itself.
func NewPool(workerCount int, q Queue, auditor Auditor, reporter Reporter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	var base InMemoryWorker
	for _, opt := range opts {
		opt(&base)
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Named("worker-pool"),
	}
	if base.logger != nil {
		p.logger = base.logger.Named("worker-pool")
	}
	for i := range p.workers {
		wopts := append(opts[:len(opts):len(opts)], WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, auditor, reporter, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkerActiveCount(len(p.workers))
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, normally because the queue
// was closed and drained.
func (p *Pool) Wait(ctx context.Context) error {
	defer metrics.UpdateWorkerActiveCount(0)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown closes the queue and stops every worker, waiting at most
// poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	defer metrics.UpdateWorkerActiveCount(0)

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return err
		}
	}
	return nil
}
