// Package async serializes fill passes: every trigger surface submits here and
// a single worker runs them one at a time, so only one edit session is ever
// open against the form.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
)

var ErrQueueClosed = errors.New("pass queue is shutting down")

// Job is one block of text to fill.
type Job struct {
	ID          uuid.UUID
	Text        string
	Source      constants.PassSource
	SubmittedAt time.Time
}

// Outcome is delivered once per submitted job.
type Outcome struct {
	Report pipeline.Report
	Err    error
}

// Runner runs one pass; *pipeline.Pass implements it.
type Runner interface {
	Run(ctx context.Context, text string, reg autofill.Registry) (pipeline.Report, error)
}

// Resolver returns the registry to fill at the time a job starts.
type Resolver func(ctx context.Context) (autofill.Registry, error)

// Static resolves to a fixed registry.
func Static(reg autofill.Registry) Resolver {
	return func(context.Context) (autofill.Registry, error) { return reg, nil }
}

// task carries the submitter's context; once it ends the job is no longer
// wanted.
type task struct {
	ctx  context.Context
	job  Job
	done chan Outcome
}

type PassQueue struct {
	runner  Runner
	resolve Resolver
	logger  *slog.Logger
	timeout time.Duration
	bound   func(text string) time.Duration

	ch   chan task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*PassQueue)

func WithQueueSize(n int) Option {
	return func(q *PassQueue) {
		if n > 0 {
			q.ch = make(chan task, n)
		}
	}
}

// WithPassTimeout caps every pass at d.
func WithPassTimeout(d time.Duration) Option {
	return func(q *PassQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithBound derives each pass's timeout from its text. The fixed pass timeout,
// if set, still applies as an upper limit.
func WithBound(f func(text string) time.Duration) Option {
	return func(q *PassQueue) { q.bound = f }
}

func NewPassQueue(runner Runner, resolve Resolver, logger *slog.Logger, opts ...Option) *PassQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &PassQueue{
		runner:  runner,
		resolve: resolve,
		logger:  logger,
		timeout: 2 * time.Minute,
		ch:      make(chan task, 16),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PassQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Info("pass worker started")
			for t := range q.ch {
				t.done <- q.run(t.ctx, t.job)
				close(t.done)
			}
			q.logger.Info("pass worker stopped")
		}()
	})
}

func (q *PassQueue) passTimeout(text string) time.Duration {
	d := q.timeout
	if q.bound != nil {
		if b := q.bound(text); b > 0 && b < d {
			d = b
		}
	}
	return d
}

func (q *PassQueue) run(caller context.Context, job Job) Outcome {
	if err := caller.Err(); err != nil {
		q.logger.Info("pass skipped, submitter gone", "pass_id", job.ID, "source", job.Source, "error", err)
		return Outcome{Report: pipeline.Report{ID: job.ID, Source: job.Source, StartedAt: time.Now()}, Err: err}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(caller), q.passTimeout(job.Text))
	defer cancel()
	stop := context.AfterFunc(caller, cancel)
	defer stop()
	ctx = common.WithSource(common.WithPassID(ctx, job.ID), job.Source)

	reg, err := q.resolve(ctx)
	if err != nil {
		q.logger.Error("pass registry unavailable", "pass_id", job.ID, "source", job.Source, "error", err)
		return Outcome{Report: pipeline.Report{ID: job.ID, Source: job.Source, StartedAt: time.Now()}, Err: err}
	}

	rep, err := q.runner.Run(ctx, job.Text, reg)
	if err != nil {
		q.logger.Error("pass failed", "pass_id", job.ID, "source", job.Source, "error", err)
	} else {
		q.logger.Info("pass finished", "pass_id", job.ID, "source", job.Source, "filled", rep.Filled,
			"waited_ms", time.Since(job.SubmittedAt).Milliseconds())
	}
	return Outcome{Report: rep, Err: err}
}

// Submit enqueues job and returns a channel that receives its outcome. A full
// queue blocks until there is room or ctx ends. ctx also scopes the pass: if it
// ends before the job starts the job is skipped, and if it ends mid-pass the
// pass is cancelled. Either way the outcome carries ctx's error.
func (q *PassQueue) Submit(ctx context.Context, job Job) (<-chan Outcome, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Source == "" {
		job.Source = constants.SourceCLI
	}
	job.SubmittedAt = time.Now()
	t := task{ctx: ctx, job: job, done: make(chan Outcome, 1)}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "pass_id", job.ID)
		return nil, ErrQueueClosed
	}
	select {
	case q.ch <- t:
		q.logger.Info("queued fill pass", "pass_id", job.ID, "source", job.Source)
		return t.done, nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "pass_id", job.ID)
	select {
	case q.ch <- t:
		return t.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits job and waits for its outcome. Cancelling ctx abandons the job
// whether it is still queued or already running.
func (q *PassQueue) Do(ctx context.Context, job Job) (pipeline.Report, error) {
	done, err := q.Submit(ctx, job)
	if err != nil {
		return pipeline.Report{}, err
	}
	select {
	case out := <-done:
		return out.Report, out.Err
	case <-ctx.Done():
		return pipeline.Report{}, ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (q *PassQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
