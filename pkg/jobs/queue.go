package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by Enqueue before Start.
	ErrNotStarted = errors.New("queue not started")
	// ErrStopped is returned by Enqueue once Stop has been called.
	ErrStopped = errors.New("queue stopped")
	// ErrFull is returned when the buffer has no room. Enqueue never blocks the caller.
	ErrFull = errors.New("queue full")
)

// Job is a unit of background work carrying a typed payload.
type Job[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. It receives a pointer so it can narrow the payload before a retry.
type Handler[T any] func(ctx context.Context, job *Job[T]) error

// Config configures worker pool behaviour.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory job dispatcher backed by a fixed pool of goroutines.
type Queue[T any] struct {
	name    string
	handler Handler[T]

	workerCount int
	maxRetries  int
	retryDelay  time.Duration
	logger      *zap.Logger

	jobs chan Job[T]

	mu            sync.RWMutex
	started       bool
	stopped       bool
	ctx           context.Context
	cancelRetries context.CancelFunc
	retryCtx      context.Context
	workers       sync.WaitGroup
	retries       sync.WaitGroup
}

// New builds a queue with the provided handler.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:        name,
		handler:     handler,
		workerCount: cfg.Workers,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger,
		jobs:        make(chan Job[T], cfg.BufferSize),
	}
}

// Start launches the workers. Handlers run with ctx, which Stop does not cancel.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.ctx = ctx
	q.retryCtx, q.cancelRetries = context.WithCancel(ctx)
	for i := 0; i < q.workerCount; i++ {
		q.workers.Add(1)
		go q.work()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workerCount))
}

// Stop refuses new jobs, lets the workers finish everything already buffered and waits for them.
// Retries still waiting for their delay are abandoned.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.workers.Wait()
	q.cancelRetries()
	q.retries.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a job to the workers without blocking.
func (q *Queue[T]) Enqueue(job Job[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return ErrStopped
	}
	if !q.started {
		return ErrNotStarted
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrFull
	}
}

func (q *Queue[T]) work() {
	defer q.workers.Done()
	for job := range q.jobs {
		job := job
		if err := q.handler(q.ctx, &job); err != nil {
			q.retry(job, err)
		}
	}
}

func (q *Queue[T]) retry(job Job[T], err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Error("job exceeded retries",
			zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
		return
	}
	q.logger.Warn("job failed, retrying",
		zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))

	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(q.retryDelay * time.Duration(job.Attempt))
		defer timer.Stop()
		select {
		case <-q.retryCtx.Done():
			q.logger.Warn("retry abandoned", zap.String("queue", q.name), zap.String("job_id", job.ID))
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.logger.Error("failed to requeue job", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}
