package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	id "personlens/pkg/domain"
)

const (
	// DefaultWorkerCount keeps jobs running one at a time so a single tenant
	// cannot saturate the provider pool.
	DefaultWorkerCount = 1

	// DefaultQueueCapacity bounds the backlog of submitted jobs.
	DefaultQueueCapacity = 64

	// DefaultMaxAttempts is the at-least-once retry budget per job.
	DefaultMaxAttempts = 3

	// DefaultBackoffBase seeds the exponential retry delay.
	DefaultBackoffBase = 500 * time.Millisecond
)

// ErrQueueFull is returned by Enqueue when the backlog is at capacity.
var ErrQueueFull = fmt.Errorf("batch queue is full")

// Runner executes one job to a terminal state. Satisfied by *Service.
type Runner interface {
	Run(ctx context.Context, jobID id.JobID) error
}

// Worker drains the job queue with a fixed pool and bounded retries. Delivery
// is at-least-once: Runner.Run must be safe to call again for a job that
// already finished.
type Worker struct {
	runner      Runner
	logger      *slog.Logger
	queue       chan id.JobID
	workers     int
	maxAttempts int
	backoffBase time.Duration
	sleep       func(context.Context, time.Duration) error

	wg sync.WaitGroup
}

// WorkerOption configures the Worker.
type WorkerOption func(*Worker)

// WithWorkerCount sets the pool size.
func WithWorkerCount(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithQueueCapacity sets the backlog bound.
func WithQueueCapacity(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan id.JobID, n)
		}
	}
}

// WithMaxAttempts sets the per-job retry budget.
func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the initial retry delay, doubled per attempt.
func WithBackoffBase(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.backoffBase = d
		}
	}
}

// WithWorkerLogger sets the structured logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker constructs a stopped worker pool; call Start to begin draining.
func NewWorker(runner Runner, opts ...WorkerOption) (*Worker, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	w := &Worker{
		runner:      runner,
		logger:      slog.Default(),
		queue:       make(chan id.JobID, DefaultQueueCapacity),
		workers:     DefaultWorkerCount,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Enqueue adds a job to the backlog without blocking.
func (w *Worker) Enqueue(jobID id.JobID) error {
	select {
	case w.queue <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the pool. Workers drain until ctx is cancelled; Wait blocks
// until they exit.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.drain(ctx)
		}()
	}
}

// Wait blocks until all workers have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-w.queue:
			w.runWithRetry(ctx, jobID)
		}
	}
}

// runWithRetry retries transient run failures with exponential backoff. A job
// that still fails after the budget is abandoned; Run has already recorded
// the FAILED state by then.
func (w *Worker) runWithRetry(ctx context.Context, jobID id.JobID) {
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.runner.Run(ctx, jobID)
		if err == nil {
			return
		}
		w.logger.WarnContext(ctx, "batch job attempt failed",
			slog.String("job_id", jobID.String()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", w.maxAttempts),
			slog.Any("error", err))

		if attempt == w.maxAttempts {
			w.logger.ErrorContext(ctx, "batch job abandoned after retries",
				slog.String("job_id", jobID.String()))
			return
		}
		delay := w.backoffBase << (attempt - 1)
		if err := w.sleep(ctx, delay); err != nil {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
