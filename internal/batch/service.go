package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"personlens/internal/correlate"
	"personlens/internal/failover"
	"personlens/internal/platform/metrics"
	"personlens/internal/providers"
	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
	stringsutil "personlens/pkg/platform/strings"
)

const (
	// DefaultChunkSize bounds per-chunk parallelism to respect downstream
	// provider rate limits.
	DefaultChunkSize = 5

	// DefaultMaxInputs caps the number of inputs accepted per job.
	DefaultMaxInputs = 100
)

// Service orchestrates batch jobs: inputs run in fixed-size chunks, items
// within a chunk run concurrently, chunks run sequentially. Progress persists
// at chunk boundaries only.
type Service struct {
	store      JobStore
	searcher   Searcher
	correlator *correlate.Engine
	notifier   Notifier
	usage      UsageGate
	metrics    *metrics.Metrics
	logger     *slog.Logger
	chunkSize  int
	maxInputs  int
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier sets the lifecycle event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithUsageGate enables usage admission on submission.
func WithUsageGate(g UsageGate) Option {
	return func(s *Service) { s.usage = g }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithChunkSize overrides the per-chunk parallelism bound.
func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithMaxInputs overrides the per-job input cap.
func WithMaxInputs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInputs = n
		}
	}
}

// WithClock overrides time for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the batch service.
func New(store JobStore, searcher Searcher, correlator *correlate.Engine, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("job store is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if correlator == nil {
		return nil, fmt.Errorf("correlator is required")
	}
	s := &Service{
		store:      store,
		searcher:   searcher,
		correlator: correlator,
		logger:     slog.Default(),
		chunkSize:  DefaultChunkSize,
		maxInputs:  DefaultMaxInputs,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit validates the inputs, applies usage admission, and persists a new
// PENDING job. Execution happens later through Run, typically via the worker.
func (s *Service) Submit(ctx context.Context, userID id.UserID, inputs []string) (*Job, error) {
	cleaned := stringsutil.DedupeAndTrim(inputs)
	if len(cleaned) == 0 {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "at least one non-empty input is required")
	}
	if len(cleaned) > s.maxInputs {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput,
			fmt.Sprintf("too many inputs: %d exceeds the limit of %d", len(cleaned), s.maxInputs))
	}
	if s.usage != nil {
		if err := s.usage.ConsumeSearches(ctx, userID, len(cleaned)); err != nil {
			return nil, fmt.Errorf("usage admission: %w", err)
		}
	}

	job := &Job{
		ID:        id.NewJobID(),
		UserID:    userID,
		Status:    StatusPending,
		Inputs:    cleaned,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.InfoContext(ctx, "batch job submitted",
		slog.String("job_id", job.ID.String()),
		slog.Int("inputs", len(cleaned)))
	return job, nil
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, jobID id.JobID) (*Job, error) {
	return s.store.Get(ctx, jobID)
}

// Run executes a submitted job to a terminal state. Item failures are
// captured per item and never abort the job; an error outside the per-item
// boundary marks the whole job FAILED. Re-running a terminal job is a no-op
// so at-least-once delivery stays safe.
func (s *Service) Run(ctx context.Context, jobID id.JobID) error {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if job.Status.Terminal() {
		s.logger.InfoContext(ctx, "batch job already finished, skipping",
			slog.String("job_id", job.ID.String()),
			slog.String("status", string(job.Status)))
		return nil
	}

	job.Status = StatusProcessing
	if err := s.store.Update(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	if err := s.process(ctx, job); err != nil {
		s.finish(ctx, job, StatusFailed, err.Error())
		return fmt.Errorf("process job %s: %w", job.ID, err)
	}
	s.finish(ctx, job, StatusCompleted, "")
	return nil
}

// process walks the inputs chunk by chunk. Each chunk's items run
// concurrently; the chunk barrier means counters only advance once the whole
// chunk is done, so observed progress is chunk-granular.
func (s *Service) process(ctx context.Context, job *Job) error {
	job.ProcessedCount = 0
	job.SuccessCount = 0
	job.ErrorCount = 0
	job.Results = make([]ItemResult, len(job.Inputs))

	for start := 0; start < len(job.Inputs); start += s.chunkSize {
		end := min(start+s.chunkSize, len(job.Inputs))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				job.Results[i] = s.processItem(ctx, job.Inputs[i])
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			job.ProcessedCount++
			switch job.Results[i].Status {
			case ItemError:
				job.ErrorCount++
			default:
				// not_found still means every provider answered, so it
				// counts as a successfully processed item.
				job.SuccessCount++
			}
			if s.metrics != nil {
				s.metrics.RecordBatchItem(string(job.Results[i].Status))
			}
		}

		if err := s.store.Update(ctx, job); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}
		s.notifyProgress(ctx, job)
	}
	return nil
}

// processItem is the per-item failure boundary: it always returns a result,
// converting panics and provider errors into an explicit item status.
func (s *Service) processItem(ctx context.Context, input string) (result ItemResult) {
	kind := ClassifyInput(input)
	result = ItemResult{Input: input, Kind: string(kind)}

	defer func() {
		if r := recover(); r != nil {
			result.Status = ItemError
			result.Error = fmt.Sprintf("panic: %v", r)
			s.logger.ErrorContext(ctx, "batch item panicked",
				slog.String("input", input),
				slog.Any("panic", r))
		}
	}()

	searched, err := s.searcher.Search(ctx, kind, SearchParams(kind, input))
	if err != nil {
		if isItemNotFound(err) {
			result.Status = ItemNotFound
			return result
		}
		result.Status = ItemError
		result.Error = err.Error()
		return result
	}

	correlated := s.correlator.Correlate([]correlate.Source{searched.Data})
	result.Status = ItemSuccess
	result.Provider = searched.Provider
	result.Profile = &correlated.Profile
	result.ConfidenceScore = correlated.ConfidenceScore
	result.DataQuality = string(correlated.DataQuality)
	return result
}

// isItemNotFound decides whether a failed search means "no records" rather
// than a real failure, checking the typed category first and falling back to
// the message heuristics for providers that only report text.
func isItemNotFound(err error) bool {
	if providers.IsNotFound(err) {
		return true
	}
	var allFailed *failover.AllFailedError
	if errors.As(err, &allFailed) {
		for _, cause := range allFailed.Errors {
			if providers.IsNotFound(cause) {
				return true
			}
		}
	}
	return false
}

func (s *Service) finish(ctx context.Context, job *Job, status Status, reason string) {
	now := s.now().UTC()
	job.Status = status
	job.FailureReason = reason
	job.CompletedAt = &now

	if err := s.store.Update(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist terminal job state",
			slog.String("job_id", job.ID.String()),
			slog.String("status", string(status)),
			slog.Any("error", err))
	}
	if s.metrics != nil {
		s.metrics.RecordBatchJob(string(status))
	}
	s.logger.InfoContext(ctx, "batch job finished",
		slog.String("job_id", job.ID.String()),
		slog.String("status", string(status)),
		slog.Int("processed", job.ProcessedCount),
		slog.Int("succeeded", job.SuccessCount),
		slog.Int("failed", job.ErrorCount))

	if s.notifier != nil {
		if err := s.notifier.JobFinished(ctx, job); err != nil {
			s.logger.WarnContext(ctx, "job finished notification failed",
				slog.String("job_id", job.ID.String()),
				slog.Any("error", err))
		}
	}
}

func (s *Service) notifyProgress(ctx context.Context, job *Job) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.JobProgress(ctx, job); err != nil {
		s.logger.WarnContext(ctx, "job progress notification failed",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
	}
}
