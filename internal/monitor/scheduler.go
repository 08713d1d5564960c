package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"personlens/internal/changes"
	"personlens/internal/correlate"
	"personlens/internal/platform/metrics"
	id "personlens/pkg/domain"
)

// DefaultTickInterval is how often the scheduler sweeps for due
// subscriptions.
const DefaultTickInterval = time.Minute

// Scheduler sweeps for due subscriptions and re-checks each one: search with
// failover, correlate, diff against the last observation, alert on changes.
// Checks for distinct subscriptions run concurrently; checks for the same
// subscription never overlap.
type Scheduler struct {
	store      SubscriptionStore
	searcher   Searcher
	correlator *correlate.Engine
	notifier   AlertNotifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tick       time.Duration
	now        func() time.Time

	mu     sync.Mutex
	inruns map[id.SubscriptionID]*sync.Mutex
}

// SchedulerOption configures the Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTickInterval overrides the sweep cadence.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithClock overrides time for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler constructs the monitoring scheduler.
func NewScheduler(store SubscriptionStore, searcher Searcher, correlator *correlate.Engine, notifier AlertNotifier, opts ...SchedulerOption) (*Scheduler, error) {
	if store == nil {
		return nil, fmt.Errorf("subscription store is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if correlator == nil {
		return nil, fmt.Errorf("correlator is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	s := &Scheduler{
		store:      store,
		searcher:   searcher,
		correlator: correlator,
		notifier:   notifier,
		logger:     slog.Default(),
		tick:       DefaultTickInterval,
		now:        time.Now,
		inruns:     make(map[id.SubscriptionID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps on the tick interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunDueChecks(ctx)
		}
	}
}

// RunDueChecks re-checks every subscription that is due now and waits for the
// sweep to finish. Check failures are logged; the schedule continues
// unaffected.
func (s *Scheduler) RunDueChecks(ctx context.Context) {
	due, err := s.store.ListDue(ctx, s.now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "listing due subscriptions failed", slog.Any("error", err))
		return
	}

	var wg sync.WaitGroup
	for _, sub := range due {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			s.Check(ctx, sub)
		}(sub)
	}
	wg.Wait()
}

// Check runs one subscription check. A check already in flight for the same
// subscription makes this call a no-op; independent re-checks are idempotent
// so skipping is safe.
func (s *Scheduler) Check(ctx context.Context, sub *Subscription) {
	lock := s.subscriptionLock(sub.ID)
	if !lock.TryLock() {
		s.logger.DebugContext(ctx, "subscription check already running, skipping",
			slog.String("subscription_id", sub.ID.String()))
		return
	}
	defer lock.Unlock()

	now := s.now().UTC()
	params := map[string]string{string(sub.TargetType.SearchKind()): sub.TargetValue}

	searched, err := s.searcher.Search(ctx, sub.TargetType.SearchKind(), params)
	if err != nil {
		s.logger.WarnContext(ctx, "monitoring check failed",
			slog.String("subscription_id", sub.ID.String()),
			slog.String("target_type", string(sub.TargetType)),
			slog.Any("error", err))
		s.recordCheck("error")
		s.advanceSchedule(ctx, sub, now, sub.LastProfile)
		return
	}

	correlated := s.correlator.Correlate([]correlate.Source{searched.Data})
	detection := changes.Detect(sub.LastProfile, &correlated.Profile)

	if detection.HasChanges {
		s.notify(ctx, sub, detection)
		s.recordCheck("changes")
	} else {
		s.recordCheck("unchanged")
	}

	s.advanceSchedule(ctx, sub, now, &correlated.Profile)
}

// notify emits the alert and the webhook event. Delivery failures are logged
// and never affect the subscription's schedule.
func (s *Scheduler) notify(ctx context.Context, sub *Subscription, detection changes.Detection) {
	descriptions := make([]string, 0, len(detection.Changes))
	for _, c := range detection.Changes {
		descriptions = append(descriptions, c.Description)
	}

	if err := s.notifier.SendMonitoringAlert(ctx, sub.UserID, sub.ID, string(sub.TargetType), sub.TargetValue, descriptions); err != nil {
		s.logger.WarnContext(ctx, "monitoring alert delivery failed",
			slog.String("subscription_id", sub.ID.String()),
			slog.Any("error", err))
	}

	payload := map[string]any{
		"subscriptionId": sub.ID.String(),
		"targetType":     string(sub.TargetType),
		"targetValue":    sub.TargetValue,
		"changes":        detection.Changes,
		"confidence":     detection.Confidence,
	}
	if err := s.notifier.SendWebhookNotification(ctx, sub.UserID, "monitoring.changes_detected", payload); err != nil {
		s.logger.WarnContext(ctx, "monitoring webhook delivery failed",
			slog.String("subscription_id", sub.ID.String()),
			slog.Any("error", err))
	}
}

// advanceSchedule moves the subscription to its next slot and stores the
// latest observation. A failed check keeps the previous baseline profile.
func (s *Scheduler) advanceSchedule(ctx context.Context, sub *Subscription, now time.Time, profile *correlate.PersonProfile) {
	sub.LastCheckedAt = &now
	sub.NextCheckAt = now.Add(sub.Frequency)
	sub.LastProfile = profile

	if err := s.store.Update(ctx, sub); err != nil {
		s.logger.ErrorContext(ctx, "persisting subscription schedule failed",
			slog.String("subscription_id", sub.ID.String()),
			slog.Any("error", err))
	}
}

func (s *Scheduler) subscriptionLock(subID id.SubscriptionID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.inruns[subID]
	if !ok {
		lock = &sync.Mutex{}
		s.inruns[subID] = lock
	}
	return lock
}

func (s *Scheduler) recordCheck(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordMonitoringCheck(outcome)
	}
}
