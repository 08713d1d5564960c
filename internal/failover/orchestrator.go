// Package failover tries identity-data providers in priority order, gated by
// per-provider circuit breakers and recent health, returning the first
// successful payload.
package failover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"personlens/internal/platform/metrics"
	"personlens/internal/providers"
	"personlens/pkg/platform/circuit"
)

// DefaultSearchTimeout bounds every provider attempt. One uniform policy: the
// orchestrator owns the timeout, call sites do not.
const DefaultSearchTimeout = 10 * time.Second

// healthStaleness is how long an unhealthy observation keeps a provider out
// of rotation. Older unhealthy records are retried.
const healthStaleness = 5 * time.Minute

// SearchFunc performs the actual call against one provider. The orchestrator
// supplies the attempt context, already bounded by the search timeout.
type SearchFunc func(ctx context.Context, p providers.Provider) (providers.Payload, error)

// Result is a successful failover outcome: exactly one provider's payload.
type Result struct {
	Data     providers.Payload
	Provider string
}

// AllFailedError reports that every provider was skipped or failed, keeping
// the per-provider errors for diagnosis. Its message includes the underlying
// provider messages so not-found heuristics applied by callers still work.
type AllFailedError struct {
	Errors map[string]error
}

func (e *AllFailedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for name, err := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %v", name, err))
	}
	return fmt.Sprintf("%v (%s)", providers.ErrAllProvidersFailed, strings.Join(parts, "; "))
}

func (e *AllFailedError) Unwrap() error {
	return providers.ErrAllProvidersFailed
}

// Orchestrator coordinates breaker-gated, health-gated failover over the
// provider registry.
type Orchestrator struct {
	registry *providers.Registry
	breakers *circuit.Registry
	health   *HealthTracker
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithSearchTimeout overrides the per-attempt timeout.
func WithSearchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// New constructs an Orchestrator over the given registry and breakers.
func New(registry *providers.Registry, breakers *circuit.Registry, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if breakers == nil {
		return nil, fmt.Errorf("breaker registry is required")
	}

	o := &Orchestrator{
		registry: registry,
		breakers: breakers,
		health:   NewHealthTracker(),
		timeout:  DefaultSearchTimeout,
		logger:   slog.Default(),
		tracer:   otel.Tracer("personlens/failover"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Health exposes the tracker for health endpoints.
func (o *Orchestrator) Health() *HealthTracker { return o.health }

// Search runs a kind/params lookup through the failover chain.
func (o *Orchestrator) Search(ctx context.Context, kind providers.SearchKind, params map[string]string) (*Result, error) {
	return o.SearchWithFailover(ctx, func(ctx context.Context, p providers.Provider) (providers.Payload, error) {
		return p.Search(ctx, kind, params)
	})
}

// SearchWithFailover tries each provider in ascending priority order and
// returns the first success. A provider is skipped when its breaker is open
// or when its last health observation is unhealthy and younger than the
// staleness window. A failing provider cannot block the others beyond its own
// breaker state.
func (o *Orchestrator) SearchWithFailover(ctx context.Context, fn SearchFunc) (*Result, error) {
	ordered := o.registry.InPriorityOrder()
	if len(ordered) == 0 {
		return nil, providers.ErrNoProviders
	}

	failures := make(map[string]error, len(ordered))

	for _, p := range ordered {
		name := p.Name()

		if o.breakers.IsOpen(name) {
			o.logger.DebugContext(ctx, "provider skipped, circuit open", "provider", name)
			failures[name] = fmt.Errorf("skipped: %w", circuit.ErrOpen)
			continue
		}
		if o.recentlyUnhealthy(name) {
			o.logger.DebugContext(ctx, "provider skipped, recently unhealthy", "provider", name)
			failures[name] = fmt.Errorf("skipped: recently unhealthy")
			continue
		}

		payload, err := o.attempt(ctx, p, fn)
		if err == nil {
			return &Result{Data: payload, Provider: name}, nil
		}
		failures[name] = err
	}

	return nil, &AllFailedError{Errors: failures}
}

// attempt runs one provider call through its breaker with the uniform
// timeout, recording health, latency, metrics, and a span.
func (o *Orchestrator) attempt(ctx context.Context, p providers.Provider, fn SearchFunc) (providers.Payload, error) {
	name := p.Name()

	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	attemptCtx, span := o.tracer.Start(attemptCtx, "provider.search",
		trace.WithAttributes(attribute.String("provider", name)))
	defer span.End()

	start := time.Now()
	var payload providers.Payload

	err := o.breakers.Execute(attemptCtx, name, func(ctx context.Context) error {
		data, callErr := fn(ctx, p)
		if callErr != nil {
			// An authoritative "no record" answer means the provider is up;
			// it must not trip the breaker or mark the provider unhealthy.
			if providers.IsNotFound(callErr) {
				return nil
			}
			return callErr
		}
		payload = data
		return nil
	})
	latency := time.Since(start)

	if err != nil {
		span.RecordError(err)
		o.health.RecordUnhealthy(name, err)
		if o.metrics != nil {
			o.metrics.RecordProviderSearch(name, "error")
			o.metrics.ObserveProviderLatency(name, latency.Seconds())
		}
		o.logger.WarnContext(ctx, "provider search failed",
			"provider", name,
			"error", err.Error(),
			"latency_ms", latency.Milliseconds(),
		)
		return nil, err
	}

	o.health.RecordHealthy(name, latency)
	if payload == nil {
		// Breaker recorded success but the provider had no record.
		if o.metrics != nil {
			o.metrics.RecordProviderSearch(name, "not_found")
			o.metrics.ObserveProviderLatency(name, latency.Seconds())
		}
		return nil, providers.NewError(providers.ErrorNotFound, name, "no record found", nil)
	}

	if o.metrics != nil {
		o.metrics.RecordProviderSearch(name, "success")
		o.metrics.ObserveProviderLatency(name, latency.Seconds())
	}
	o.logger.InfoContext(ctx, "provider search succeeded",
		"provider", name,
		"latency_ms", latency.Milliseconds(),
	)
	return payload, nil
}

// recentlyUnhealthy reports whether the provider's last observation is both
// unhealthy and fresh enough to trust. Stale unhealthy records are retried.
func (o *Orchestrator) recentlyUnhealthy(name string) bool {
	h, ok := o.health.Get(name)
	if !ok || h.Healthy {
		return false
	}
	return time.Since(h.LastCheckedAt) < healthStaleness
}

// CheckAll probes every provider's health endpoint concurrently and records
// the outcomes. Used by the health surface, not the search path.
func (o *Orchestrator) CheckAll(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range o.registry.InPriorityOrder() {
		g.Go(func() error {
			start := time.Now()
			if err := p.CheckHealth(ctx); err != nil {
				o.health.RecordUnhealthy(p.Name(), err)
				return nil
			}
			o.health.RecordHealthy(p.Name(), time.Since(start))
			return nil
		})
	}
	_ = g.Wait()
}

// IsAllFailed reports whether err is the exhausted-registry outcome.
func IsAllFailed(err error) bool {
	return errors.Is(err, providers.ErrAllProvidersFailed)
}
