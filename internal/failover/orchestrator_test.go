package failover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personlens/internal/providers"
	"personlens/pkg/platform/circuit"
)

// countingProvider wraps a result or error and counts Search invocations.
type countingProvider struct {
	name     string
	priority int
	payload  providers.Payload
	err      error
	calls    int
}

func (p *countingProvider) Name() string  { return p.name }
func (p *countingProvider) Priority() int { return p.priority }

func (p *countingProvider) Search(ctx context.Context, kind providers.SearchKind, params map[string]string) (providers.Payload, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

func (p *countingProvider) CheckHealth(ctx context.Context) error { return nil }

func newOrchestrator(t *testing.T, breakers *circuit.Registry, provs ...providers.Provider) *Orchestrator {
	t.Helper()
	registry := providers.NewRegistry()
	for _, p := range provs {
		require.NoError(t, registry.Register(p))
	}
	if breakers == nil {
		breakers = circuit.NewRegistry()
	}
	o, err := New(registry, breakers)
	require.NoError(t, err)
	return o
}

func TestSearchWithFailover_FirstSuccessWins(t *testing.T) {
	first := &countingProvider{name: "primary", priority: 1, payload: providers.Payload{"name": "Ada"}}
	second := &countingProvider{name: "secondary", priority: 2, payload: providers.Payload{"name": "Other"}}
	o := newOrchestrator(t, nil, second, first)

	result, err := o.Search(context.Background(), providers.KindName, map[string]string{"name": "Ada"})
	require.NoError(t, err)

	assert.Equal(t, "primary", result.Provider)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "lower-priority provider must not be tried after a success")
}

func TestSearchWithFailover_FallsBackOnFailure(t *testing.T) {
	first := &countingProvider{name: "primary", priority: 1, err: errors.New("connection refused")}
	second := &countingProvider{name: "secondary", priority: 2, payload: providers.Payload{"name": "Ada"}}
	o := newOrchestrator(t, nil, first, second)

	result, err := o.Search(context.Background(), providers.KindName, nil)
	require.NoError(t, err)
	assert.Equal(t, "secondary", result.Provider)

	h, ok := o.Health().Get("primary")
	require.True(t, ok)
	assert.False(t, h.Healthy)
	assert.Contains(t, h.LastError, "connection refused")

	h, ok = o.Health().Get("secondary")
	require.True(t, ok)
	assert.True(t, h.Healthy)
}

func TestSearchWithFailover_AllFail(t *testing.T) {
	first := &countingProvider{name: "primary", priority: 1, err: errors.New("boom")}
	second := &countingProvider{name: "secondary", priority: 2, err: errors.New("bang")}
	o := newOrchestrator(t, nil, first, second)

	_, err := o.Search(context.Background(), providers.KindEmail, nil)
	require.Error(t, err)
	assert.True(t, IsAllFailed(err))

	var allFailed *AllFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Errors, 2)
}

func TestSearchWithFailover_EmptyRegistry(t *testing.T) {
	o := newOrchestrator(t, nil)
	_, err := o.SearchWithFailover(context.Background(), func(ctx context.Context, p providers.Provider) (providers.Payload, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, providers.ErrNoProviders)
}

func TestSearchWithFailover_OpenBreakerSkipsProvider(t *testing.T) {
	breakers := circuit.NewRegistry(circuit.WithBreakerOptions(circuit.WithFailureThreshold(1)))
	breakers.RecordFailure("primary")
	require.True(t, breakers.IsOpen("primary"))

	first := &countingProvider{name: "primary", priority: 1, payload: providers.Payload{"x": 1}}
	second := &countingProvider{name: "secondary", priority: 2, payload: providers.Payload{"name": "Ada"}}
	o := newOrchestrator(t, breakers, first, second)

	result, err := o.Search(context.Background(), providers.KindName, nil)
	require.NoError(t, err)
	assert.Equal(t, "secondary", result.Provider)
	assert.Equal(t, 0, first.calls, "open breaker must block the call entirely")
}

func TestSearchWithFailover_BreakerTripsAfterRepeatedFailures(t *testing.T) {
	breakers := circuit.NewRegistry(circuit.WithBreakerOptions(circuit.WithFailureThreshold(2)))
	failing := &countingProvider{name: "primary", priority: 1, err: errors.New("boom")}
	o := newOrchestrator(t, breakers, failing)

	// Health gating would keep a freshly failed provider out of rotation, so
	// age the record between searches to let the breaker see each failure.
	_, _ = o.Search(context.Background(), providers.KindEmail, nil)
	ageHealthRecord(o, "primary")
	_, _ = o.Search(context.Background(), providers.KindEmail, nil)
	assert.True(t, breakers.IsOpen("primary"))

	// Third call is blocked by the breaker before reaching the provider.
	ageHealthRecord(o, "primary")
	_, err := o.Search(context.Background(), providers.KindEmail, nil)
	require.Error(t, err)
	assert.Equal(t, 2, failing.calls)
}

// ageHealthRecord pushes a provider's last observation past the staleness
// window so only the breaker can block it.
func ageHealthRecord(o *Orchestrator, name string) {
	o.health.mu.Lock()
	defer o.health.mu.Unlock()
	h, ok := o.health.byName[name]
	if !ok {
		return
	}
	h.LastCheckedAt = h.LastCheckedAt.Add(-healthStaleness - time.Minute)
	o.health.byName[name] = h
}

func TestSearchWithFailover_RecentUnhealthySkipped(t *testing.T) {
	failing := &countingProvider{name: "primary", priority: 1, err: errors.New("boom")}
	second := &countingProvider{name: "secondary", priority: 2, payload: providers.Payload{"name": "Ada"}}
	o := newOrchestrator(t, nil, failing, second)

	// First search marks primary unhealthy.
	_, err := o.Search(context.Background(), providers.KindName, nil)
	require.NoError(t, err)
	require.Equal(t, 1, failing.calls)

	// Second search skips primary: the unhealthy record is fresh.
	_, err = o.Search(context.Background(), providers.KindName, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
}

func TestSearchWithFailover_StaleUnhealthyRetried(t *testing.T) {
	failing := &countingProvider{name: "primary", priority: 1, err: errors.New("boom")}
	second := &countingProvider{name: "secondary", priority: 2, payload: providers.Payload{"name": "Ada"}}
	o := newOrchestrator(t, nil, failing, second)

	_, err := o.Search(context.Background(), providers.KindName, nil)
	require.NoError(t, err)
	require.Equal(t, 1, failing.calls)

	// Age the unhealthy record past the staleness window.
	ageHealthRecord(o, "primary")

	_, err = o.Search(context.Background(), providers.KindName, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, failing.calls, "stale unhealthy records are retried")
}

func TestSearchWithFailover_NotFoundDoesNotTripBreaker(t *testing.T) {
	breakers := circuit.NewRegistry(circuit.WithBreakerOptions(circuit.WithFailureThreshold(1)))
	empty := &countingProvider{
		name:     "primary",
		priority: 1,
		err:      providers.NewError(providers.ErrorNotFound, "primary", "no record found", nil),
	}
	o := newOrchestrator(t, breakers, empty)

	_, err := o.Search(context.Background(), providers.KindEmail, nil)
	require.Error(t, err)
	assert.True(t, providers.IsNotFound(err))

	assert.False(t, breakers.IsOpen("primary"), "an authoritative no-record answer is not a provider failure")
	h, ok := o.Health().Get("primary")
	require.True(t, ok)
	assert.True(t, h.Healthy)
}

func TestAllFailedError_KeepsNotFoundVisible(t *testing.T) {
	empty := &countingProvider{
		name:     "primary",
		priority: 1,
		err:      providers.NewError(providers.ErrorNotFound, "primary", "no record found", nil),
	}
	o := newOrchestrator(t, nil, empty)

	_, err := o.Search(context.Background(), providers.KindEmail, nil)
	require.Error(t, err)
	assert.True(t, providers.IsNotFound(err), "callers classify not-found from the failover error")
}

func TestCheckAll_RecordsHealth(t *testing.T) {
	healthy := &providers.StaticProvider{ProviderName: "primary", ProviderPriority: 1}
	unhealthy := &providers.StaticProvider{ProviderName: "secondary", ProviderPriority: 2, Unhealthy: true}
	o := newOrchestrator(t, nil, healthy, unhealthy)

	o.CheckAll(context.Background())

	h, ok := o.Health().Get("primary")
	require.True(t, ok)
	assert.True(t, h.Healthy)

	h, ok = o.Health().Get("secondary")
	require.True(t, ok)
	assert.False(t, h.Healthy)
}
