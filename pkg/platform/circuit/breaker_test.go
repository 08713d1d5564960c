package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestBreaker_InitialState(t *testing.T) {
	b := New("test")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "test", b.Name())
}

func TestBreaker_OpensExactlyAtThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	// First two failures don't open
	change := b.RecordFailure()
	assert.False(t, change.Opened)

	change = b.RecordFailure()
	assert.False(t, change.Opened)
	assert.False(t, b.IsOpen())

	// Third failure opens the circuit
	change = b.RecordFailure()
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	clock := newFakeClock()
	b := New("test", WithFailureThreshold(1), WithResetTimeout(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	require.True(t, b.IsOpen())

	// Still open right at the boundary
	clock.Advance(time.Minute)
	assert.True(t, b.IsOpen())

	// Strictly past the reset timeout: half-open, one probe allowed
	clock.Advance(time.Second)
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_ClosesAfterTrialSuccesses(t *testing.T) {
	clock := newFakeClock()
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(2), WithClock(clock.Now))

	b.RecordFailure()
	require.True(t, b.IsOpen())

	clock.Advance(DefaultResetTimeout + time.Second)
	require.False(t, b.IsOpen())

	// First trial success doesn't close
	change := b.RecordSuccess()
	assert.False(t, change.Closed)
	assert.Equal(t, StateHalfOpen, b.State())

	// Second closes and zeroes the failure counter
	change = b.RecordSuccess()
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_FailureInHalfOpenReopens(t *testing.T) {
	clock := newFakeClock()
	b := New("test", WithFailureThreshold(1), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(DefaultResetTimeout + time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	change := b.RecordFailure()
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_SuccessDecaysFailureCount(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	// Two failures, one success: counter decays to 1, not 0
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, 1, b.FailureCount())

	// One more failure brings the counter to 2, still below threshold
	change := b.RecordFailure()
	assert.False(t, change.Opened)

	// Next failure reaches the threshold
	change = b.RecordFailure()
	assert.True(t, change.Opened)
}

func TestBreaker_DecayFloorsAtZero(t *testing.T) {
	b := New("test")
	b.RecordSuccess()
	b.RecordSuccess()
	assert.Equal(t, 0, b.FailureCount())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("test", WithFailureThreshold(1))

	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

// TestBreaker_RecoveryScenario covers the full lifecycle: two failures with
// threshold 2 open the breaker, the reset timeout elapses, and two trial
// successes close it with a clean failure counter.
func TestBreaker_RecoveryScenario(t *testing.T) {
	clock := newFakeClock()
	b := New("X", WithFailureThreshold(2), WithClock(clock.Now))

	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	clock.Advance(DefaultResetTimeout + time.Millisecond)
	require.False(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordSuccess()

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.FailureCount())
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry(WithBreakerOptions(WithFailureThreshold(2)))
	ctx := context.Background()
	boom := errors.New("boom")

	// Failures propagate and trip the breaker at the threshold
	err := r.Execute(ctx, "svc", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	err = r.Execute(ctx, "svc", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	// Open breaker blocks without invoking fn
	called := false
	err = r.Execute(ctx, "svc", func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	// Other services are unaffected
	err = r.Execute(ctx, "other", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestRegistry_ExecuteWithFallback(t *testing.T) {
	r := NewRegistry(WithBreakerOptions(WithFailureThreshold(1)))
	ctx := context.Background()

	_ = r.Execute(ctx, "svc", func(context.Context) error { return errors.New("boom") })
	require.True(t, r.IsOpen("svc"))

	var usedFallback bool
	err := r.ExecuteWithFallback(ctx, "svc",
		func(context.Context) error { return nil },
		func(context.Context) error {
			usedFallback = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, usedFallback)
}

func TestRegistry_StateChangeHook(t *testing.T) {
	type transition struct {
		name     string
		from, to State
	}
	var seen []transition
	r := NewRegistry(
		WithBreakerOptions(WithFailureThreshold(1)),
		WithStateChangeHook(func(name string, from, to State) {
			seen = append(seen, transition{name, from, to})
		}),
	)

	r.RecordFailure("svc")
	require.Len(t, seen, 1)
	assert.Equal(t, transition{"svc", StateClosed, StateOpen}, seen[0])
}

func TestRegistry_ConcurrentRecording(t *testing.T) {
	r := NewRegistry(WithBreakerOptions(WithFailureThreshold(1000)))

	done := make(chan struct{})
	for range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 50 {
				r.RecordFailure("svc")
			}
		}()
	}
	for range 10 {
		<-done
	}

	assert.Equal(t, 500, r.Get("svc").FailureCount())
}
