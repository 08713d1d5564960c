// Package circuit implements a per-service circuit breaker with a
// closed / open / half-open state machine. A breaker trips open after a
// configurable number of failures, blocks calls for a reset timeout, then
// admits trial probes in half-open state until enough consecutive successes
// close it again.
package circuit

import (
	"sync"
	"time"
)

// State is the breaker state machine position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

const (
	// DefaultFailureThreshold is the failure count that trips a closed breaker.
	DefaultFailureThreshold = 5

	// DefaultSuccessThreshold is the number of consecutive half-open trial
	// successes required to close the breaker.
	DefaultSuccessThreshold = 2

	// DefaultResetTimeout is how long an open breaker blocks before admitting
	// a trial probe.
	DefaultResetTimeout = 60 * time.Second
)

// StateChange reports transitions caused by a record operation so callers can
// log or count them without re-reading state.
type StateChange struct {
	From   State
	To     State
	Opened bool
	Closed bool
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Breaker is a mutex-guarded breaker for a single service name. All state
// mutations happen under the lock so concurrent successes and failures for the
// same service serialize correctly.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	successThreshold int
	resetTimeout     time.Duration
	clock            Clock

	state           State
	failureCount    int
	halfOpenSuccess int
	lastFailureAt   time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets the failure count that opens the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the half-open trial successes needed to close.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithResetTimeout sets how long the breaker stays open before a trial probe.
func WithResetTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithClock sets the time source for testability.
func WithClock(clock Clock) Option {
	return func(b *Breaker) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// New constructs a closed breaker for the given service name.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: DefaultFailureThreshold,
		successThreshold: DefaultSuccessThreshold,
		resetTimeout:     DefaultResetTimeout,
		clock:            time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the service name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, applying the open -> half-open time
// transition first so observers never see a stale open state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

// FailureCount returns the current failure counter.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// IsOpen reports whether calls should be blocked. When the reset timeout has
// elapsed on an open breaker it transitions to half-open and returns false,
// admitting exactly the trial probes the half-open state allows.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state == StateOpen
}

// maybeHalfOpen applies the time-based open -> half-open transition.
// Callers must hold b.mu.
func (b *Breaker) maybeHalfOpen() {
	if b.state == StateOpen && b.clock().Sub(b.lastFailureAt) > b.resetTimeout {
		b.state = StateHalfOpen
		b.halfOpenSuccess = 0
	}
}

// RecordSuccess registers a successful call. In half-open state it counts
// trial successes and closes the breaker once the success threshold is
// reached, zeroing the failure counter. In closed state each success decays
// the failure counter by one, so successes forgive prior failures gradually
// rather than instantly.
func (b *Breaker) RecordSuccess() StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	change := StateChange{From: b.state, To: b.state}

	switch b.state {
	case StateHalfOpen:
		b.halfOpenSuccess++
		if b.halfOpenSuccess >= b.successThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.halfOpenSuccess = 0
			change.To = StateClosed
			change.Closed = true
		}
	case StateClosed:
		if b.failureCount > 0 {
			b.failureCount--
		}
	}

	return change
}

// RecordFailure registers a failed call. Any failure in half-open state
// immediately reopens the breaker; in closed state the breaker opens once the
// failure counter reaches the threshold, never earlier.
func (b *Breaker) RecordFailure() StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	change := StateChange{From: b.state, To: b.state}

	b.failureCount++
	b.lastFailureAt = b.clock()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.halfOpenSuccess = 0
		change.To = StateOpen
		change.Opened = true
	case StateClosed:
		if b.failureCount >= b.failureThreshold {
			b.state = StateOpen
			change.To = StateOpen
			change.Opened = true
		}
	}

	return change
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenSuccess = 0
}

// Snapshot is a point-in-time view of breaker state for health reporting.
type Snapshot struct {
	Name          string    `json:"name"`
	State         State     `json:"state"`
	FailureCount  int       `json:"failure_count"`
	LastFailureAt time.Time `json:"last_failure_at,omitzero"`
}

// Snapshot returns the current observable state.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return Snapshot{
		Name:          b.name,
		State:         b.state,
		FailureCount:  b.failureCount,
		LastFailureAt: b.lastFailureAt,
	}
}
