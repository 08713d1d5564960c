// Package usage applies approximate per-user search admission. Counts are
// read through a short-lived cache and incremented fire-and-forget, so the
// limit is advisory rather than exact.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
)

const (
	// DefaultMonthlyLimit caps searches per user per calendar month.
	DefaultMonthlyLimit = 10000

	// DefaultCacheTTL is how long a fetched count is trusted before the
	// backing store is consulted again.
	DefaultCacheTTL = 60 * time.Second
)

// CounterStore is the backing usage counter.
type CounterStore interface {
	Count(ctx context.Context, key string) (int64, error)
	Add(ctx context.Context, key string, n int64, expiry time.Duration) error
}

// Limiter admits or rejects search work against a monthly budget.
type Limiter struct {
	store    CounterStore
	limit    int64
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedCount
}

type cachedCount struct {
	value     int64
	fetchedAt time.Time
}

// LimiterOption configures the Limiter.
type LimiterOption func(*Limiter)

// WithMonthlyLimit overrides the per-user budget.
func WithMonthlyLimit(n int64) LimiterOption {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithCacheTTL overrides how long cached counts are trusted.
func WithCacheTTL(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.cacheTTL = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides time for tests.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter constructs a usage limiter over the given counter store.
func NewLimiter(store CounterStore, opts ...LimiterOption) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	l := &Limiter{
		store:    store,
		limit:    DefaultMonthlyLimit,
		cacheTTL: DefaultCacheTTL,
		logger:   slog.Default(),
		now:      time.Now,
		cache:    make(map[string]cachedCount),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// ConsumeSearches admits n searches for the user or rejects with an
// unavailable error. Admission uses the cached count, so short bursts can
// exceed the budget by design.
func (l *Limiter) ConsumeSearches(ctx context.Context, userID id.UserID, n int) error {
	key := l.monthKey(userID)

	count, err := l.cachedCount(ctx, key)
	if err != nil {
		// Counting is advisory: an unreadable counter must not block work.
		l.logger.WarnContext(ctx, "usage count read failed, admitting",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		count = 0
	}
	if count+int64(n) > l.limit {
		return domainerrors.New(domainerrors.CodeUnavailable,
			fmt.Sprintf("monthly search limit of %d reached", l.limit))
	}

	l.bumpCache(key, int64(n))
	go func() {
		// Fire-and-forget increment with its own deadline.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.store.Add(ctx, key, int64(n), monthExpiry); err != nil {
			l.logger.WarnContext(ctx, "usage increment failed",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}()
	return nil
}

// monthExpiry keeps stale month counters from accumulating forever.
const monthExpiry = 35 * 24 * time.Hour

func (l *Limiter) monthKey(userID id.UserID) string {
	return fmt.Sprintf("usage:%s:%s", userID.String(), l.now().UTC().Format("2006-01"))
}

func (l *Limiter) cachedCount(ctx context.Context, key string) (int64, error) {
	l.mu.Lock()
	entry, ok := l.cache[key]
	fresh := ok && l.now().Sub(entry.fetchedAt) < l.cacheTTL
	l.mu.Unlock()
	if fresh {
		return entry.value, nil
	}

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	l.cache[key] = cachedCount{value: count, fetchedAt: l.now()}
	l.mu.Unlock()
	return count, nil
}

// bumpCache keeps the cached count roughly current between refreshes so a
// burst inside one TTL window still counts against itself.
func (l *Limiter) bumpCache(key string, n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.cache[key]; ok {
		entry.value += n
		l.cache[key] = entry
	}
}
