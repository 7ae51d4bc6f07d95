// Package ratelimit implements a fixed-window request counter.
//
// Each key gets a window that opens on its first hit and lasts for the configured duration.
// Bursts across a window boundary are possible, up to twice the limit in a short span.
package ratelimit

//go:generate go run go.uber.org/mock/mockgen -source=./ratelimit.go -destination=./mocks/ratelimit_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"retreat/config"
	"retreat/shared/cache"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Result describes the state of a key after a hit.
type Result struct {
	Allowed           bool
	Limit             int
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

// Store counts hits per key within a window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (count int64, resetAt time.Time, err error)
}

// Checker is what the HTTP middleware depends on.
type Checker interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

type Limiter struct {
	store Store
	now   func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(store Store, opts ...Option) *Limiter {
	limiter := &Limiter{
		store: store,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(limiter)
	}

	return limiter
}

// NewFromConfig picks the backing store from APP_RATE_LIMITER_STORE; redisCache may be nil for memory.
func NewFromConfig(cfg *config.Config, redisCache cache.RedisCache) Checker {
	if cfg.App.RateLimiter.Store == StoreRedis && redisCache != nil {
		return New(NewRedisStore(redisCache, "ratelimit:"))
	}

	return New(NewMemoryStore())
}

// Check records a hit for key and reports whether it is within limit.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()

	count, resetAt, err := l.store.Hit(ctx, key, window, now)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count hit for %q: %w", key, err)
	}

	return Result{
		Allowed:           count <= int64(limit),
		Limit:             limit,
		Remaining:         int(max(0, int64(limit)-count)),
		ResetAt:           resetAt,
		RetryAfterSeconds: retryAfterSeconds(resetAt.Sub(now)),
	}, nil
}

// retryAfterSeconds rounds up so clients never retry before the window reopens.
func retryAfterSeconds(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}

	return int((remaining + time.Second - 1) / time.Second)
}
