package ratelimit

import (
	"context"
	"time"

	"retreat/shared/cache"
)

// RedisStore shares counters across instances through the cache.
type RedisStore struct {
	cache  cache.RedisCache
	prefix string
}

func NewRedisStore(redisCache cache.RedisCache, prefix string) *RedisStore {
	return &RedisStore{cache: redisCache, prefix: prefix}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, duration time.Duration, now time.Time) (int64, time.Time, error) {
	count, ttl, err := s.cache.Incr(ctx, s.prefix+key, duration)
	if err != nil {
		return 0, time.Time{}, err //nolint:wrapcheck
	}

	return count, now.Add(ttl), nil
}
