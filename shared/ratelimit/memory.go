package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = 1024

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in process. It is only correct for a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	hits    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: map[string]*window{}}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, duration time.Duration, now time.Time) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits++
	if s.hits%sweepEvery == 0 {
		s.sweep(now)
	}

	entry, ok := s.windows[key]
	if !ok {
		entry = &window{resetAt: now.Add(duration)}
		s.windows[key] = entry
	}

	if now.After(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(duration)
	}

	entry.count++

	return entry.count, entry.resetAt, nil
}

// Len reports how many keys are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

// sweep drops expired windows so idle keys do not accumulate.
func (s *MemoryStore) sweep(now time.Time) {
	for key, entry := range s.windows {
		if now.After(entry.resetAt) {
			delete(s.windows, key)
		}
	}
}
