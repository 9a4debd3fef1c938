// Package ratelimit implements per-key fixed-window request limiting and the stricter
// ban-on-burst guard in front of it. Stores are injected; nothing here is process global.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is implemented by FixedWindow, RedisWindow and BanGuard.
// A non-nil error is for logging only; callers act on the returned Decision. A store error
// that leaves the limiter without a verdict yields an allowing Decision, while BanGuard keeps
// denying a key that already exceeded its burst even if recording the ban failed.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

// Counter is the persisted state of one fixed window. The zero Counter is an expired window.
type Counter struct {
	Count       int
	WindowStart time.Time
}

// Evaluate applies one request to c. A window older than window restarts at (1, now);
// otherwise the request is denied once count has reached limit, else counted.
func Evaluate(c Counter, limit int, window time.Duration, now time.Time) (Counter, Decision) {
	if c.WindowStart.IsZero() || now.Sub(c.WindowStart) >= window {
		return Counter{Count: 1, WindowStart: now}, Decision{Allowed: true, Remaining: max(0, limit-1)}
	}
	if c.Count >= limit {
		return c, Decision{RetryAfter: c.WindowStart.Add(window).Sub(now)}
	}
	c.Count++
	return c, Decision{Allowed: true, Remaining: limit - c.Count}
}

// CounterStore persists counters. Update must run load, fn and save atomically per key.
type CounterStore interface {
	Update(ctx context.Context, key string, fn func(Counter) Counter) error
}

// FixedWindow limits each key to Limit requests per Window.
type FixedWindow struct {
	store  CounterStore
	limit  int
	window time.Duration
}

func NewFixedWindow(store CounterStore, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{store: store, limit: limit, window: window}
}

func (f *FixedWindow) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	var d Decision
	err := f.store.Update(ctx, key, func(c Counter) Counter {
		next, dec := Evaluate(c, f.limit, f.window, now)
		d = dec
		return next
	})
	if err != nil {
		return Decision{Allowed: true}, err
	}
	return d, nil
}

// MemoryCounterStore keeps counters in process memory. Suitable for a single instance and tests.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]Counter
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]Counter)}
}

func (s *MemoryCounterStore) Update(_ context.Context, key string, fn func(Counter) Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = fn(s.counters[key])
	return nil
}

// Sweep drops windows that started before cutoff.
func (s *MemoryCounterStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, c := range s.counters {
		if c.WindowStart.Before(cutoff) {
			delete(s.counters, k)
			n++
		}
	}
	return n
}
