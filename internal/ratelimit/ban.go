package ratelimit

import (
	"context"
	"sync"
	"time"
)

// BanStore remembers until when a key is banned. A zero time means not banned.
type BanStore interface {
	BannedUntil(ctx context.Context, key string) (time.Time, error)
	Ban(ctx context.Context, key string, until time.Time) error
}

// BanGuard is the anti-burst variant: a key that exceeds the inner limiter is banned for
// banFor, and the ban is checked before anything else on every request. If the ban cannot be
// stored the over-burst request is still denied and the store error is returned with it.
type BanGuard struct {
	bans   BanStore
	burst  Limiter
	banFor time.Duration
}

func NewBanGuard(bans BanStore, burst Limiter, banFor time.Duration) *BanGuard {
	return &BanGuard{bans: bans, burst: burst, banFor: banFor}
}

func (g *BanGuard) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	until, err := g.bans.BannedUntil(ctx, key)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if now.Before(until) {
		return Decision{RetryAfter: until.Sub(now)}, nil
	}

	d, err := g.burst.Allow(ctx, key, now)
	if err != nil || d.Allowed {
		return d, err
	}

	until = now.Add(g.banFor)
	if err := g.bans.Ban(ctx, key, until); err != nil {
		return Decision{RetryAfter: g.banFor}, err
	}
	return Decision{RetryAfter: g.banFor}, nil
}

// MemoryBanStore keeps bans in process memory.
type MemoryBanStore struct {
	mu   sync.Mutex
	bans map[string]time.Time
}

func NewMemoryBanStore() *MemoryBanStore {
	return &MemoryBanStore{bans: make(map[string]time.Time)}
}

func (s *MemoryBanStore) BannedUntil(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bans[key], nil
}

func (s *MemoryBanStore) Ban(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[key] = until
	return nil
}

// Sweep drops bans that expired before now.
func (s *MemoryBanStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, until := range s.bans {
		if !now.Before(until) {
			delete(s.bans, k)
			n++
		}
	}
	return n
}
