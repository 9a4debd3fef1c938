package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiningService(st *memory.Store, now time.Time) *MiningService {
	s := NewMiningService(st, mining.DefaultRules(), NewAuditService())
	s.SetClock(fixedClock(now))
	return s
}

func TestMiningService_StartAndClaim(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, nil)
	ctx := context.Background()

	u, err := newTestMiningService(st, testNow).Start(ctx, 1)
	require.NoError(t, err)
	assert.True(t, u.IsMining)

	_, _, err = newTestMiningService(st, testNow.Add(time.Minute)).Claim(ctx, 1)
	assert.ErrorIs(t, err, mining.ErrClaimNotReady)

	res, u, err := newTestMiningService(st, testNow.Add(time.Hour)).Claim(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.8, res.Earned)
	assert.Equal(t, 1.8, u.Balance)

	stored := getUser(t, st, 1)
	assert.Equal(t, 1.8, stored.Balance)
	assert.False(t, stored.IsMining)

	var actions []string
	for _, l := range st.AuditLogs() {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{domain.AuditActionMiningStart, domain.AuditActionMiningClaim}, actions)
}

func TestMiningService_ConcurrentClaimCreditsOnce(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, nil)
	ctx := context.Background()

	_, err := newTestMiningService(st, testNow).Start(ctx, 1)
	require.NoError(t, err)

	s := newTestMiningService(st, testNow.Add(time.Hour))
	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.Claim(ctx, 1); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, 1.8, getUser(t, st, 1).Balance)
}

func TestMiningService_Upgrade(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, func(u *domain.User) { u.Balance = 120 })
	ctx := context.Background()
	s := newTestMiningService(st, testNow)

	res, u, err := s.Upgrade(ctx, 1, mining.BoostMiningSpeed)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Cost)
	assert.Equal(t, float64(20), u.Balance)
	assert.Equal(t, 2, u.MiningSpeedLevel)

	_, _, err = s.Upgrade(ctx, 1, mining.BoostMiningSpeed)
	assert.ErrorIs(t, err, mining.ErrInsufficientBalance)
	assert.Equal(t, float64(20), getUser(t, st, 1).Balance)
}

func TestMiningService_StatusRejectsInactive(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, func(u *domain.User) { u.Status = domain.UserStatusSuspended })
	s := newTestMiningService(st, testNow)

	_, err := s.Status(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Status(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMiningService_Snapshot(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, nil)
	ctx := context.Background()

	_, err := newTestMiningService(st, testNow).Start(ctx, 1)
	require.NoError(t, err)

	u, err := newTestMiningService(st, testNow.Add(10*time.Minute)).Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, u.PendingRewards, 1e-9)
	assert.Zero(t, u.Balance)
}
