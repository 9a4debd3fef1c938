package service

import (
	"context"
	"sync"
	"testing"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBonusService(st *memory.Store) *BonusService {
	s := NewBonusService(st, DefaultBonusConfig(), NewAuditService())
	s.now = fixedClock(testNow)
	return s
}

func TestClaimWelcomeBonus_WithReferral(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 10, nil)
	seedUser(t, st, 20, func(u *domain.User) {
		u.ReferredBy = 10
		u.RefAuthUsed = "refauth-10"
	})
	s := newTestBonusService(st)
	ctx := context.Background()

	res, err := s.ClaimWelcomeBonus(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, float64(100), res.Bonus)
	assert.True(t, res.ReferralCredited)
	assert.Equal(t, float64(100), res.User.Balance)
	assert.True(t, res.User.BonusClaimed)

	ref := getUser(t, st, 10)
	assert.Equal(t, float64(200), ref.Balance)
	assert.Equal(t, float64(200), ref.TotalEarned)
	assert.Equal(t, 1, ref.ReferralCount)
	assert.Equal(t, int64(60), ref.XP)

	_, err = s.ClaimWelcomeBonus(ctx, 20)
	assert.ErrorIs(t, err, ErrBonusAlreadyClaimed)
	assert.Equal(t, float64(200), getUser(t, st, 10).Balance)
	assert.Len(t, st.Referrals(), 1)

	sum, err := s.Referrals(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, float64(200), sum.TotalEarned)
	assert.Equal(t, int64(20), sum.Referrals[0].ReferredID)
}

func TestClaimWelcomeBonus_RejectedReferrals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *domain.User)
	}{
		{"no referrer", nil},
		{"stale ref auth", func(u *domain.User) { u.ReferredBy = 10; u.RefAuthUsed = "rotated" }},
		{"unknown referrer", func(u *domain.User) { u.ReferredBy = 77; u.RefAuthUsed = "refauth-77" }},
		{"self referral", func(u *domain.User) { u.ReferredBy = 20; u.RefAuthUsed = "refauth-20" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			seedUser(t, st, 10, nil)
			seedUser(t, st, 20, tt.mutate)

			res, err := newTestBonusService(st).ClaimWelcomeBonus(context.Background(), 20)
			require.NoError(t, err)
			assert.False(t, res.ReferralCredited)
			assert.Equal(t, float64(100), res.User.Balance)
			assert.Zero(t, getUser(t, st, 10).Balance)
			assert.Empty(t, st.Referrals())
		})
	}
}

func TestClaimWelcomeBonus_ConcurrentCreditsOnce(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 10, nil)
	seedUser(t, st, 20, func(u *domain.User) {
		u.ReferredBy = 10
		u.RefAuthUsed = "refauth-10"
	})
	s := newTestBonusService(st)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ClaimWelcomeBonus(context.Background(), 20)
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(100), getUser(t, st, 20).Balance)
	ref := getUser(t, st, 10)
	assert.Equal(t, float64(200), ref.Balance)
	assert.Equal(t, 1, ref.ReferralCount)
}

func TestClaimWelcomeBonus_UnknownUser(t *testing.T) {
	_, err := newTestBonusService(memory.New()).ClaimWelcomeBonus(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
