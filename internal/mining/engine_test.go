package mining

import (
	"testing"
	"time"

	"mining_webapp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestUser() *domain.User {
	u := &domain.User{ID: 42}
	DefaultRules().NewUserDefaults(u)
	return u
}

func assertInvariant(t *testing.T, u *domain.User) {
	t.Helper()
	assert.Equal(t, u.IsMining, u.MiningStartTime > 0, "isMining must match miningStartTime > 0")
}

func TestStart_FromIdle(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	u.PendingRewards = 3

	require.NoError(t, r.Start(u, t0))

	assert.True(t, u.IsMining)
	assert.Equal(t, t0.UnixMilli(), u.MiningStartTime)
	assert.Zero(t, u.PendingRewards)
	assertInvariant(t, u)
}

func TestStart_AlreadyMining(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	require.NoError(t, r.Start(u, t0))

	err := r.Start(u, t0.Add(time.Minute))

	assert.ErrorIs(t, err, ErrAlreadyMining)
	assert.Equal(t, t0.UnixMilli(), u.MiningStartTime, "second start must not restart the session")
}

func TestClaim_EarnedIsCapped(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		earned  float64
		xp      int64
	}{
		{"exactly min claim time", 1800 * time.Second, 1.8, 30},
		{"past the cap", 3600 * time.Second, 1.8, 30},
		{"far past the cap", 48 * time.Hour, 1.8, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			u := newTestUser()
			require.NoError(t, r.Start(u, t0))

			res, err := r.Claim(u, t0.Add(tt.elapsed))
			require.NoError(t, err)

			assert.Equal(t, tt.earned, res.Earned)
			assert.Equal(t, tt.xp, res.XP)
			assert.Equal(t, tt.earned, u.Balance)
			assert.Equal(t, tt.earned, u.TotalEarned)
			assert.Equal(t, tt.xp, u.XP)
			assert.False(t, u.IsMining)
			assert.Zero(t, u.MiningStartTime)
			assert.Zero(t, u.PendingRewards)
			assert.Equal(t, t0.Add(tt.elapsed).UnixMilli(), u.LastClaimTime)
			assertInvariant(t, u)
		})
	}
}

func TestClaim_BelowCapUsesElapsed(t *testing.T) {
	r := DefaultRules()
	r.MaxMiningTime = 86400
	r.MinClaimTime = 300
	u := newTestUser()
	u.MinClaimTime = 300
	require.NoError(t, r.Start(u, t0))

	res, err := r.Claim(u, t0.Add(3600*time.Second+999*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 3.6, res.Earned)
	assert.Equal(t, int64(60), res.XP)
}

func TestClaim_TooEarlyIsNoop(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	u.Balance = 5
	require.NoError(t, r.Start(u, t0))
	before := *u

	_, err := r.Claim(u, t0.Add(1799*time.Second))

	assert.ErrorIs(t, err, ErrClaimNotReady)
	assert.Equal(t, before, *u)
}

func TestClaim_IntervalGuard(t *testing.T) {
	r := DefaultRules()
	r.MinClaimTime = 0
	u := newTestUser()
	u.MinClaimTime = 0
	u.LastClaimTime = t0.UnixMilli()
	require.NoError(t, r.Start(u, t0))
	before := *u

	_, err := r.Claim(u, t0.Add(299*time.Second))
	assert.ErrorIs(t, err, ErrClaimNotReady)
	assert.Equal(t, before, *u)

	_, err = r.Claim(u, t0.Add(300*time.Second))
	assert.NoError(t, err)
}

func TestClaim_ReplayCreditsOnce(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	require.NoError(t, r.Start(u, t0))
	at := t0.Add(time.Hour)

	_, err := r.Claim(u, at)
	require.NoError(t, err)
	balance := u.Balance

	_, err = r.Claim(u, at)
	assert.ErrorIs(t, err, ErrNotMining)
	assert.Equal(t, balance, u.Balance)
}

func TestClaim_WhileIdle(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()

	_, err := r.Claim(u, t0)

	assert.ErrorIs(t, err, ErrNotMining)
	assertInvariant(t, u)
}

func TestStatus_Idle(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()

	st := r.Status(u, t0)

	assert.False(t, st.IsMining)
	assert.False(t, st.CanClaim)
	assert.Zero(t, st.MiningDuration)
	assert.Zero(t, st.PendingRewards)
	assert.Equal(t, int64(1800), st.RemainingTime)
	assert.Zero(t, st.ClaimCooldown)
}

func TestStatus_Mining(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	u.LastClaimTime = t0.Add(-100 * time.Second).UnixMilli()
	require.NoError(t, r.Start(u, t0))
	before := *u

	st := r.Status(u, t0.Add(600*time.Second+500*time.Millisecond))

	assert.True(t, st.IsMining)
	assert.Equal(t, int64(600), st.MiningDuration)
	assert.InDelta(t, 0.6, st.PendingRewards, 1e-9)
	assert.False(t, st.CanClaim)
	assert.Equal(t, int64(1200), st.RemainingTime)
	assert.Zero(t, st.ClaimCooldown)
	assert.Equal(t, before, *u, "status must not mutate the user")
}

func TestStatus_CanClaimMatchesClaim(t *testing.T) {
	r := DefaultRules()
	for _, secs := range []int64{0, 299, 1799, 1800, 1801, 7200} {
		u := newTestUser()
		require.NoError(t, r.Start(u, t0))
		at := t0.Add(time.Duration(secs) * time.Second)

		st := r.Status(u, at)
		_, err := r.Claim(u, at)

		assert.Equal(t, st.CanClaim, err == nil, "elapsed=%d", secs)
	}
}

func TestStatus_Cooldown(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	u.LastClaimTime = t0.UnixMilli()

	st := r.Status(u, t0.Add(120*time.Second))

	assert.Equal(t, int64(180), st.ClaimCooldown)
}

func TestSnapshot_DoesNotCredit(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()
	u.Balance = 10
	require.NoError(t, r.Start(u, t0))

	r.Snapshot(u, t0.Add(2*time.Hour))

	assert.Equal(t, 1.8, u.PendingRewards)
	assert.Equal(t, float64(10), u.Balance)
	assert.True(t, u.IsMining)
	assert.Equal(t, t0.UnixMilli(), u.MiningStartTime)
	assert.Equal(t, t0.Add(2*time.Hour).UnixMilli(), u.LastActive)
}

func TestSnapshot_Idle(t *testing.T) {
	r := DefaultRules()
	u := newTestUser()

	r.Snapshot(u, t0)

	assert.Zero(t, u.PendingRewards)
	assert.False(t, u.IsMining)
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 0.00000001, RoundAmount(0.000000009))
	assert.Equal(t, 1.23456789, RoundAmount(1.234567891))
}
