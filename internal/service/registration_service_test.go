package service

import (
	"context"
	"testing"

	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 10, nil)
	ctx := context.Background()
	s := NewRegistrationService(st, mining.DefaultRules())
	s.now = fixedClock(testNow)

	u, created, err := s.Register(ctx, Registration{ID: 20, FirstName: "New", ReferrerID: 10})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, u.AuthKey, 64)
	assert.Len(t, u.RefAuth, 32)
	assert.Equal(t, int64(10), u.ReferredBy)
	assert.Equal(t, "refauth-10", u.RefAuthUsed)
	assert.Equal(t, testNow.UnixMilli(), u.JoinedAt)
	assert.Equal(t, 1, u.MiningRateLevel)

	again, created, err := s.Register(ctx, Registration{ID: 20, FirstName: "Changed"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.AuthKey, again.AuthKey)

	self, _, err := s.Register(ctx, Registration{ID: 30, ReferrerID: 30})
	require.NoError(t, err)
	assert.Zero(t, self.ReferredBy)

	unknown, _, err := s.Register(ctx, Registration{ID: 40, ReferrerID: 999})
	require.NoError(t, err)
	assert.Zero(t, unknown.ReferredBy)
	assert.Empty(t, unknown.RefAuthUsed)
}
