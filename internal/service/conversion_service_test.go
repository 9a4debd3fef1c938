package service

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestConversion_CreateDebits(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, func(u *domain.User) { u.Balance = 500 })
	ctx := context.Background()
	s := NewConversionService(st, NewAuditService())
	s.now = fixedClock(testNow)

	c, err := s.Create(ctx, 1, ConversionRequest{
		FromCurrency: "DRX", ToCurrency: "USDT", Amount: 300, ConvertedAmount: 3,
		Category: "crypto", PackageType: "small",
		RequiredInfo: map[string]string{"wallet": "T123"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.ID, "conv_"))
	assert.Equal(t, domain.ConversionStatusPending, c.Status)
	assert.Equal(t, float64(200), getUser(t, st, 1).Balance)

	_, err = s.Create(ctx, 1, ConversionRequest{Amount: 201})
	assert.ErrorIs(t, err, mining.ErrInsufficientBalance)
	assert.Equal(t, float64(200), getUser(t, st, 1).Balance)

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err = s.Create(ctx, 1, ConversionRequest{Amount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func newTestAdminService(t *testing.T, st *memory.Store) *AdminService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	s := NewAdminService(st, NewAuditService(), NewTokenIssuer("jwt-secret", time.Hour),
		AdminConfig{Username: "root", PasswordHash: string(hash)})
	s.now = fixedClock(testNow)
	return s
}

func TestAdmin_Login(t *testing.T) {
	s := newTestAdminService(t, memory.New())

	token, err := s.Login("root", "s3cret")
	require.NoError(t, err)
	admin, err := s.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "root", admin)

	_, err = s.Login("root", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("admin", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdmin_ResolveConversion(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, func(u *domain.User) { u.Balance = 1000 })
	ctx := context.Background()
	conv := NewConversionService(st, NewAuditService())
	admin := newTestAdminService(t, st)

	a, err := conv.Create(ctx, 1, ConversionRequest{Amount: 100})
	require.NoError(t, err)
	b, err := conv.Create(ctx, 1, ConversionRequest{Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, float64(650), getUser(t, st, 1).Balance)

	pending, err := admin.PendingConversions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	approved, err := admin.ResolveConversion(ctx, "root", a.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversionStatusApproved, approved.Status)
	assert.Equal(t, float64(650), getUser(t, st, 1).Balance)

	rejected, err := admin.ResolveConversion(ctx, "root", b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversionStatusRejected, rejected.Status)
	assert.Equal(t, float64(900), getUser(t, st, 1).Balance, "rejection refunds")

	_, err = admin.ResolveConversion(ctx, "root", b.ID, false)
	assert.ErrorIs(t, err, ErrConversionNotPending)
	assert.Equal(t, float64(900), getUser(t, st, 1).Balance)

	_, err = admin.ResolveConversion(ctx, "root", "conv_missing", true)
	assert.ErrorIs(t, err, ErrConversionNotFound)

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.PendingConversions)
	assert.Equal(t, int64(1), stats.TotalUsers)
}

func TestAdmin_SetUserStatus(t *testing.T) {
	st := memory.New()
	seedUser(t, st, 1, nil)
	ctx := context.Background()
	s := newTestAdminService(t, st)

	u, err := s.SetUserStatus(ctx, "root", 1, domain.UserStatusBanned)
	require.NoError(t, err)
	assert.False(t, u.IsActive())

	_, err = s.SetUserStatus(ctx, "root", 1, domain.UserStatus("deleted"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.SetUserStatus(ctx, "root", 2, domain.UserStatusActive)
	assert.ErrorIs(t, err, ErrUserNotFound)

	logs := st.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "root", logs[0].Details["admin"])
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Generate("root")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	assert.Error(t, err)

	expired, err := NewTokenIssuer("secret", -time.Minute).Generate("root")
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.Error(t, err)
}
