package service

import (
	"context"
	"testing"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMissions(st *memory.Store) {
	st.AddMission(domain.Mission{ID: "channel", Type: domain.MissionTypeJoinChannel, ChannelID: "@drx_news", Reward: 50, Active: true, Priority: 1})
	st.AddMission(domain.Mission{ID: "site", Type: domain.MissionTypeURLTimer, URL: "https://example.org", RequiredTime: 30, Reward: 20, Active: true, Priority: 2})
	st.AddMission(domain.Mission{ID: "promo", Type: domain.MissionTypePromoCode, Code: "SPRING", Reward: 75, Active: true, Priority: 3})
	st.AddMission(domain.Mission{ID: "invite", Type: domain.MissionTypeInviteFriends, RequiredCount: 3, Reward: 300, Active: true, Priority: 4})
	st.AddMission(domain.Mission{ID: "old", Type: domain.MissionTypeURLTimer, Reward: 1, Active: false})
}

func newTestMissionService(st *memory.Store, members MembershipChecker, now time.Time) *MissionService {
	s := NewMissionService(st, members, NewAuditService())
	s.SetClock(fixedClock(now))
	return s
}

func TestActiveMissions(t *testing.T) {
	st := memory.New()
	seedMissions(st)

	list, err := newTestMissionService(st, fakeMembers{}, testNow).ActiveMissions(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"channel", "site", "promo", "invite"}, ids)
}

func TestClaimMission_JoinChannel(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, nil)
	seedUser(t, st, 2, nil)
	ctx := context.Background()
	s := newTestMissionService(st, fakeMembers{1: true}, testNow)

	_, err := s.ClaimMission(ctx, 2, "channel", "")
	assert.ErrorIs(t, err, ErrMissionNotCompleted)

	res, err := s.ClaimMission(ctx, 1, "channel", "")
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Reward)
	assert.Equal(t, float64(50), res.User.Balance)

	_, err = s.ClaimMission(ctx, 1, "channel", "")
	assert.ErrorIs(t, err, ErrMissionAlreadyClaimed)
	assert.Equal(t, float64(50), getUser(t, st, 1).Balance)
}

func TestClaimMission_URLTimer(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, nil)
	ctx := context.Background()

	_, err := newTestMissionService(st, nil, testNow).ClaimMission(ctx, 1, "site", "")
	assert.ErrorIs(t, err, ErrMissionNotStarted)

	um, err := newTestMissionService(st, nil, testNow).StartMission(ctx, 1, "site")
	require.NoError(t, err)
	assert.Equal(t, testNow.UnixMilli(), um.TimerStarted)

	// a second start keeps the original timer
	um, err = newTestMissionService(st, nil, testNow.Add(20*time.Second)).StartMission(ctx, 1, "site")
	require.NoError(t, err)
	assert.Equal(t, testNow.UnixMilli(), um.TimerStarted)

	_, err = newTestMissionService(st, nil, testNow.Add(29*time.Second)).ClaimMission(ctx, 1, "site", "")
	assert.ErrorIs(t, err, ErrMissionNotCompleted)

	res, err := newTestMissionService(st, nil, testNow.Add(30*time.Second)).ClaimMission(ctx, 1, "site", "")
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.Reward)

	list, err := st.ListUserMissions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Claimed)
	assert.True(t, list[0].Completed)
}

func TestClaimMission_PromoCode(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, nil)
	ctx := context.Background()
	s := newTestMissionService(st, nil, testNow)

	_, err := s.ClaimMission(ctx, 1, "promo", "WINTER")
	assert.ErrorIs(t, err, ErrMissionNotCompleted)

	res, err := s.ClaimMission(ctx, 1, "promo", "SPRING")
	require.NoError(t, err)
	assert.Equal(t, float64(75), res.User.Balance)
}

func TestClaimMission_InviteFriends(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, func(u *domain.User) { u.ReferralCount = 2 })
	seedUser(t, st, 2, func(u *domain.User) { u.ReferralCount = 3 })
	ctx := context.Background()
	s := newTestMissionService(st, nil, testNow)

	_, err := s.ClaimMission(ctx, 1, "invite", "")
	assert.ErrorIs(t, err, ErrMissionNotCompleted)

	_, err = s.ClaimMission(ctx, 2, "invite", "")
	assert.NoError(t, err)
}

func TestClaimMission_Inactive(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, nil)
	s := newTestMissionService(st, nil, testNow)

	_, err := s.ClaimMission(context.Background(), 1, "old", "")
	assert.ErrorIs(t, err, ErrMissionNotFound)

	_, err = s.StartMission(context.Background(), 1, "missing")
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestRedeemPromoCode(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, nil)
	seedUser(t, st, 2, nil)
	expired := testNow.Add(-time.Hour)
	st.AddPromoCode(domain.PromoCode{ID: "p1", Code: "GIFT", Reward: 40})
	st.AddPromoCode(domain.PromoCode{ID: "p2", Code: "LATE", Reward: 40, ExpiresAt: &expired})
	ctx := context.Background()
	s := newTestMissionService(st, nil, testNow)

	res, err := s.RedeemPromoCode(ctx, 1, "GIFT")
	require.NoError(t, err)
	assert.True(t, res.Credited)
	assert.Equal(t, float64(40), getUser(t, st, 1).Balance)

	_, err = s.RedeemPromoCode(ctx, 2, "GIFT")
	assert.ErrorIs(t, err, ErrInvalidPromoCode, "single use")

	_, err = s.RedeemPromoCode(ctx, 2, "LATE")
	assert.ErrorIs(t, err, ErrInvalidPromoCode, "expired")

	_, err = s.RedeemPromoCode(ctx, 2, "")
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
}

func TestRedeemPromoCode_FallsBackToMission(t *testing.T) {
	st := memory.New()
	seedMissions(st)
	seedUser(t, st, 1, nil)
	ctx := context.Background()
	s := newTestMissionService(st, nil, testNow)

	res, err := s.RedeemPromoCode(ctx, 1, "SPRING")
	require.NoError(t, err)
	assert.False(t, res.Credited)
	assert.Equal(t, "promo", res.MissionID)
	assert.Zero(t, getUser(t, st, 1).Balance, "reward waits for the mission claim")

	claim, err := s.ClaimMission(ctx, 1, "promo", "")
	require.NoError(t, err)
	assert.Equal(t, float64(75), claim.User.Balance)
}
