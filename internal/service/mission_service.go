package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"
)

// MembershipChecker reports whether a user is a member of a Telegram chat.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64, chatID string) bool
}

// MissionService handles mission progress, reward claims and promo codes.
type MissionService struct {
	store   repository.Store
	members MembershipChecker
	audit   *AuditService
	now     func() time.Time
}

func NewMissionService(store repository.Store, members MembershipChecker, audit *AuditService) *MissionService {
	return &MissionService{store: store, members: members, audit: audit, now: time.Now}
}

func (s *MissionService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MissionService) ActiveMissions(ctx context.Context) ([]domain.Mission, error) {
	return s.store.ActiveMissions(ctx)
}

func (s *MissionService) UserMissions(ctx context.Context, userID int64) ([]domain.UserMission, error) {
	return s.store.ListUserMissions(ctx, userID)
}

func (s *MissionService) activeMission(ctx context.Context, q repository.Queries, id string) (*domain.Mission, error) {
	m, err := q.GetMission(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	if !m.Active {
		return nil, ErrMissionNotFound
	}
	return m, nil
}

func loadUserMission(ctx context.Context, q repository.Queries, userID int64, missionID string) (*domain.UserMission, error) {
	um, err := q.GetUserMissionForUpdate(ctx, userID, missionID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.UserMission{UserID: userID, MissionID: missionID}, nil
	}
	return um, err
}

// StartMission marks a mission as started and starts its timer. Starting twice keeps the
// original timer.
func (s *MissionService) StartMission(ctx context.Context, userID int64, missionID string) (*domain.UserMission, error) {
	var out *domain.UserMission
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		if _, err := s.activeMission(ctx, q, missionID); err != nil {
			return err
		}
		um, err := loadUserMission(ctx, q, userID, missionID)
		if err != nil {
			return fmt.Errorf("lock user mission: %w", err)
		}
		if !um.Started {
			now := domain.NowMillis(s.now())
			um.Started = true
			um.StartedDate = now
			um.TimerStarted = now
			if err := q.UpsertUserMission(ctx, um); err != nil {
				return fmt.Errorf("upsert user mission: %w", err)
			}
		}
		out = um
		return nil
	})
	return out, err
}

// MissionClaim describes a credited mission reward.
type MissionClaim struct {
	MissionID string       `json:"missionId"`
	Reward    int64        `json:"reward"`
	User      *domain.User `json:"user"`
}

// ClaimMission verifies the mission requirement and credits the reward exactly once.
// code is only used by promo_code missions.
func (s *MissionService) ClaimMission(ctx context.Context, userID int64, missionID, code string) (MissionClaim, error) {
	m, err := s.activeMission(ctx, s.store, missionID)
	if err != nil {
		return MissionClaim{}, err
	}

	// membership is checked before the transaction so no row lock is held across the Bot API call
	member := false
	if m.Type == domain.MissionTypeJoinChannel || m.Type == domain.MissionTypeJoinGroup {
		member = s.members.IsMember(ctx, userID, m.ChannelID)
	}

	var res MissionClaim
	err = s.store.WithTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		um, err := loadUserMission(ctx, q, userID, missionID)
		if err != nil {
			return fmt.Errorf("lock user mission: %w", err)
		}
		if um.Claimed {
			return ErrMissionAlreadyClaimed
		}

		now := s.now()
		if err := s.verify(m, u, um, code, member, now); err != nil {
			return err
		}

		nowMs := domain.NowMillis(now)
		um.Started = true
		if um.StartedDate == 0 {
			um.StartedDate = nowMs
		}
		if !um.Completed {
			um.Completed = true
			um.CompletedAt = nowMs
		}
		um.Claimed = true
		um.ClaimedAt = nowMs
		if err := q.UpsertUserMission(ctx, um); err != nil {
			return fmt.Errorf("upsert user mission: %w", err)
		}

		u.Balance = mining.RoundAmount(u.Balance + float64(m.Reward))
		u.TotalEarned = mining.RoundAmount(u.TotalEarned + float64(m.Reward))
		u.LastActive = nowMs
		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := s.audit.Record(ctx, q, u.ID, domain.AuditActionMissionClaim, domain.AuditCategoryMission,
			map[string]any{"mission_id": m.ID, "reward": m.Reward}); err != nil {
			return err
		}
		res = MissionClaim{MissionID: m.ID, Reward: m.Reward, User: u}
		return nil
	})
	if err != nil {
		return MissionClaim{}, err
	}
	BonusCredits.WithLabelValues("mission").Inc()
	return res, nil
}

func (s *MissionService) verify(m *domain.Mission, u *domain.User, um *domain.UserMission, code string, member bool, now time.Time) error {
	if um.Completed {
		return nil
	}
	switch m.Type {
	case domain.MissionTypeJoinChannel, domain.MissionTypeJoinGroup:
		if member {
			return nil
		}
	case domain.MissionTypeURLTimer:
		if um.TimerStarted == 0 {
			return ErrMissionNotStarted
		}
		if domain.NowMillis(now)-um.TimerStarted >= m.RequiredTime*1000 {
			return nil
		}
	case domain.MissionTypePromoCode:
		if codeMatches(code, m.Code) || codeMatches(um.CodeSubmitted, m.Code) {
			um.CodeSubmitted = m.Code
			return nil
		}
	case domain.MissionTypeInviteFriends:
		if u.ReferralCount >= m.RequiredCount {
			return nil
		}
	}
	return ErrMissionNotCompleted
}

func codeMatches(given, want string) bool {
	return given != "" && want != "" && subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}

// PromoResult is either a credited promo code or a verified promo_code mission, which is
// then claimed through ClaimMission.
type PromoResult struct {
	Reward    int64        `json:"reward"`
	Credited  bool         `json:"credited"`
	MissionID string       `json:"missionId,omitempty"`
	User      *domain.User `json:"user,omitempty"`
}

// RedeemPromoCode redeems a single-use promo code, or falls back to marking a promo_code
// mission as completed for the user.
func (s *MissionService) RedeemPromoCode(ctx context.Context, userID int64, code string) (PromoResult, error) {
	if code == "" {
		return PromoResult{}, ErrInvalidPromoCode
	}

	var res PromoResult
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		now := s.now()

		p, err := q.GetPromoCodeForUpdate(ctx, code)
		switch {
		case err == nil && p.Redeemable(now):
			return s.redeem(ctx, q, u, p, now, &res)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("lock promo code: %w", err)
		}

		m, err := q.FindPromoMission(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidPromoCode
			}
			return err
		}
		um, err := loadUserMission(ctx, q, userID, m.ID)
		if err != nil {
			return fmt.Errorf("lock user mission: %w", err)
		}
		if !um.Completed {
			nowMs := domain.NowMillis(now)
			um.Started = true
			if um.StartedDate == 0 {
				um.StartedDate = nowMs
			}
			um.Completed = true
			um.CompletedAt = nowMs
			um.CodeSubmitted = code
			if err := q.UpsertUserMission(ctx, um); err != nil {
				return fmt.Errorf("upsert user mission: %w", err)
			}
		}
		res = PromoResult{Reward: m.Reward, MissionID: m.ID}
		return nil
	})
	if err != nil {
		return PromoResult{}, err
	}
	if res.Credited {
		BonusCredits.WithLabelValues("promo").Inc()
	}
	return res, nil
}

func (s *MissionService) redeem(ctx context.Context, q repository.Queries, u *domain.User, p *domain.PromoCode, now time.Time, res *PromoResult) error {
	ok, err := q.MarkPromoCodeUsed(ctx, p.ID, u.ID, now)
	if err != nil {
		return fmt.Errorf("mark promo code: %w", err)
	}
	if !ok {
		return ErrInvalidPromoCode
	}

	u.Balance = mining.RoundAmount(u.Balance + float64(p.Reward))
	u.TotalEarned = mining.RoundAmount(u.TotalEarned + float64(p.Reward))
	u.LastActive = domain.NowMillis(now)
	if err := q.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.audit.Record(ctx, q, u.ID, domain.AuditActionPromoRedeem, domain.AuditCategoryMission,
		map[string]any{"promo_id": p.ID, "reward": p.Reward}); err != nil {
		return err
	}
	*res = PromoResult{Reward: p.Reward, Credited: true, User: u}
	return nil
}
