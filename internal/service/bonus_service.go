package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"
)

// BonusConfig holds the one-time credit amounts.
type BonusConfig struct {
	WelcomeBonus  float64
	ReferralBonus float64
	ReferralXP    int64
}

func DefaultBonusConfig() BonusConfig {
	return BonusConfig{WelcomeBonus: 100, ReferralBonus: 200, ReferralXP: 60}
}

// WelcomeResult describes a successful welcome bonus claim.
type WelcomeResult struct {
	Bonus            float64      `json:"bonus"`
	ReferralCredited bool         `json:"referralCredited"`
	User             *domain.User `json:"user"`
}

// BonusService credits the welcome bonus and, through it, the referrer.
type BonusService struct {
	store repository.Store
	cfg   BonusConfig
	audit *AuditService
	now   func() time.Time
}

func NewBonusService(store repository.Store, cfg BonusConfig, audit *AuditService) *BonusService {
	return &BonusService{store: store, cfg: cfg, audit: audit, now: time.Now}
}

// ClaimWelcomeBonus credits the welcome bonus once per user and processes the referral in
// the same transaction. A rejected referral is not an error; a storage error undoes both.
func (s *BonusService) ClaimWelcomeBonus(ctx context.Context, userID int64) (WelcomeResult, error) {
	var res WelcomeResult
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if u.BonusClaimed {
			return ErrBonusAlreadyClaimed
		}

		nowMs := domain.NowMillis(s.now())
		u.Balance = mining.RoundAmount(u.Balance + s.cfg.WelcomeBonus)
		u.TotalEarned = mining.RoundAmount(u.TotalEarned + s.cfg.WelcomeBonus)
		u.BonusClaimed = true
		u.DataInitialized = true
		u.LastActive = nowMs
		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := s.audit.Record(ctx, q, u.ID, domain.AuditActionWelcomeBonus, domain.AuditCategoryBonus,
			map[string]any{"amount": s.cfg.WelcomeBonus}); err != nil {
			return err
		}

		credited, err := s.processReferral(ctx, q, u, nowMs)
		if err != nil {
			return err
		}
		res = WelcomeResult{Bonus: s.cfg.WelcomeBonus, ReferralCredited: credited, User: u}
		return nil
	})
	if err != nil {
		return WelcomeResult{}, err
	}

	BonusCredits.WithLabelValues("welcome").Inc()
	if res.ReferralCredited {
		BonusCredits.WithLabelValues("referral").Inc()
	}
	return res, nil
}

// processReferral credits the referrer of u at most once. It returns false without error for
// every rejection: no referrer, self referral, unknown referrer, stale ref_auth or a referral
// row that already exists.
func (s *BonusService) processReferral(ctx context.Context, q repository.Queries, u *domain.User, nowMs int64) (bool, error) {
	if !u.HasReferrer() || u.ReferredBy == u.ID {
		return false, nil
	}

	ref, err := q.GetUserForUpdate(ctx, u.ReferredBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("referral: referrer not found", "referrer_id", u.ReferredBy, "user_id", u.ID)
			return false, nil
		}
		return false, fmt.Errorf("lock referrer: %w", err)
	}
	if ref.RefAuth == "" || subtle.ConstantTimeCompare([]byte(ref.RefAuth), []byte(u.RefAuthUsed)) != 1 {
		logger.Warn("referral: ref_auth mismatch", "referrer_id", ref.ID, "user_id", u.ID)
		return false, nil
	}

	inserted, err := q.InsertReferral(ctx, &domain.Referral{
		ReferrerID: ref.ID,
		ReferredID: u.ID,
		Earned:     s.cfg.ReferralBonus,
	})
	if err != nil {
		return false, fmt.Errorf("insert referral: %w", err)
	}
	if !inserted {
		return false, nil
	}

	ref.Balance = mining.RoundAmount(ref.Balance + s.cfg.ReferralBonus)
	ref.TotalEarned = mining.RoundAmount(ref.TotalEarned + s.cfg.ReferralBonus)
	ref.ReferralCount++
	ref.XP += s.cfg.ReferralXP
	ref.LastActive = nowMs
	if err := q.UpdateUser(ctx, ref); err != nil {
		return false, fmt.Errorf("update referrer: %w", err)
	}
	if err := s.audit.Record(ctx, q, ref.ID, domain.AuditActionReferralBonus, domain.AuditCategoryBonus,
		map[string]any{"amount": s.cfg.ReferralBonus, "referred_id": u.ID}); err != nil {
		return false, err
	}

	logger.Info("referral bonus processed", "referrer_id", ref.ID, "referred_id", u.ID)
	return true, nil
}

// ReferralSummary is the referral list with its totals.
type ReferralSummary struct {
	Count       int                   `json:"count"`
	TotalEarned float64               `json:"totalEarned"`
	Referrals   []domain.ReferralView `json:"referrals"`
}

func (s *BonusService) Referrals(ctx context.Context, userID int64) (ReferralSummary, error) {
	list, err := s.store.ListReferrals(ctx, userID)
	if err != nil {
		return ReferralSummary{}, err
	}
	sum := ReferralSummary{Count: len(list), Referrals: list}
	for _, r := range list {
		sum.TotalEarned += r.Earned
	}
	sum.TotalEarned = mining.RoundAmount(sum.TotalEarned)
	return sum, nil
}
