package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"
)

// MiningService applies the mining rules to stored users. Every mutation locks the user row
// for its read-modify-write, so concurrent claims for one user credit at most once.
type MiningService struct {
	store repository.Store
	rules mining.Rules
	audit *AuditService
	now   func() time.Time
}

func NewMiningService(store repository.Store, rules mining.Rules, audit *AuditService) *MiningService {
	return &MiningService{store: store, rules: rules, audit: audit, now: time.Now}
}

// SetClock replaces the time source.
func (s *MiningService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MiningService) Rules() mining.Rules {
	return s.rules
}

// Status returns the read-only mining view for an active user.
func (s *MiningService) Status(ctx context.Context, userID int64) (mining.Status, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return mining.Status{}, ErrUserNotFound
		}
		return mining.Status{}, err
	}
	if !u.IsActive() {
		return mining.Status{}, ErrUserNotFound
	}
	return s.rules.Status(u, s.now()), nil
}

// update runs fn against the locked user and writes the result back.
func (s *MiningService) update(ctx context.Context, userID int64, fn func(q repository.Queries, u *domain.User, now time.Time) error) (*domain.User, error) {
	var out *domain.User
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if err := fn(q, u, s.now()); err != nil {
			return err
		}
		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		out = u
		return nil
	})
	return out, err
}

func (s *MiningService) Start(ctx context.Context, userID int64) (*domain.User, error) {
	return s.update(ctx, userID, func(q repository.Queries, u *domain.User, now time.Time) error {
		if err := s.rules.Start(u, now); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, u.ID, domain.AuditActionMiningStart, domain.AuditCategoryMining, nil)
	})
}

func (s *MiningService) Claim(ctx context.Context, userID int64) (mining.ClaimResult, *domain.User, error) {
	var res mining.ClaimResult
	u, err := s.update(ctx, userID, func(q repository.Queries, u *domain.User, now time.Time) error {
		r, err := s.rules.Claim(u, now)
		if err != nil {
			return err
		}
		res = r
		return s.audit.Record(ctx, q, u.ID, domain.AuditActionMiningClaim, domain.AuditCategoryMining, map[string]any{
			"earned":   r.Earned,
			"xp":       r.XP,
			"duration": r.Duration,
		})
	})
	if err != nil {
		return mining.ClaimResult{}, nil, err
	}
	MiningClaims.Inc()
	MiningClaimedAmount.Add(res.Earned)
	return res, u, nil
}

func (s *MiningService) Upgrade(ctx context.Context, userID int64, bt mining.BoostType) (mining.UpgradeResult, *domain.User, error) {
	var res mining.UpgradeResult
	u, err := s.update(ctx, userID, func(q repository.Queries, u *domain.User, now time.Time) error {
		r, err := s.rules.Upgrade(u, bt)
		if err != nil {
			return err
		}
		u.LastActive = domain.NowMillis(now)
		res = r
		return s.audit.Record(ctx, q, u.ID, domain.AuditActionBoostUpgrade, domain.AuditCategoryMining, map[string]any{
			"boost": string(r.Boost),
			"level": r.NewLevel,
			"cost":  r.Cost,
		})
	})
	if err != nil {
		return mining.UpgradeResult{}, nil, err
	}
	BoostUpgrades.WithLabelValues(string(bt)).Inc()
	return res, u, nil
}

// Snapshot refreshes the offline accrual display cache and last_active for a returning user.
func (s *MiningService) Snapshot(ctx context.Context, userID int64) (*domain.User, error) {
	return s.update(ctx, userID, func(_ repository.Queries, u *domain.User, now time.Time) error {
		s.rules.Snapshot(u, now)
		return nil
	})
}
