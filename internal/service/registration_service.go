package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"
)

// Registration is the Telegram identity of a user opening the bot.
type Registration struct {
	ID         int64
	FirstName  string
	LastName   string
	Username   string
	ReferrerID int64 // 0 when the start parameter carried no referral
}

// RegistrationService creates users. Only the bot issues identities.
type RegistrationService struct {
	store repository.Store
	rules mining.Rules
	now   func() time.Time
}

func NewRegistrationService(store repository.Store, rules mining.Rules) *RegistrationService {
	return &RegistrationService{store: store, rules: rules, now: time.Now}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register returns the existing user, or creates one with a fresh auth key and referral
// secret. The referrer's current ref_auth is captured so the welcome bonus can later prove
// the link was genuine.
func (s *RegistrationService) Register(ctx context.Context, r Registration) (*domain.User, bool, error) {
	if r.ID <= 0 {
		return nil, false, ErrUserNotFound
	}

	var (
		out     *domain.User
		created bool
	)
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		existing, err := q.GetUser(ctx, r.ID)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("get user: %w", err)
		}

		authKey, err := randomHex(32)
		if err != nil {
			return err
		}
		refAuth, err := randomHex(16)
		if err != nil {
			return err
		}

		nowMs := domain.NowMillis(s.now())
		u := &domain.User{
			ID:         r.ID,
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Username:   r.Username,
			AuthKey:    authKey,
			RefAuth:    refAuth,
			JoinedAt:   nowMs,
			LastActive: nowMs,
		}
		s.rules.NewUserDefaults(u)

		if r.ReferrerID != 0 && r.ReferrerID != r.ID {
			ref, err := q.GetUser(ctx, r.ReferrerID)
			switch {
			case err == nil:
				u.ReferredBy = ref.ID
				u.RefAuthUsed = ref.RefAuth
			case !errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("get referrer: %w", err)
			}
		}

		ok, err := q.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if !ok {
			// lost a race with a concurrent /start
			existing, err := q.GetUser(ctx, r.ID)
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			out = existing
			return nil
		}
		out, created = u, true
		return nil
	})
	return out, created, err
}
