package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/repository"
	"mining_webapp/internal/telegram"
)

// AuthConfig controls which proofs a request must carry.
type AuthConfig struct {
	BotToken       string
	AuthKeyCheck   bool          // require the per-user auth key
	InitDataMaxAge time.Duration // freshness window for initData auth_date
}

// Credentials are the identity proofs taken from one request.
type Credentials struct {
	UserID   int64
	AuthKey  string
	InitData string
}

// Authenticator decides whether a request may act as a user. It fails closed: any parse
// error, store error or mismatch yields false.
type Authenticator struct {
	users repository.Queries
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthenticator(users repository.Queries, cfg AuthConfig) *Authenticator {
	return &Authenticator{users: users, cfg: cfg, now: time.Now}
}

// Authenticate checks the initData signature when present, then the auth key when the
// check is enabled, and returns the active user.
func (a *Authenticator) Authenticate(ctx context.Context, cr Credentials) (*domain.User, bool) {
	if cr.UserID <= 0 {
		return nil, false
	}
	if cr.InitData != "" && !a.initDataMatches(cr) {
		return nil, false
	}

	u, ok := a.activeUser(ctx, cr.UserID)
	if !ok {
		return nil, false
	}

	if a.cfg.AuthKeyCheck && !authKeyMatches(cr.AuthKey, u.AuthKey) {
		return nil, false
	}
	return u, true
}

// AuthenticateLogin is used by POST /auth, whose purpose is handing out the auth key.
// A valid initData signature alone is enough; without one the auth key must match.
func (a *Authenticator) AuthenticateLogin(ctx context.Context, cr Credentials) (*domain.User, bool) {
	if cr.UserID <= 0 {
		return nil, false
	}
	if cr.InitData != "" {
		if !a.initDataMatches(cr) {
			return nil, false
		}
		return a.activeUser(ctx, cr.UserID)
	}

	u, ok := a.activeUser(ctx, cr.UserID)
	if !ok || !authKeyMatches(cr.AuthKey, u.AuthKey) {
		return nil, false
	}
	return u, true
}

func (a *Authenticator) initDataMatches(cr Credentials) bool {
	values, ok := validateInitDataAt(cr.InitData, a.cfg.BotToken, a.cfg.InitDataMaxAge, a.now())
	if !ok {
		return false
	}
	tgUser, err := telegram.ParseUser(values)
	if err != nil {
		return false
	}
	return tgUser.ID == cr.UserID
}

func (a *Authenticator) activeUser(ctx context.Context, id int64) (*domain.User, bool) {
	u, err := a.users.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("auth: user lookup failed", "user_id", id, "error", err)
		}
		return nil, false
	}
	if !u.IsActive() {
		return nil, false
	}
	return u, true
}

func authKeyMatches(given, stored string) bool {
	if given == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(stored)) == 1
}
