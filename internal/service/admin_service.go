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

	"golang.org/x/crypto/bcrypt"
)

// AdminConfig is the single admin credential. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// AdminService provides the admin operations: login, user status and conversion review.
type AdminService struct {
	store  repository.Store
	audit  *AuditService
	tokens *TokenIssuer
	cfg    AdminConfig
	now    func() time.Time
}

func NewAdminService(store repository.Store, audit *AuditService, tokens *TokenIssuer, cfg AdminConfig) *AdminService {
	return &AdminService{store: store, audit: audit, tokens: tokens, cfg: cfg, now: time.Now}
}

// Login checks the credential and returns a signed token.
func (s *AdminService) Login(username, password string) (string, error) {
	if s.cfg.Username == "" || s.cfg.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		logger.Warn("admin login failed", "username", username)
		return "", ErrInvalidCredentials
	}
	return s.tokens.Generate(username)
}

func (s *AdminService) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	return s.store.PlatformStats(ctx)
}

// SetUserStatus bans, suspends or reactivates a user. Non-active users fail authentication.
func (s *AdminService) SetUserStatus(ctx context.Context, admin string, userID int64, status domain.UserStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	var out *domain.User
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		prev := u.Status
		u.Status = status
		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := s.audit.LogAdminAction(ctx, q, admin, domain.AuditActionAdminSetStatus, userID,
			map[string]any{"from": string(prev), "to": string(status)}); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (s *AdminService) PendingConversions(ctx context.Context, limit int) ([]domain.Conversion, error) {
	return s.store.ListConversionsByStatus(ctx, domain.ConversionStatusPending, limit)
}

// ResolveConversion approves or rejects a pending conversion. Rejection refunds the amount.
func (s *AdminService) ResolveConversion(ctx context.Context, admin, id string, approve bool) (*domain.Conversion, error) {
	var out *domain.Conversion
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		c, err := q.GetConversionForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrConversionNotFound
			}
			return fmt.Errorf("lock conversion: %w", err)
		}
		if c.Status != domain.ConversionStatusPending {
			return ErrConversionNotPending
		}

		nowMs := domain.NowMillis(s.now())
		status, action := domain.ConversionStatusApproved, domain.AuditActionConversionApprove
		if !approve {
			status, action = domain.ConversionStatusRejected, domain.AuditActionConversionReject

			u, err := q.GetUserForUpdate(ctx, c.UserID)
			if err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			u.Balance = mining.RoundAmount(u.Balance + c.Amount)
			if err := q.UpdateUser(ctx, u); err != nil {
				return fmt.Errorf("refund user: %w", err)
			}
		}

		if err := q.UpdateConversionStatus(ctx, c.ID, status, nowMs); err != nil {
			return fmt.Errorf("update conversion: %w", err)
		}
		if err := s.audit.LogAdminAction(ctx, q, admin, action, c.UserID,
			map[string]any{"conversion_id": c.ID, "amount": c.Amount}); err != nil {
			return err
		}
		c.Status = status
		c.CompletedAt = nowMs
		out = c
		return nil
	})
	return out, err
}
