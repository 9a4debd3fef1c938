package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"

	"github.com/google/uuid"
)

// ConversionRequest is what a user submits to exchange DRX for a reward package.
type ConversionRequest struct {
	FromCurrency    string
	ToCurrency      string
	Amount          float64
	ConvertedAmount float64
	Category        string
	PackageType     string
	RequiredInfo    map[string]string
}

// ConversionService debits the balance when a request is created and refunds it when an
// admin rejects the request.
type ConversionService struct {
	store repository.Store
	audit *AuditService
	now   func() time.Time
}

func NewConversionService(store repository.Store, audit *AuditService) *ConversionService {
	return &ConversionService{store: store, audit: audit, now: time.Now}
}

func (s *ConversionService) List(ctx context.Context, userID int64) ([]domain.Conversion, error) {
	return s.store.ListConversions(ctx, userID)
}

func (s *ConversionService) Create(ctx context.Context, userID int64, req ConversionRequest) (*domain.Conversion, error) {
	amount := mining.RoundAmount(req.Amount)
	if amount <= 0 || math.IsInf(req.Amount, 0) || math.IsNaN(req.Amount) {
		return nil, ErrInvalidAmount
	}

	var out *domain.Conversion
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		u, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if u.Balance < amount {
			return mining.ErrInsufficientBalance
		}

		nowMs := domain.NowMillis(s.now())
		u.Balance = mining.RoundAmount(u.Balance - amount)
		u.LastActive = nowMs
		if err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		info := req.RequiredInfo
		if info == nil {
			info = map[string]string{}
		}
		c := &domain.Conversion{
			ID:              "conv_" + uuid.NewString(),
			UserID:          userID,
			FromCurrency:    req.FromCurrency,
			ToCurrency:      req.ToCurrency,
			Amount:          amount,
			ConvertedAmount: mining.RoundAmount(req.ConvertedAmount),
			Category:        req.Category,
			PackageType:     req.PackageType,
			RequiredInfo:    info,
			Status:          domain.ConversionStatusPending,
			RequestedAt:     nowMs,
		}
		if err := q.InsertConversion(ctx, c); err != nil {
			return fmt.Errorf("insert conversion: %w", err)
		}
		if err := s.audit.Record(ctx, q, userID, domain.AuditActionConversionRequest, domain.AuditCategoryConversion,
			map[string]any{"conversion_id": c.ID, "amount": amount}); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}
