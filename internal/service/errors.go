package service

import (
	"errors"

	"mining_webapp/internal/mining"
)

// Expected, recoverable outcomes. Handlers report these as {"success":false,"message":...}.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrBonusAlreadyClaimed   = errors.New("welcome bonus already claimed")
	ErrMissionNotFound       = errors.New("mission not found")
	ErrMissionNotStarted     = errors.New("mission not started")
	ErrMissionNotCompleted   = errors.New("mission requirements not met")
	ErrMissionAlreadyClaimed = errors.New("mission reward already claimed")
	ErrInvalidPromoCode      = errors.New("invalid or expired promo code")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrConversionNotFound    = errors.New("conversion not found")
	ErrConversionNotPending  = errors.New("conversion already resolved")
	ErrInvalidStatus         = errors.New("invalid status")
)

// ErrInvalidCredentials is returned by admin login; handlers map it to 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

var expected = []error{
	ErrUserNotFound, ErrBonusAlreadyClaimed,
	ErrMissionNotFound, ErrMissionNotStarted, ErrMissionNotCompleted, ErrMissionAlreadyClaimed,
	ErrInvalidPromoCode, ErrInvalidAmount,
	ErrConversionNotFound, ErrConversionNotPending, ErrInvalidStatus,
	mining.ErrAlreadyMining, mining.ErrNotMining, mining.ErrClaimNotReady,
	mining.ErrInsufficientBalance, mining.ErrUnknownBoost,
}

// IsExpected reports whether err is a recoverable business outcome rather than a failure.
func IsExpected(err error) bool {
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
