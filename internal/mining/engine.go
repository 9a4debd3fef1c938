// Package mining holds the pure game rules: mining session accrual, claim eligibility and
// boost upgrades. Nothing here touches storage; callers load a user, apply a rule and persist
// the mutated struct inside one transaction.
package mining

import (
	"errors"
	"math"
	"time"

	"mining_webapp/internal/domain"
)

var (
	ErrAlreadyMining = errors.New("already mining")
	ErrNotMining     = errors.New("not mining")
	ErrClaimNotReady = errors.New("cannot claim yet")
)

const amountScale = 1e8

// Rules are the game balance constants. One canonical set is used everywhere.
type Rules struct {
	BaseMiningRate     float64 // DRX per second at level 1/1
	MinClaimTime       int64   // seconds, before any claim-time boost
	MaxMiningTime      int64   // seconds, accrual cap per session
	MinClaimInterval   int64   // seconds between two claims
	ClaimTimeReduction int64   // seconds removed per claim-time level
	ClaimTimeFloor     int64   // seconds, minClaimTime never goes below this

	BoostBaseCosts map[BoostType]int64
}

// DefaultRules returns the canonical constant set.
func DefaultRules() Rules {
	return Rules{
		BaseMiningRate:     0.001,
		MinClaimTime:       1800,
		MaxMiningTime:      1800,
		MinClaimInterval:   300,
		ClaimTimeReduction: 60,
		ClaimTimeFloor:     300,
		BoostBaseCosts: map[BoostType]int64{
			BoostMiningSpeed: 100,
			BoostClaimTime:   150,
			BoostMiningRate:  200,
		},
	}
}

// Status is the read-only view returned to polling clients.
type Status struct {
	IsMining       bool    `json:"isMining"`
	MiningDuration int64   `json:"miningDuration"`
	PendingRewards float64 `json:"pendingRewards"`
	CanClaim       bool    `json:"canClaim"`
	RemainingTime  int64   `json:"remainingTime"`
	ClaimCooldown  int64   `json:"claimCooldown"`
}

// ClaimResult describes a successful claim.
type ClaimResult struct {
	Earned   float64 `json:"earned"`
	XP       int64   `json:"xp"`
	Duration int64   `json:"duration"`
}

// RoundAmount rounds a currency amount to 8 decimal places.
func RoundAmount(v float64) float64 {
	return math.Round(v*amountScale) / amountScale
}

// elapsedSeconds is floor((now - since) / 1000) for epoch-ms timestamps, never negative.
// A zero since (never happened) yields the whole epoch, which always passes interval checks.
func elapsedSeconds(nowMs, sinceMs int64) int64 {
	d := nowMs - sinceMs
	if d <= 0 {
		return 0
	}
	return d / 1000
}

func (r Rules) capElapsed(elapsed int64) int64 {
	if elapsed > r.MaxMiningTime {
		return r.MaxMiningTime
	}
	return elapsed
}

// accrued returns the reward for an elapsed session, capped at MaxMiningTime.
func (r Rules) accrued(u *domain.User, elapsed int64) float64 {
	return RoundAmount(u.MiningRate * float64(r.capElapsed(elapsed)))
}

func (r Rules) sessionElapsed(u *domain.User, nowMs int64) int64 {
	if !u.IsMining || u.MiningStartTime <= 0 {
		return 0
	}
	return elapsedSeconds(nowMs, u.MiningStartTime)
}

func (r Rules) sinceLastClaim(u *domain.User, nowMs int64) int64 {
	return elapsedSeconds(nowMs, u.LastClaimTime)
}

func (r Rules) canClaim(u *domain.User, nowMs int64) bool {
	if !u.IsMining || u.MiningStartTime <= 0 {
		return false
	}
	return r.sessionElapsed(u, nowMs) >= u.MinClaimTime &&
		r.sinceLastClaim(u, nowMs) >= r.MinClaimInterval
}

// Status computes the mining view at now without mutating u.
func (r Rules) Status(u *domain.User, now time.Time) Status {
	nowMs := domain.NowMillis(now)
	elapsed := r.sessionElapsed(u, nowMs)

	st := Status{
		IsMining:       u.IsMining,
		MiningDuration: elapsed,
		RemainingTime:  max(0, u.MinClaimTime-elapsed),
		ClaimCooldown:  max(0, r.MinClaimInterval-r.sinceLastClaim(u, nowMs)),
	}
	if u.IsMining && u.MiningStartTime > 0 {
		st.PendingRewards = r.accrued(u, elapsed)
		st.CanClaim = r.canClaim(u, nowMs)
	}
	return st
}

// Start moves an idle user into the mining state.
func (r Rules) Start(u *domain.User, now time.Time) error {
	if u.IsMining {
		return ErrAlreadyMining
	}
	nowMs := domain.NowMillis(now)
	u.IsMining = true
	u.MiningStartTime = nowMs
	u.PendingRewards = 0
	u.LastActive = nowMs
	return nil
}

// Claim credits the capped accrual and returns the user to idle. On any error u is unchanged.
func (r Rules) Claim(u *domain.User, now time.Time) (ClaimResult, error) {
	if !u.IsMining || u.MiningStartTime <= 0 {
		return ClaimResult{}, ErrNotMining
	}
	nowMs := domain.NowMillis(now)
	if !r.canClaim(u, nowMs) {
		return ClaimResult{}, ErrClaimNotReady
	}

	capped := r.capElapsed(r.sessionElapsed(u, nowMs))
	res := ClaimResult{
		Earned:   r.accrued(u, capped),
		XP:       capped / 60,
		Duration: capped,
	}

	u.Balance = RoundAmount(u.Balance + res.Earned)
	u.TotalEarned = RoundAmount(u.TotalEarned + res.Earned)
	u.XP += res.XP
	u.IsMining = false
	u.MiningStartTime = 0
	u.PendingRewards = 0
	u.LastClaimTime = nowMs
	u.LastActive = nowMs
	return res, nil
}

// Snapshot refreshes the pending_rewards display cache for a reconnecting user.
// It never changes the mining state or the balance.
func (r Rules) Snapshot(u *domain.User, now time.Time) {
	nowMs := domain.NowMillis(now)
	u.LastActive = nowMs
	if !u.IsMining || u.MiningStartTime <= 0 {
		return
	}
	u.PendingRewards = r.accrued(u, r.sessionElapsed(u, nowMs))
}

// NewUserDefaults fills the mining fields of a freshly registered user.
func (r Rules) NewUserDefaults(u *domain.User) {
	u.MiningRate = r.BaseMiningRate
	u.MinClaimTime = r.MinClaimTime
	u.MiningSpeedLevel = 1
	u.ClaimTimeLevel = 1
	u.MiningRateLevel = 1
	u.Status = domain.UserStatusActive
}
