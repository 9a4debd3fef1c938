package mining

import (
	"errors"
	"math"

	"mining_webapp/internal/domain"
)

var (
	ErrUnknownBoost        = errors.New("invalid boost type")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// BoostType - одна из трёх независимых веток улучшений
type BoostType string

const (
	BoostMiningSpeed BoostType = "miningSpeed"
	BoostClaimTime   BoostType = "claimTime"
	BoostMiningRate  BoostType = "miningRate"
)

// BoostTypes lists the tracks in display order.
var BoostTypes = []BoostType{BoostMiningSpeed, BoostClaimTime, BoostMiningRate}

const (
	costGrowth      = 1.5 // per level, all tracks
	rateMultiplier  = 1.5 // miningRate track
	speedMultiplier = 1.2 // miningSpeed track
)

// ParseBoostType validates a client supplied boost name.
func ParseBoostType(s string) (BoostType, error) {
	switch bt := BoostType(s); bt {
	case BoostMiningSpeed, BoostClaimTime, BoostMiningRate:
		return bt, nil
	}
	return "", ErrUnknownBoost
}

// UpgradeResult describes a successful upgrade.
type UpgradeResult struct {
	Boost        BoostType `json:"boostType"`
	NewLevel     int       `json:"newLevel"`
	Cost         int64     `json:"cost"`
	MiningRate   float64   `json:"miningRate"`
	MinClaimTime int64     `json:"minClaimTime"`
}

// UpgradeCost is floor(baseCost * 1.5^(level-1)).
func UpgradeCost(baseCost int64, level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Floor(float64(baseCost) * math.Pow(costGrowth, float64(level-1))))
}

// Level returns the user's current level on a track.
func Level(u *domain.User, bt BoostType) int {
	switch bt {
	case BoostMiningSpeed:
		return u.MiningSpeedLevel
	case BoostClaimTime:
		return u.ClaimTimeLevel
	case BoostMiningRate:
		return u.MiningRateLevel
	}
	return 0
}

func setLevel(u *domain.User, bt BoostType, level int) {
	switch bt {
	case BoostMiningSpeed:
		u.MiningSpeedLevel = level
	case BoostClaimTime:
		u.ClaimTimeLevel = level
	case BoostMiningRate:
		u.MiningRateLevel = level
	}
}

// Cost returns the price of the next level on a track for u.
func (r Rules) Cost(u *domain.User, bt BoostType) (int64, error) {
	base, ok := r.BoostBaseCosts[bt]
	if !ok {
		return 0, ErrUnknownBoost
	}
	return UpgradeCost(base, Level(u, bt)), nil
}

// MiningRateFor derives the per-second rate from the rate and speed levels.
func (r Rules) MiningRateFor(u *domain.User) float64 {
	rate := r.BaseMiningRate *
		math.Pow(rateMultiplier, float64(u.MiningRateLevel-1)) *
		math.Pow(speedMultiplier, float64(u.MiningSpeedLevel-1))
	return RoundAmount(rate)
}

// MinClaimTimeFor derives the minimum session length from the claim-time level.
func (r Rules) MinClaimTimeFor(u *domain.User) int64 {
	return max(r.ClaimTimeFloor, r.MinClaimTime-r.ClaimTimeReduction*int64(u.ClaimTimeLevel-1))
}

// Upgrade debits the cost, raises the track level and recomputes the derived fields from
// all three levels. On error u is unchanged.
func (r Rules) Upgrade(u *domain.User, bt BoostType) (UpgradeResult, error) {
	cost, err := r.Cost(u, bt)
	if err != nil {
		return UpgradeResult{}, err
	}
	if u.Balance < float64(cost) {
		return UpgradeResult{}, ErrInsufficientBalance
	}

	newLevel := max(Level(u, bt), 1) + 1
	u.Balance = RoundAmount(u.Balance - float64(cost))
	setLevel(u, bt, newLevel)
	u.MiningRate = r.MiningRateFor(u)
	u.MinClaimTime = r.MinClaimTimeFor(u)

	return UpgradeResult{
		Boost:        bt,
		NewLevel:     newLevel,
		Cost:         cost,
		MiningRate:   u.MiningRate,
		MinClaimTime: u.MinClaimTime,
	}, nil
}
