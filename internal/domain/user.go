package domain

import "time"

// UserStatus - состояние аккаунта
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusBanned    UserStatus = "banned"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusBanned, UserStatusSuspended:
		return true
	}
	return false
}

// User is one player row. All timestamps ending in Time/At/Active are epoch milliseconds,
// 0 meaning "never".
type User struct {
	ID        int64  `db:"id" json:"id"` // telegram user id
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Username  string `db:"username" json:"username"`

	AuthKey     string `db:"auth_key" json:"-"`
	RefAuth     string `db:"ref_auth" json:"-"`
	RefAuthUsed string `db:"ref_auth_used" json:"-"`
	ReferredBy  int64  `db:"referred_by" json:"referredBy"`

	Balance        float64 `db:"balance" json:"balance"`
	TotalEarned    float64 `db:"total_earned" json:"totalEarned"`
	PendingRewards float64 `db:"pending_rewards" json:"pendingRewards"`

	IsMining        bool    `db:"is_mining" json:"isMining"`
	MiningStartTime int64   `db:"mining_start_time" json:"miningStartTime"`
	LastClaimTime   int64   `db:"last_claim_time" json:"lastClaimTime"`
	MiningRate      float64 `db:"mining_rate" json:"miningRate"`
	MinClaimTime    int64   `db:"min_claim_time" json:"minClaimTime"` // seconds

	MiningSpeedLevel int `db:"mining_speed_level" json:"miningSpeedLevel"`
	ClaimTimeLevel   int `db:"claim_time_level" json:"claimTimeLevel"`
	MiningRateLevel  int `db:"mining_rate_level" json:"miningRateLevel"`

	XP            int64 `db:"xp" json:"xp"`
	ReferralCount int   `db:"referral_count" json:"referralCount"`

	BonusClaimed    bool       `db:"bonus_claimed" json:"bonusClaimed"`
	DataInitialized bool       `db:"data_initialized" json:"dataInitialized"`
	Status          UserStatus `db:"status" json:"status"`

	JoinedAt   int64     `db:"joined_at" json:"joinedAt"`
	LastActive int64     `db:"last_active" json:"lastActive"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

// IsActive reports whether the account may use the API.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HasReferrer reports whether the user signed up through a referral link.
func (u *User) HasReferrer() bool {
	return u.ReferredBy != 0 && u.RefAuthUsed != ""
}

// NowMillis returns t as epoch milliseconds, the unit used by all user timestamps.
func NowMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// LeaderboardEntry is a public projection of a user for the leaderboard.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	ID          int64   `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	TotalEarned float64 `json:"totalEarned"`
	XP          int64   `json:"xp"`
}

// PlatformStats is the admin overview.
type PlatformStats struct {
	TotalUsers         int64   `json:"totalUsers"`
	ActiveUsers        int64   `json:"activeUsers"`
	MiningUsers        int64   `json:"miningUsers"`
	TotalBalance       float64 `json:"totalBalance"`
	TotalEarned        float64 `json:"totalEarned"`
	PendingConversions int64   `json:"pendingConversions"`
}
