package domain

import "time"

// MissionType - способ проверки выполнения миссии
type MissionType string

const (
	MissionTypeJoinChannel   MissionType = "join_channel"
	MissionTypeJoinGroup     MissionType = "join_group"
	MissionTypeURLTimer      MissionType = "url_timer"
	MissionTypePromoCode     MissionType = "promo_code"
	MissionTypeInviteFriends MissionType = "invite_friends"
)

// Mission - шаблон задания (создаётся администратором)
type Mission struct {
	ID            string      `db:"id" json:"id"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	Reward        int64       `db:"reward" json:"reward"`
	RequiredCount int         `db:"required_count" json:"requiredCount"`
	ChannelID     string      `db:"channel_id" json:"channelId,omitempty"`
	URL           string      `db:"url" json:"url,omitempty"`
	Code          string      `db:"code" json:"-"`
	RequiredTime  int64       `db:"required_time" json:"requiredTime,omitempty"` // seconds
	Active        bool        `db:"active" json:"active"`
	Category      string      `db:"category" json:"category"`
	Type          MissionType `db:"type" json:"type"`
	Priority      int         `db:"priority" json:"priority"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
}

// UserMission - прогресс пользователя по миссии; timestamps in epoch ms
type UserMission struct {
	UserID        int64  `db:"user_id" json:"-"`
	MissionID     string `db:"mission_id" json:"missionId"`
	Started       bool   `db:"started" json:"started"`
	Completed     bool   `db:"completed" json:"completed"`
	Claimed       bool   `db:"claimed" json:"claimed"`
	CurrentCount  int    `db:"current_count" json:"currentCount"`
	StartedDate   int64  `db:"started_date" json:"startedDate,omitempty"`
	CompletedAt   int64  `db:"completed_at" json:"completedAt,omitempty"`
	ClaimedAt     int64  `db:"claimed_at" json:"claimedAt,omitempty"`
	TimerStarted  int64  `db:"timer_started" json:"timerStarted,omitempty"`
	CodeSubmitted string `db:"code_submitted" json:"codeSubmitted,omitempty"`
}

// CanClaim проверяет, можно ли забрать награду
func (um *UserMission) CanClaim() bool {
	return um.Completed && !um.Claimed
}

// PromoCode is a single-use code redeemable by the first user who submits it.
type PromoCode struct {
	ID        string     `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	Reward    int64      `db:"reward" json:"reward"`
	UsedBy    int64      `db:"used_by" json:"usedBy,omitempty"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
}

// Redeemable reports whether the code is unused and not expired at now.
func (p *PromoCode) Redeemable(now time.Time) bool {
	if p.UsedBy != 0 {
		return false
	}
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}
