package domain

import "time"

// AuditLog represents an audit log entry for tracking balance changes and admin actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth       = "auth"
	AuditCategoryMining     = "mining"
	AuditCategoryBonus      = "bonus"
	AuditCategoryMission    = "mission"
	AuditCategoryConversion = "conversion"
	AuditCategoryAdmin      = "admin"
)

// Audit actions
const (
	AuditActionLogin = "login"

	AuditActionMiningStart  = "mining_start"
	AuditActionMiningClaim  = "mining_claim"
	AuditActionBoostUpgrade = "boost_upgrade"

	AuditActionWelcomeBonus  = "welcome_bonus"
	AuditActionReferralBonus = "referral_bonus"

	AuditActionMissionClaim = "mission_claim"
	AuditActionPromoRedeem  = "promo_redeem"

	AuditActionConversionRequest = "conversion_request"
	AuditActionConversionApprove = "conversion_approve"
	AuditActionConversionReject  = "conversion_reject"

	AuditActionAdminSetStatus = "admin_set_status"
)
