package domain

import "time"

// Referral records that a referrer was credited for a referred user.
// The (ReferrerID, ReferredID) pair is unique; rows are never updated.
type Referral struct {
	ID         int64     `db:"id" json:"id"`
	ReferrerID int64     `db:"referrer_id" json:"referrerId"`
	ReferredID int64     `db:"referred_id" json:"referredId"`
	Earned     float64   `db:"earned" json:"earned"`
	CreatedAt  time.Time `db:"created_at" json:"date"`
}

// ReferralView joins a referral with the referred user's public profile.
type ReferralView struct {
	ReferredID int64     `json:"referredId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Earned     float64   `json:"earned"`
	Date       time.Time `json:"date"`
}
