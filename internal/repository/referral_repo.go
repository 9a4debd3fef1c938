package repository

import (
	"context"
	"errors"

	"mining_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

// InsertReferral relies on the unique (referrer_id, referred_id) constraint, so a replayed
// credit attempt inserts nothing and reports false.
func (q *queries) InsertReferral(ctx context.Context, r *domain.Referral) (bool, error) {
	var id int64
	err := q.db.QueryRow(ctx,
		`INSERT INTO referrals (referrer_id, referred_id, earned)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (referrer_id, referred_id) DO NOTHING
		 RETURNING id, created_at`,
		r.ReferrerID, r.ReferredID, r.Earned,
	).Scan(&id, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	r.ID = id
	return true, nil
}

// ListReferrals returns the users referred by referrerID, newest first.
func (q *queries) ListReferrals(ctx context.Context, referrerID int64) ([]domain.ReferralView, error) {
	rows, err := q.db.Query(ctx,
		`SELECT r.referred_id, u.first_name, u.last_name, r.earned, r.created_at
		 FROM referrals r
		 JOIN users u ON u.id = r.referred_id
		 WHERE r.referrer_id = $1
		 ORDER BY r.created_at DESC`,
		referrerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.ReferralView{}
	for rows.Next() {
		var v domain.ReferralView
		if err := rows.Scan(&v.ReferredID, &v.FirstName, &v.LastName, &v.Earned, &v.Date); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}
