package repository

import (
	"context"

	"mining_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, first_name, last_name, username, auth_key, ref_auth, ref_auth_used, referred_by,
	balance, total_earned, pending_rewards, is_mining, mining_start_time, last_claim_time,
	mining_rate, min_claim_time, mining_speed_level, claim_time_level, mining_rate_level,
	xp, referral_count, bonus_claimed, data_initialized, status, joined_at, last_active, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.AuthKey, &u.RefAuth, &u.RefAuthUsed, &u.ReferredBy,
		&u.Balance, &u.TotalEarned, &u.PendingRewards, &u.IsMining, &u.MiningStartTime, &u.LastClaimTime,
		&u.MiningRate, &u.MinClaimTime, &u.MiningSpeedLevel, &u.ClaimTimeLevel, &u.MiningRateLevel,
		&u.XP, &u.ReferralCount, &u.BonusClaimed, &u.DataInitialized, &u.Status, &u.JoinedAt, &u.LastActive,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (q *queries) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q *queries) GetUserForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (q *queries) CreateUser(ctx context.Context, u *domain.User) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, username, auth_key, ref_auth, ref_auth_used, referred_by,
			mining_rate, min_claim_time, mining_speed_level, claim_time_level, mining_rate_level,
			status, joined_at, last_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (id) DO NOTHING`,
		u.ID, u.FirstName, u.LastName, u.Username, u.AuthKey, u.RefAuth, u.RefAuthUsed, u.ReferredBy,
		u.MiningRate, u.MinClaimTime, u.MiningSpeedLevel, u.ClaimTimeLevel, u.MiningRateLevel,
		u.Status, u.JoinedAt, u.LastActive,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateUser writes back every mutable column. Identity and referral capture columns
// are fixed at creation and never rewritten.
func (q *queries) UpdateUser(ctx context.Context, u *domain.User) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET
			first_name = $2, last_name = $3, username = $4,
			balance = $5, total_earned = $6, pending_rewards = $7,
			is_mining = $8, mining_start_time = $9, last_claim_time = $10,
			mining_rate = $11, min_claim_time = $12,
			mining_speed_level = $13, claim_time_level = $14, mining_rate_level = $15,
			xp = $16, referral_count = $17, bonus_claimed = $18, data_initialized = $19,
			status = $20, last_active = $21
		 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Username,
		u.Balance, u.TotalEarned, u.PendingRewards,
		u.IsMining, u.MiningStartTime, u.LastClaimTime,
		u.MiningRate, u.MinClaimTime,
		u.MiningSpeedLevel, u.ClaimTimeLevel, u.MiningRateLevel,
		u.XP, u.ReferralCount, u.BonusClaimed, u.DataInitialized,
		u.Status, u.LastActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Leaderboard returns the top active users, ranked from 1.
func (q *queries) Leaderboard(ctx context.Context, order LeaderboardOrder, limit int) ([]domain.LeaderboardEntry, error) {
	orderBy := "total_earned DESC, id"
	if order == LeaderboardByXP {
		orderBy = "xp DESC, id"
	}

	rows, err := q.db.Query(ctx,
		`SELECT id, first_name, last_name, total_earned, xp
		 FROM users
		 WHERE status = 'active'
		 ORDER BY `+orderBy+`
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		e := domain.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.TotalEarned, &e.XP); err != nil {
			return nil, err
		}
		res = append(res, e)
		rank++
	}
	return res, rows.Err()
}

// PlatformStats aggregates user and conversion totals for the admin overview.
func (q *queries) PlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	var st domain.PlatformStats
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE is_mining),
		       COALESCE(SUM(balance), 0),
		       COALESCE(SUM(total_earned), 0),
		       (SELECT COUNT(*) FROM conversions WHERE status = 'pending')
		FROM users`,
	).Scan(&st.TotalUsers, &st.ActiveUsers, &st.MiningUsers, &st.TotalBalance, &st.TotalEarned, &st.PendingConversions)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
