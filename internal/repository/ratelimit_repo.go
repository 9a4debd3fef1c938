package repository

import (
	"context"
	"time"

	"mining_webapp/internal/ratelimit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RateLimitRepository keeps fixed-window counters in the rate_limits table.
type RateLimitRepository struct {
	db *pgxpool.Pool
}

func NewRateLimitRepository(db *pgxpool.Pool) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Update locks the key's row for the duration of fn. A missing row is created as an expired
// window first so concurrent first requests still serialise on the lock.
func (r *RateLimitRepository) Update(ctx context.Context, key string, fn func(ratelimit.Counter) ratelimit.Counter) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO rate_limits (ip, request_count, window_start)
		 VALUES ($1, 0, 'epoch')
		 ON CONFLICT (ip) DO NOTHING`, key); err != nil {
		return err
	}

	var c ratelimit.Counter
	if err := tx.QueryRow(ctx,
		`SELECT request_count, window_start FROM rate_limits WHERE ip = $1 FOR UPDATE`, key,
	).Scan(&c.Count, &c.WindowStart); err != nil {
		return err
	}
	if c.Count == 0 {
		c.WindowStart = time.Time{}
	}

	next := fn(c)
	if _, err := tx.Exec(ctx,
		`UPDATE rate_limits SET request_count = $2, window_start = $3 WHERE ip = $1`,
		key, next.Count, next.WindowStart); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteExpired removes windows that started before cutoff.
func (r *RateLimitRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
