package repository

import (
	"context"
	"encoding/json"

	"mining_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

const conversionColumns = `id, user_id, from_currency, to_currency, amount, converted_amount,
	category, package_type, required_info, status, requested_at, completed_at`

func scanConversion(row pgx.Row) (*domain.Conversion, error) {
	var c domain.Conversion
	var info []byte
	err := row.Scan(&c.ID, &c.UserID, &c.FromCurrency, &c.ToCurrency, &c.Amount, &c.ConvertedAmount,
		&c.Category, &c.PackageType, &info, &c.Status, &c.RequestedAt, &c.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(info, &c.RequiredInfo); err != nil || c.RequiredInfo == nil {
		c.RequiredInfo = map[string]string{}
	}
	return &c, nil
}

func collectConversions(rows pgx.Rows) ([]domain.Conversion, error) {
	defer rows.Close()
	res := []domain.Conversion{}
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *c)
	}
	return res, rows.Err()
}

func (q *queries) InsertConversion(ctx context.Context, c *domain.Conversion) error {
	info, err := json.Marshal(c.RequiredInfo)
	if err != nil {
		info = []byte("{}")
	}
	_, err = q.db.Exec(ctx,
		`INSERT INTO conversions (`+conversionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.UserID, c.FromCurrency, c.ToCurrency, c.Amount, c.ConvertedAmount,
		c.Category, c.PackageType, info, c.Status, c.RequestedAt, c.CompletedAt,
	)
	return err
}

// ListConversions returns a user's requests, newest first.
func (q *queries) ListConversions(ctx context.Context, userID int64) ([]domain.Conversion, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+conversionColumns+` FROM conversions WHERE user_id = $1 ORDER BY requested_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectConversions(rows)
}

// ListConversionsByStatus returns requests in a status, oldest first.
func (q *queries) ListConversionsByStatus(ctx context.Context, status domain.ConversionStatus, limit int) ([]domain.Conversion, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+conversionColumns+` FROM conversions
		 WHERE status = $1
		 ORDER BY requested_at
		 LIMIT $2`, status, limit)
	if err != nil {
		return nil, err
	}
	return collectConversions(rows)
}

func (q *queries) GetConversionForUpdate(ctx context.Context, id string) (*domain.Conversion, error) {
	return scanConversion(q.db.QueryRow(ctx,
		`SELECT `+conversionColumns+` FROM conversions WHERE id = $1 FOR UPDATE`, id))
}

func (q *queries) UpdateConversionStatus(ctx context.Context, id string, status domain.ConversionStatus, completedAt int64) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE conversions SET status = $2, completed_at = $3 WHERE id = $1`,
		id, status, completedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
