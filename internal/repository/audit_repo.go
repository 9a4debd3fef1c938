package repository

import (
	"context"
	"encoding/json"

	"mining_webapp/internal/domain"
)

// InsertAudit appends an audit log entry. Details that fail to encode are stored as {}.
func (q *queries) InsertAudit(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	_, err = q.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, category, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.UserID, log.Action, log.Category, detailsJSON, log.IP, log.UserAgent)
	return err
}

// PublicConfig returns the key/value settings exposed to clients.
func (q *queries) PublicConfig(ctx context.Context) (map[string]string, error) {
	rows, err := q.db.Query(ctx, `SELECT setting_key, setting_value FROM config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		res[k] = v
	}
	return res, rows.Err()
}
