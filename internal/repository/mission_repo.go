package repository

import (
	"context"
	"time"

	"mining_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

const missionColumns = `id, title, description, reward, required_count, COALESCE(channel_id, ''),
	COALESCE(url, ''), COALESCE(code, ''), COALESCE(required_time, 0), active, category, type,
	priority, created_at`

func scanMission(row pgx.Row) (*domain.Mission, error) {
	var m domain.Mission
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Reward, &m.RequiredCount, &m.ChannelID,
		&m.URL, &m.Code, &m.RequiredTime, &m.Active, &m.Category, &m.Type, &m.Priority, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ActiveMissions возвращает активные миссии по приоритету
func (q *queries) ActiveMissions(ctx context.Context) ([]domain.Mission, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+missionColumns+` FROM missions WHERE active = true ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Mission{}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *m)
	}
	return res, rows.Err()
}

func (q *queries) GetMission(ctx context.Context, id string) (*domain.Mission, error) {
	return scanMission(q.db.QueryRow(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = $1`, id))
}

// FindPromoMission ищет активную миссию типа promo_code по коду
func (q *queries) FindPromoMission(ctx context.Context, code string) (*domain.Mission, error) {
	return scanMission(q.db.QueryRow(ctx,
		`SELECT `+missionColumns+` FROM missions
		 WHERE code = $1 AND type = 'promo_code' AND active = true
		 LIMIT 1`, code))
}

const userMissionColumns = `user_id, mission_id, started, completed, claimed, current_count,
	started_date, completed_at, claimed_at, timer_started, code_submitted`

func scanUserMission(row pgx.Row) (*domain.UserMission, error) {
	var um domain.UserMission
	err := row.Scan(&um.UserID, &um.MissionID, &um.Started, &um.Completed, &um.Claimed, &um.CurrentCount,
		&um.StartedDate, &um.CompletedAt, &um.ClaimedAt, &um.TimerStarted, &um.CodeSubmitted)
	if err != nil {
		return nil, notFound(err)
	}
	return &um, nil
}

// ListUserMissions возвращает прогресс пользователя по всем миссиям
func (q *queries) ListUserMissions(ctx context.Context, userID int64) ([]domain.UserMission, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+userMissionColumns+` FROM user_missions WHERE user_id = $1 ORDER BY mission_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.UserMission{}
	for rows.Next() {
		um, err := scanUserMission(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *um)
	}
	return res, rows.Err()
}

func (q *queries) GetUserMissionForUpdate(ctx context.Context, userID int64, missionID string) (*domain.UserMission, error) {
	return scanUserMission(q.db.QueryRow(ctx,
		`SELECT `+userMissionColumns+` FROM user_missions
		 WHERE user_id = $1 AND mission_id = $2
		 FOR UPDATE`, userID, missionID))
}

// UpsertUserMission создаёт или перезаписывает прогресс по (user_id, mission_id)
func (q *queries) UpsertUserMission(ctx context.Context, um *domain.UserMission) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO user_missions (`+userMissionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, mission_id) DO UPDATE SET
			started = EXCLUDED.started,
			completed = EXCLUDED.completed,
			claimed = EXCLUDED.claimed,
			current_count = EXCLUDED.current_count,
			started_date = EXCLUDED.started_date,
			completed_at = EXCLUDED.completed_at,
			claimed_at = EXCLUDED.claimed_at,
			timer_started = EXCLUDED.timer_started,
			code_submitted = EXCLUDED.code_submitted`,
		um.UserID, um.MissionID, um.Started, um.Completed, um.Claimed, um.CurrentCount,
		um.StartedDate, um.CompletedAt, um.ClaimedAt, um.TimerStarted, um.CodeSubmitted,
	)
	return err
}

func (q *queries) GetPromoCodeForUpdate(ctx context.Context, code string) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := q.db.QueryRow(ctx,
		`SELECT id, code, reward, COALESCE(used_by, 0), used_at, expires_at
		 FROM promo_codes
		 WHERE code = $1
		 FOR UPDATE`, code,
	).Scan(&p.ID, &p.Code, &p.Reward, &p.UsedBy, &p.UsedAt, &p.ExpiresAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (q *queries) MarkPromoCodeUsed(ctx context.Context, id string, userID int64, at time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE promo_codes SET used_by = $2, used_at = $3 WHERE id = $1 AND used_by IS NULL`,
		id, userID, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
