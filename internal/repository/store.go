package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mining_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// LeaderboardOrder selects the ranking column.
type LeaderboardOrder string

const (
	LeaderboardByBalance LeaderboardOrder = "balance" // ranks by total_earned
	LeaderboardByXP      LeaderboardOrder = "xp"
)

// Queries is everything the services need from persistence. Methods ending in ForUpdate
// lock the row until the surrounding transaction ends and only make sense inside WithTx.
type Queries interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserForUpdate(ctx context.Context, id int64) (*domain.User, error)
	// CreateUser inserts u and reports false when a user with that id already exists.
	CreateUser(ctx context.Context, u *domain.User) (bool, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	Leaderboard(ctx context.Context, order LeaderboardOrder, limit int) ([]domain.LeaderboardEntry, error)
	PlatformStats(ctx context.Context) (*domain.PlatformStats, error)

	// InsertReferral reports false when the (referrer, referred) pair already exists.
	InsertReferral(ctx context.Context, r *domain.Referral) (bool, error)
	ListReferrals(ctx context.Context, referrerID int64) ([]domain.ReferralView, error)

	ActiveMissions(ctx context.Context) ([]domain.Mission, error)
	GetMission(ctx context.Context, id string) (*domain.Mission, error)
	FindPromoMission(ctx context.Context, code string) (*domain.Mission, error)
	ListUserMissions(ctx context.Context, userID int64) ([]domain.UserMission, error)
	GetUserMissionForUpdate(ctx context.Context, userID int64, missionID string) (*domain.UserMission, error)
	UpsertUserMission(ctx context.Context, um *domain.UserMission) error

	GetPromoCodeForUpdate(ctx context.Context, code string) (*domain.PromoCode, error)
	// MarkPromoCodeUsed reports false when the code was already used.
	MarkPromoCodeUsed(ctx context.Context, id string, userID int64, at time.Time) (bool, error)

	InsertConversion(ctx context.Context, c *domain.Conversion) error
	ListConversions(ctx context.Context, userID int64) ([]domain.Conversion, error)
	ListConversionsByStatus(ctx context.Context, status domain.ConversionStatus, limit int) ([]domain.Conversion, error)
	GetConversionForUpdate(ctx context.Context, id string) (*domain.Conversion, error)
	UpdateConversionStatus(ctx context.Context, id string, status domain.ConversionStatus, completedAt int64) error

	InsertAudit(ctx context.Context, log *domain.AuditLog) error
	PublicConfig(ctx context.Context) (map[string]string, error)
}

// Store is a Queries bound to the connection pool plus transaction control.
type Store interface {
	Queries
	// WithTx runs fn in one transaction. fn returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db querier
}

// PgStore is the Postgres implementation of Store.
type PgStore struct {
	*queries
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{queries: &queries{db: pool}, pool: pool}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
