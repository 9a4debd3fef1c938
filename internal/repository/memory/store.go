// Package memory is an in-process repository.Store for tests and local runs. Transactions are
// serialised by one mutex and rolled back by restoring a snapshot. Writes made on the Store
// outside WithTx wait for that mutex too, so a rollback never discards them and a row read
// with ...ForUpdate cannot change under the transaction. Plain reads do not wait and may see
// a transaction's writes before it commits.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/repository"
)

type missionKey struct {
	userID    int64
	missionID string
}

type data struct {
	users        map[int64]domain.User
	referrals    []domain.Referral
	missions     map[string]domain.Mission
	userMissions map[missionKey]domain.UserMission
	promos       map[string]domain.PromoCode // by code
	conversions  map[string]domain.Conversion
	audit        []domain.AuditLog
	config       map[string]string
	nextID       int64
}

func (d *data) clone() *data {
	return &data{
		users:        maps.Clone(d.users),
		referrals:    slices.Clone(d.referrals),
		missions:     maps.Clone(d.missions),
		userMissions: maps.Clone(d.userMissions),
		promos:       maps.Clone(d.promos),
		conversions:  maps.Clone(d.conversions),
		audit:        slices.Clone(d.audit),
		config:       maps.Clone(d.config),
		nextID:       d.nextID,
	}
}

// queries runs every operation under mu. WithTx hands it to fn as is.
type queries struct {
	mu  sync.Mutex
	d   *data
	now func() time.Time
}

// Store implements repository.Store.
type Store struct {
	txMu sync.Mutex // held for a whole WithTx and for each write outside one
	*queries
}

var (
	_ repository.Store   = (*Store)(nil)
	_ repository.Queries = (*queries)(nil)
)

func New() *Store {
	return &Store{queries: &queries{
		d: &data{
			users:        map[int64]domain.User{},
			missions:     map[string]domain.Mission{},
			userMissions: map[missionKey]domain.UserMission{},
			promos:       map[string]domain.PromoCode{},
			conversions:  map[string]domain.Conversion{},
			config:       map[string]string{},
		},
		now: time.Now,
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(q repository.Queries) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(s.queries); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Seeding helpers. Missions, promo codes and config are managed outside the API.

func (s *Store) AddMission(m domain.Mission) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.missions[m.ID] = m
}

func (s *Store) AddPromoCode(p domain.PromoCode) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.promos[p.Code] = p
}

func (s *Store) SetConfig(key, value string) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.config[key] = value
}

// Referrals returns a copy of every referral row.
func (s *queries) Referrals() []domain.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.d.referrals)
}

// AuditLogs returns a copy of every audit entry.
func (s *queries) AuditLogs() []domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.d.audit)
}

// Writes outside WithTx wait for any running transaction.

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.CreateUser(ctx, u)
}

func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.UpdateUser(ctx, u)
}

func (s *Store) InsertReferral(ctx context.Context, r *domain.Referral) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.InsertReferral(ctx, r)
}

func (s *Store) UpsertUserMission(ctx context.Context, um *domain.UserMission) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.UpsertUserMission(ctx, um)
}

func (s *Store) MarkPromoCodeUsed(ctx context.Context, id string, userID int64, at time.Time) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.MarkPromoCodeUsed(ctx, id, userID, at)
}

func (s *Store) InsertConversion(ctx context.Context, c *domain.Conversion) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.InsertConversion(ctx, c)
}

func (s *Store) UpdateConversionStatus(ctx context.Context, id string, status domain.ConversionStatus, completedAt int64) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.UpdateConversionStatus(ctx, id, status, completedAt)
}

func (s *Store) InsertAudit(ctx context.Context, log *domain.AuditLog) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.queries.InsertAudit(ctx, log)
}

// users

func (s *queries) GetUser(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *queries) GetUserForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	return s.GetUser(ctx, id)
}

func (s *queries) CreateUser(_ context.Context, u *domain.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.users[u.ID]; ok {
		return false, nil
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.d.users[u.ID] = *u
	return true, nil
}

func (s *queries) UpdateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.d.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *u
	next.AuthKey, next.RefAuth, next.RefAuthUsed, next.ReferredBy = cur.AuthKey, cur.RefAuth, cur.RefAuthUsed, cur.ReferredBy
	next.JoinedAt, next.CreatedAt = cur.JoinedAt, cur.CreatedAt
	s.d.users[u.ID] = next
	return nil
}

func (s *queries) Leaderboard(_ context.Context, order repository.LeaderboardOrder, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []domain.User
	for _, u := range s.d.users {
		if u.IsActive() {
			active = append(active, u)
		}
	}
	slices.SortFunc(active, func(a, b domain.User) int {
		var c int
		if order == repository.LeaderboardByXP {
			c = cmp.Compare(b.XP, a.XP)
		} else {
			c = cmp.Compare(b.TotalEarned, a.TotalEarned)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	res := []domain.LeaderboardEntry{}
	for i, u := range active {
		if i == limit {
			break
		}
		res = append(res, domain.LeaderboardEntry{
			Rank: i + 1, ID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
			TotalEarned: u.TotalEarned, XP: u.XP,
		})
	}
	return res, nil
}

func (s *queries) PlatformStats(context.Context) (*domain.PlatformStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st domain.PlatformStats
	for _, u := range s.d.users {
		st.TotalUsers++
		if u.IsActive() {
			st.ActiveUsers++
		}
		if u.IsMining {
			st.MiningUsers++
		}
		st.TotalBalance += u.Balance
		st.TotalEarned += u.TotalEarned
	}
	for _, c := range s.d.conversions {
		if c.Status == domain.ConversionStatusPending {
			st.PendingConversions++
		}
	}
	return &st, nil
}

// referrals

func (s *queries) InsertReferral(_ context.Context, r *domain.Referral) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.d.referrals {
		if existing.ReferrerID == r.ReferrerID && existing.ReferredID == r.ReferredID {
			return false, nil
		}
	}
	s.d.nextID++
	r.ID = s.d.nextID
	r.CreatedAt = s.now()
	s.d.referrals = append(s.d.referrals, *r)
	return true, nil
}

func (s *queries) ListReferrals(_ context.Context, referrerID int64) ([]domain.ReferralView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []domain.ReferralView{}
	for i := len(s.d.referrals) - 1; i >= 0; i-- {
		r := s.d.referrals[i]
		if r.ReferrerID != referrerID {
			continue
		}
		u := s.d.users[r.ReferredID]
		res = append(res, domain.ReferralView{
			ReferredID: r.ReferredID, FirstName: u.FirstName, LastName: u.LastName,
			Earned: r.Earned, Date: r.CreatedAt,
		})
	}
	return res, nil
}

// missions

func (s *queries) ActiveMissions(context.Context) ([]domain.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []domain.Mission{}
	for _, m := range s.d.missions {
		if m.Active {
			res = append(res, m)
		}
	}
	slices.SortFunc(res, func(a, b domain.Mission) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.ID, b.ID))
	})
	return res, nil
}

func (s *queries) GetMission(_ context.Context, id string) (*domain.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.d.missions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *queries) FindPromoMission(_ context.Context, code string) (*domain.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.d.missions {
		if m.Active && m.Type == domain.MissionTypePromoCode && m.Code != "" && m.Code == code {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *queries) ListUserMissions(_ context.Context, userID int64) ([]domain.UserMission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []domain.UserMission{}
	for k, um := range s.d.userMissions {
		if k.userID == userID {
			res = append(res, um)
		}
	}
	slices.SortFunc(res, func(a, b domain.UserMission) int { return cmp.Compare(a.MissionID, b.MissionID) })
	return res, nil
}

func (s *queries) GetUserMissionForUpdate(_ context.Context, userID int64, missionID string) (*domain.UserMission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	um, ok := s.d.userMissions[missionKey{userID, missionID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &um, nil
}

func (s *queries) UpsertUserMission(_ context.Context, um *domain.UserMission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.userMissions[missionKey{um.UserID, um.MissionID}] = *um
	return nil
}

// promo codes

func (s *queries) GetPromoCodeForUpdate(_ context.Context, code string) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.d.promos[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *queries) MarkPromoCodeUsed(_ context.Context, id string, userID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, p := range s.d.promos {
		if p.ID != id {
			continue
		}
		if p.UsedBy != 0 {
			return false, nil
		}
		p.UsedBy = userID
		p.UsedAt = &at
		s.d.promos[code] = p
		return true, nil
	}
	return false, nil
}

// conversions

func (s *queries) InsertConversion(_ context.Context, c *domain.Conversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.conversions[c.ID] = *c
	return nil
}

func (s *queries) ListConversions(_ context.Context, userID int64) ([]domain.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []domain.Conversion{}
	for _, c := range s.d.conversions {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	slices.SortFunc(res, func(a, b domain.Conversion) int { return cmp.Compare(b.RequestedAt, a.RequestedAt) })
	return res, nil
}

func (s *queries) ListConversionsByStatus(_ context.Context, status domain.ConversionStatus, limit int) ([]domain.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []domain.Conversion{}
	for _, c := range s.d.conversions {
		if c.Status == status {
			res = append(res, c)
		}
	}
	slices.SortFunc(res, func(a, b domain.Conversion) int { return cmp.Compare(a.RequestedAt, b.RequestedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *queries) GetConversionForUpdate(_ context.Context, id string) (*domain.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.conversions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *queries) UpdateConversionStatus(_ context.Context, id string, status domain.ConversionStatus, completedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.conversions[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	c.CompletedAt = completedAt
	s.d.conversions[id] = c
	return nil
}

// audit and config

func (s *queries) InsertAudit(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.nextID++
	entry := *log
	entry.ID = s.d.nextID
	entry.CreatedAt = s.now()
	s.d.audit = append(s.d.audit, entry)
	return nil
}

func (s *queries) PublicConfig(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.d.config), nil
}
