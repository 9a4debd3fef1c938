package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seedUser creates an active user with default mining settings.
func seedUser(t *testing.T, st *memory.Store, id int64, mutate func(u *domain.User)) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:        id,
		FirstName: "User",
		AuthKey:   fmt.Sprintf("authkey-%d", id),
		RefAuth:   fmt.Sprintf("refauth-%d", id),
		JoinedAt:  testNow.UnixMilli(),
	}
	mining.DefaultRules().NewUserDefaults(u)
	if mutate != nil {
		mutate(u)
	}
	ok, err := st.CreateUser(context.Background(), u)
	require.NoError(t, err)
	require.True(t, ok)
	return u
}

func getUser(t *testing.T, st *memory.Store, id int64) *domain.User {
	t.Helper()
	u, err := st.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

type fakeMembers map[int64]bool

func (f fakeMembers) IsMember(_ context.Context, userID int64, _ string) bool {
	return f[userID]
}
