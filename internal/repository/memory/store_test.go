package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx_RollbackKeepsWritesOutsideTx(t *testing.T) {
	ctx := context.Background()
	st := New()
	errAbort := errors.New("abort")

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- st.WithTx(ctx, func(q repository.Queries) error {
			if _, err := q.CreateUser(ctx, &domain.User{ID: 1}); err != nil {
				return err
			}
			close(inTx)
			<-release
			return errAbort
		})
	}()
	<-inTx

	written := make(chan error, 1)
	go func() {
		_, err := st.CreateUser(ctx, &domain.User{ID: 2})
		written <- err
	}()

	select {
	case <-written:
		t.Fatal("write outside the transaction did not wait for it")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.ErrorIs(t, <-txDone, errAbort)
	require.NoError(t, <-written)

	_, err := st.GetUser(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	u, err := st.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
}

func TestWithTx_Commit(t *testing.T) {
	ctx := context.Background()
	st := New()

	require.NoError(t, st.WithTx(ctx, func(q repository.Queries) error {
		_, err := q.CreateUser(ctx, &domain.User{ID: 7})
		return err
	}))
	st.AddMission(domain.Mission{ID: "m1"})

	_, err := st.GetUser(ctx, 7)
	assert.NoError(t, err)
	m, err := st.GetMission(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
}
