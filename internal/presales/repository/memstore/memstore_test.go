package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateOrGetRowsIDIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.AllocateOrGetRowsID(ctx, "Acme - WiFi Upgrade - Jan 2026")
	require.NoError(t, err)
	assert.Equal(t, "Q10001", first)

	again, err := s.AllocateOrGetRowsID(ctx, "Acme - WiFi Upgrade - Jan 2026")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	next, err := s.AllocateOrGetRowsID(ctx, "Beta - Firewall")
	require.NoError(t, err)
	assert.Equal(t, "Q10002", next)
}

func TestTxRollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.Tx(ctx, func(tx repository.Store) error {
		_, err := tx.AllocateOrGetRowsID(ctx, "rolled back")
		require.NoError(t, err)
		require.NoError(t, tx.InsertDetailLine(ctx, &entity.Opportunity{UID: "X-1", OpportunityID: "X"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := s.FindRowsID(ctx, "rolled back")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.SelectByUID(ctx, "X-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTxSeesOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Tx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.InsertDetailLine(ctx, &entity.Opportunity{UID: "A-1", OpportunityID: "A"}))
		got, err := tx.SelectByUID(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, "A", got.OpportunityID)

		// not visible outside the transaction before commit
		_, err = s.SelectByUID(ctx, "A-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	_, err = s.SelectByUID(ctx, "A-1")
	assert.NoError(t, err)
}

func TestConcurrentAllocationConflictsOnCommit(t *testing.T) {
	ctx := context.Background()
	s := New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Tx(ctx, func(tx repository.Store) error {
			id, err := tx.AllocateOrGetRowsID(ctx, "first")
			if err != nil {
				return err
			}
			if id != "Q10001" {
				return errors.New("unexpected id " + id)
			}
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	err := s.Tx(ctx, func(tx repository.Store) error {
		id, err := tx.AllocateOrGetRowsID(ctx, "second")
		require.NoError(t, err)
		assert.Equal(t, "Q10001", id)
		return nil
	})
	require.NoError(t, err)

	close(release)
	err = <-done
	require.ErrorIs(t, err, repository.ErrConflict)

	rowsID, ok, err := s.FindRowsID(ctx, "second")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Q10001", rowsID)
	_, ok, _ = s.FindRowsID(ctx, "first")
	assert.False(t, ok)
}

func TestUpdateFullRecordMovesPrimaryKey(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertDetailLine(ctx, &entity.Opportunity{
		UID: "SG1Q10001-P-1", OpportunityID: "SG1Q10001", Brand: "Cisco", Cost: 500, Notes: "keep", CreatedAt: created,
	}))

	err := s.UpdateFullRecord(ctx, "SG1Q10001-P-1", &entity.Opportunity{
		UID: "SG1Q10001-Q-1", OpportunityID: "SG1Q10001", Brand: "Juniper", UpdatedAt: created.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = s.SelectByUID(ctx, "SG1Q10001-P-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	got, err := s.SelectByUID(ctx, "SG1Q10001-Q-1")
	require.NoError(t, err)
	assert.Equal(t, "Juniper", got.Brand)
	assert.Equal(t, int64(500), got.Cost)
	assert.Equal(t, "keep", got.Notes)
	assert.True(t, got.CreatedAt.Equal(created))

	err = s.UpdateFullRecord(ctx, "missing", &entity.Opportunity{UID: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSelectAllAccessScoping(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPresales(entity.Presales{PresalesName: "alice", AccessGroup: "DC_TEAM"})
	s.PutPresales(entity.Presales{PresalesName: "bob", AccessGroup: "NET_TEAM"})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lines := []entity.Opportunity{
		{UID: "1", PresalesName: "alice", Pillar: "Network", CreatedAt: base},
		{UID: "2", PresalesName: "bob", Pillar: "Data Center", CreatedAt: base.Add(time.Hour)},
		{UID: "3", PresalesName: "bob", Pillar: "Network", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range lines {
		require.NoError(t, s.InsertDetailLine(ctx, &lines[i]))
	}

	uids := func(items []entity.Opportunity) []string {
		var out []string
		for _, o := range items {
			out = append(out, o.UID)
		}
		return out
	}

	all, err := s.SelectAll(ctx, repository.AccessFilter{Privileged: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, uids(all))

	dc, err := s.SelectAll(ctx, repository.AccessFilter{Group: "DC_TEAM"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, uids(dc))

	net, err := s.SelectAll(ctx, repository.AccessFilter{Group: "NET_TEAM"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, uids(net))

	none, err := s.SelectAll(ctx, repository.AccessFilter{Group: "SEC_TEAM"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	err := s.Tx(ctx, func(tx repository.Store) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.AllocateOrGetRowsID(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
