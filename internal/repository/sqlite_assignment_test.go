package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assignmentFixture struct {
	repo  *SQLiteAssignmentRepo
	nodes *SQLiteVenueNodeRepo
	seat  *domain.VenueNode
	table *domain.VenueNode
}

func setupAssignmentRepo(t *testing.T) assignmentFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	types := NewSQLiteVenueTypeRepo(database)
	seatType := testutil.NewTestUnitType("e1", "Seat")
	tableType := testutil.NewTestSubdividedType("e1", "Table")
	require.NoError(t, types.Create(ctx, seatType))
	require.NoError(t, types.Create(ctx, tableType))

	nodes := NewSQLiteVenueNodeRepo(database)
	seat := testutil.NewTestNode("e1", seatType.ID, "Seat42")
	table := testutil.NewTestNode("e1", tableType.ID, "Table 1", testutil.WithCapacity(4))
	require.NoError(t, nodes.Create(ctx, seat))
	require.NoError(t, nodes.Create(ctx, table))

	return assignmentFixture{
		repo:  NewSQLiteAssignmentRepo(database),
		nodes: nodes,
		seat:  seat,
		table: table,
	}
}

func TestAssignmentRepo_CreateAndFind(t *testing.T) {
	f := setupAssignmentRepo(t)
	ctx := context.Background()

	a := testutil.NewTestAssignment("u1", "e1", f.table.ID, testutil.Index(2))
	require.NoError(t, f.repo.Create(ctx, a))

	byUser, err := f.repo.FindLiveByUser(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byUser.ID)
	require.NotNil(t, byUser.SubUnitIndex)
	assert.Equal(t, 2, *byUser.SubUnitIndex)
	assert.True(t, byUser.IsLive())

	bySlot, err := f.repo.FindLiveBySlot(ctx, f.table.ID, testutil.Index(2))
	require.NoError(t, err)
	assert.Equal(t, a.ID, bySlot.ID)

	_, err = f.repo.FindLiveBySlot(ctx, f.table.ID, testutil.Index(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.repo.FindLiveBySlot(ctx, f.table.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignmentRepo_UniqueIndexesMapToDomainErrors(t *testing.T) {
	f := setupAssignmentRepo(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Create(ctx, testutil.NewTestAssignment("u1", "e1", f.table.ID, testutil.Index(0))))

	err := f.repo.Create(ctx, testutil.NewTestAssignment("u1", "e1", f.table.ID, testutil.Index(1)))
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	err = f.repo.Create(ctx, testutil.NewTestAssignment("u2", "e1", f.table.ID, testutil.Index(0)))
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	// NULL indexes are distinct to SQLite; the ledger guards atomic nodes.
	require.NoError(t, f.repo.Create(ctx, testutil.NewTestAssignment("u3", "e1", f.seat.ID, nil)))
	require.NoError(t, f.repo.Create(ctx, testutil.NewTestAssignment("u4", "e1", f.seat.ID, nil)))
}

func TestAssignmentRepo_ReleaseTombstones(t *testing.T) {
	f := setupAssignmentRepo(t)
	ctx := context.Background()

	a := testutil.NewTestAssignment("u1", "e1", f.seat.ID, nil)
	require.NoError(t, f.repo.Create(ctx, a))

	at := time.Now().UTC()
	require.NoError(t, f.repo.Release(ctx, a.ID, domain.ReleaseCancelled, at))
	assert.ErrorIs(t, f.repo.Release(ctx, a.ID, domain.ReleaseCancelled, at), domain.ErrNotFound)

	_, err := f.repo.FindLiveByUser(ctx, "u1", "e1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLive())
	assert.Equal(t, domain.ReleaseCancelled, got.ReleaseReason)

	count, err := f.repo.CountLiveByNode(ctx, f.seat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The user may hold a new live row once the old one is released.
	require.NoError(t, f.repo.Create(ctx, testutil.NewTestAssignment("u1", "e1", f.seat.ID, nil)))
	history, err := f.repo.ListHistory(ctx, "u1", "e1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].IsLive())
	assert.True(t, history[1].IsLive())
}

func TestAssignmentRepo_ListAndCountLiveByNode(t *testing.T) {
	f := setupAssignmentRepo(t)
	ctx := context.Background()

	for i, user := range []string{"u3", "u1", "u2"} {
		require.NoError(t, f.repo.Create(ctx, testutil.NewTestAssignment(user, "e1", f.table.ID, testutil.Index(2-i))))
	}

	live, err := f.repo.ListLiveByNode(ctx, f.table.ID)
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, 0, *live[0].SubUnitIndex)
	assert.Equal(t, 2, *live[2].SubUnitIndex)

	n, err := f.repo.CountLiveByNode(ctx, f.table.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, f.repo.Create(ctx, testutil.NewTestAssignment("u4", "e1", f.seat.ID, nil)))
	byNode, err := f.repo.CountLiveByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{f.table.ID: 3, f.seat.ID: 1}, byNode)
}

func TestAssignmentRepo_DeletingNodeDropsHistory(t *testing.T) {
	f := setupAssignmentRepo(t)
	ctx := context.Background()

	a := testutil.NewTestAssignment("u1", "e1", f.seat.ID, nil)
	require.NoError(t, f.repo.Create(ctx, a))
	require.NoError(t, f.repo.Release(ctx, a.ID, domain.ReleaseAdmin, time.Now()))
	require.NoError(t, f.nodes.Delete(ctx, f.seat.ID))

	_, err := f.repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
