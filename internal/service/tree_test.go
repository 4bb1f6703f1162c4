package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// venueLayout is Stalls{Row A{A1, A2}, Row B{B1}} plus a Balcony root.
type venueLayout struct {
	eventID                     string
	section, row, seat          *domain.VenueType
	stalls, rowA, rowB, balcony *domain.VenueNode
	a1, a2, b1                  *domain.VenueNode
}

func (h *harness) venueLayout(t *testing.T) venueLayout {
	t.Helper()
	l := venueLayout{eventID: testutil.NewTestEventID()}
	l.section = h.createType(t, testutil.NewTestSubdividedType(l.eventID, "Section"))
	l.row = h.createType(t, testutil.NewTestSubdividedType(l.eventID, "Row"))
	l.seat = h.createType(t, testutil.NewTestUnitType(l.eventID, "Seat"))

	l.stalls = h.createNode(t, testutil.NewTestNode(l.eventID, l.section.ID, "Stalls", testutil.WithOrderIndex(1)))
	l.balcony = h.createNode(t, testutil.NewTestNode(l.eventID, l.section.ID, "Balcony", testutil.WithOrderIndex(2), testutil.WithCapacity(10)))
	l.rowB = h.createNode(t, testutil.NewTestNode(l.eventID, l.row.ID, "Row B", testutil.WithParentID(l.stalls.ID), testutil.WithOrderIndex(2)))
	l.rowA = h.createNode(t, testutil.NewTestNode(l.eventID, l.row.ID, "Row A", testutil.WithParentID(l.stalls.ID), testutil.WithOrderIndex(1)))
	l.a2 = h.createNode(t, testutil.NewTestNode(l.eventID, l.seat.ID, "A2", testutil.WithParentID(l.rowA.ID), testutil.WithOrderIndex(2)))
	l.a1 = h.createNode(t, testutil.NewTestNode(l.eventID, l.seat.ID, "A1", testutil.WithParentID(l.rowA.ID), testutil.WithOrderIndex(1)))
	l.b1 = h.createNode(t, testutil.NewTestNode(l.eventID, l.seat.ID, "B1", testutil.WithParentID(l.rowB.ID)))
	return l
}

func parentOf(t *testing.T, h *harness, id string) *string {
	t.Helper()
	n, err := h.tree.GetNode(context.Background(), id)
	require.NoError(t, err)
	return n.ParentID
}

func TestTree_CreateNode_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	err := h.tree.CreateNode(ctx, testutil.NewTestNode(l.eventID, l.seat.ID, "Neg", testutil.WithCapacity(-1)))
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	err = h.tree.CreateNode(ctx, testutil.NewTestNode(l.eventID, l.seat.ID, "Lost", testutil.WithParentID("missing")))
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	err = h.tree.CreateNode(ctx, testutil.NewTestNode(l.eventID, "no-type", "Untyped"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other := testutil.NewTestEventID()
	otherSeat := h.createType(t, testutil.NewTestUnitType(other, "Seat"))
	err = h.tree.CreateNode(ctx, testutil.NewTestNode(other, otherSeat.ID, "Intruder", testutil.WithParentID(l.rowA.ID)))
	assert.ErrorIs(t, err, domain.ErrCrossEventParent)

	err = h.tree.CreateNode(ctx, testutil.NewTestNode(l.eventID, otherSeat.ID, "Borrowed type"))
	assert.ErrorIs(t, err, domain.ErrEventMismatch)

	self := testutil.NewTestNode(l.eventID, l.seat.ID, "Self")
	self.ParentID = &self.ID
	assert.ErrorIs(t, h.tree.CreateNode(ctx, self), domain.ErrCycleDetected)
}

func TestTree_MoveNode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	require.NoError(t, h.tree.MoveNode(ctx, l.b1.ID, &l.rowA.ID))
	assert.Equal(t, l.rowA.ID, *parentOf(t, h, l.b1.ID))

	require.NoError(t, h.tree.MoveNode(ctx, l.rowB.ID, nil))
	assert.Nil(t, parentOf(t, h, l.rowB.ID))
}

func TestTree_MoveNode_CycleLeavesTreeUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	tests := []struct {
		name      string
		node      string
		newParent string
	}{
		{"onto itself", l.stalls.ID, l.stalls.ID},
		{"onto child", l.stalls.ID, l.rowA.ID},
		{"onto grandchild", l.stalls.ID, l.a1.ID},
		{"row onto own seat", l.rowA.ID, l.a2.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := parentOf(t, h, tt.node)
			err := h.tree.MoveNode(ctx, tt.node, &tt.newParent)
			assert.ErrorIs(t, err, domain.ErrCycleDetected)
			assert.Equal(t, before, parentOf(t, h, tt.node))
		})
	}

	all, err := h.tree.ListNodes(ctx, l.eventID)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestTree_MoveNode_CrossEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)
	other := h.venueLayout(t)

	err := h.tree.MoveNode(ctx, l.b1.ID, &other.rowA.ID)
	assert.ErrorIs(t, err, domain.ErrCrossEventParent)
	assert.Equal(t, l.rowB.ID, *parentOf(t, h, l.b1.ID))

	missing := "missing"
	assert.ErrorIs(t, h.tree.MoveNode(ctx, l.b1.ID, &missing), domain.ErrNodeNotFound)
	assert.ErrorIs(t, h.tree.MoveNode(ctx, "missing", nil), domain.ErrNodeNotFound)
}

func TestTree_DeleteNode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	assert.ErrorIs(t, h.tree.DeleteNode(ctx, l.rowA.ID), domain.ErrHasChildren)

	_, err := h.engine.Assign(ctx, contract.AssignRequest{UserID: "u1", EventID: l.eventID, NodeID: l.a1.ID})
	require.NoError(t, err)
	assert.ErrorIs(t, h.tree.DeleteNode(ctx, l.a1.ID), domain.ErrHasLiveAssignments)

	require.NoError(t, h.engine.Cancel(ctx, "u1", l.eventID, ""))
	require.NoError(t, h.tree.DeleteNode(ctx, l.a1.ID))
	assert.ErrorIs(t, h.tree.DeleteNode(ctx, l.a1.ID), domain.ErrNodeNotFound)
}

func TestTree_Descendants_PreOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	seq, err := h.tree.Descendants(ctx, l.stalls.ID)
	require.NoError(t, err)

	var names []string
	for n := range seq {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Row A", "A1", "A2", "Row B", "B1"}, names)

	leaf, err := h.tree.Descendants(ctx, l.b1.ID)
	require.NoError(t, err)
	for range leaf {
		t.Fatal("leaf has no descendants")
	}

	_, err = h.tree.Descendants(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestTree_Descendants_StopsEarly(t *testing.T) {
	h := newHarness(t)
	l := h.venueLayout(t)

	seq, err := h.tree.Descendants(context.Background(), l.stalls.ID)
	require.NoError(t, err)

	var seen int
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestTree_ListChildren(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	children, err := h.tree.ListChildren(ctx, l.rowA.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "A1", children[0].Name)

	_, err = h.tree.ListChildren(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestTree_OccupancyAndRollup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	for user, node := range map[string]string{"u1": l.a1.ID, "u2": l.a2.ID, "u3": l.b1.ID} {
		_, err := h.engine.Assign(ctx, contract.AssignRequest{UserID: user, EventID: l.eventID, NodeID: node})
		require.NoError(t, err)
	}

	occ, err := h.tree.Occupancy(ctx, l.a1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, occ.Used)
	require.NotNil(t, occ.Capacity)
	assert.Equal(t, 1, *occ.Capacity, "atomic node without capacity is a single seat")

	occ, err = h.tree.Occupancy(ctx, l.stalls.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, occ.Used, "occupancy counts only the exact node")
	assert.Nil(t, occ.Capacity)

	roll, err := h.tree.Rollup(ctx, l.stalls.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, roll.Used)
	assert.Equal(t, 6, roll.Nodes)
	require.NotNil(t, roll.Capacity, "containers with children do not make the rollup unbounded")
	assert.Equal(t, 3, *roll.Capacity)

	// A leaf subdivided node without capacity is unconstrained.
	h.createNode(t, testutil.NewTestNode(l.eventID, l.row.ID, "Standing", testutil.WithParentID(l.stalls.ID)))
	roll, err = h.tree.Rollup(ctx, l.stalls.ID)
	require.NoError(t, err)
	assert.Nil(t, roll.Capacity)
	assert.Equal(t, 7, roll.Nodes)
}

func TestTree_Rollup_FollowsDescendants(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.venueLayout(t)

	_, err := h.engine.Assign(ctx, contract.AssignRequest{UserID: "u1", EventID: l.eventID, NodeID: l.a2.ID})
	require.NoError(t, err)

	seq, err := h.tree.Descendants(ctx, l.rowA.ID)
	require.NoError(t, err)
	below := 0
	for range seq {
		below++
	}

	roll, err := h.tree.Rollup(ctx, l.rowA.ID)
	require.NoError(t, err)
	assert.Equal(t, below+1, roll.Nodes)
	assert.Equal(t, 1, roll.Used)
	require.NotNil(t, roll.Capacity)
	assert.Equal(t, 2, *roll.Capacity, "Row A is a container; its seats bound the total")

	// A leaf's rollup is its own occupancy.
	roll, err = h.tree.Rollup(ctx, l.a2.ID)
	require.NoError(t, err)
	occ, err := h.tree.Occupancy(ctx, l.a2.ID)
	require.NoError(t, err)
	assert.Equal(t, occ.Used, roll.Used)
	assert.Equal(t, occ.Capacity, roll.Capacity)
	assert.Equal(t, 1, roll.Nodes)

	roll, err = h.tree.Rollup(ctx, l.balcony.ID)
	require.NoError(t, err)
	require.NotNil(t, roll.Capacity)
	assert.Equal(t, 10, *roll.Capacity)

	_, err = h.tree.Rollup(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}
