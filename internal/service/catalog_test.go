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

func TestCatalog_CreateType_AssignsIDAndValidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	typ := &domain.VenueType{EventID: "e1", Label: "Table", SubUnitLabel: "chair"}
	require.NoError(t, h.catalog.CreateType(ctx, typ))
	assert.NotEmpty(t, typ.ID, "service should assign UUID")
	assert.False(t, typ.CreatedAt.IsZero())

	err := h.catalog.CreateType(ctx, &domain.VenueType{EventID: "e1", Label: "Seat", IsUnit: true, SubUnitLabel: "half"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = h.catalog.CreateType(ctx, &domain.VenueType{EventID: "e1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalog_GetType_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.catalog.GetType(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalog_ListTypes_ScopedToEvent(t *testing.T) {
	h := newHarness(t)
	h.createType(t, testutil.NewTestUnitType("e1", "Seat"))
	h.createType(t, testutil.NewTestUnitType("e2", "Seat"))

	types, err := h.catalog.ListTypes(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "e1", types[0].EventID)
}

func TestCatalog_UpdateType_ShapeChangeBlockedByLiveAssignments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.hallScenario(t)

	seatType, err := h.catalog.GetType(ctx, s.seat42.TypeID)
	require.NoError(t, err)

	res, err := h.engine.Assign(ctx, contract.AssignRequest{UserID: "u1", EventID: s.eventID, NodeID: s.seat42.ID})
	require.NoError(t, err)

	// Relabelling is fine while in use.
	seatType.Label = "Armchair"
	require.NoError(t, h.catalog.UpdateType(ctx, seatType))

	seatType.IsUnit = false
	err = h.catalog.UpdateType(ctx, seatType)
	assert.ErrorIs(t, err, domain.ErrTypeInUse)

	got, err := h.catalog.GetType(ctx, seatType.ID)
	require.NoError(t, err)
	assert.True(t, got.IsUnit, "shape must be unchanged after refusal")
	assert.Equal(t, "Armchair", got.Label)

	require.NoError(t, h.ledger.Release(ctx, res.AssignmentID, domain.ReleaseAdmin))
	require.NoError(t, h.catalog.UpdateType(ctx, seatType))
	got, err = h.catalog.GetType(ctx, seatType.ID)
	require.NoError(t, err)
	assert.False(t, got.IsUnit)
}

func TestCatalog_UpdateType_CannotChangeEvent(t *testing.T) {
	h := newHarness(t)
	typ := h.createType(t, testutil.NewTestUnitType("e1", "Seat"))

	typ.EventID = "e2"
	err := h.catalog.UpdateType(context.Background(), typ)
	assert.ErrorIs(t, err, domain.ErrEventMismatch)
}

func TestCatalog_DeleteType(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.hallScenario(t)

	err := h.catalog.DeleteType(ctx, s.seat42.TypeID)
	assert.ErrorIs(t, err, domain.ErrTypeInUse)

	unused := h.createType(t, testutil.NewTestUnitType(s.eventID, "Standing"))
	require.NoError(t, h.catalog.DeleteType(ctx, unused.ID))
	assert.ErrorIs(t, h.catalog.DeleteType(ctx, unused.ID), domain.ErrNotFound)
}

func TestCatalog_ValidateAssignmentShape(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.hallScenario(t)

	assert.NoError(t, h.catalog.ValidateAssignmentShape(ctx, s.hall, testutil.Index(1)))
	assert.ErrorIs(t, h.catalog.ValidateAssignmentShape(ctx, s.hall, nil), domain.ErrShapeMismatch)
	assert.ErrorIs(t, h.catalog.ValidateAssignmentShape(ctx, s.hall, testutil.Index(2)), domain.ErrShapeMismatch)
	assert.NoError(t, h.catalog.ValidateAssignmentShape(ctx, s.seat42, nil))
	assert.ErrorIs(t, h.catalog.ValidateAssignmentShape(ctx, s.seat42, testutil.Index(0)), domain.ErrShapeMismatch)
}
