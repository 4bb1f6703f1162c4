package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/repository"
	"github.com/alexanderramin/venuealloc/internal/testutil"
	"github.com/stretchr/testify/require"
)

// harness wires every service over one file-backed test database.
type harness struct {
	db      *sql.DB
	uow     db.UnitOfWork
	types   repository.VenueTypeRepo
	nodes   repository.VenueNodeRepo
	assigns repository.AssignmentRepo

	catalog VenueTypeCatalog
	tree    VenueTree
	ledger  AllocationLedger
	engine  AllocationEngine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	return newHarnessWithUoW(database, testutil.NewTestUoW(database))
}

func newHarnessWithUoW(database *sql.DB, uow db.UnitOfWork) *harness {
	h := &harness{
		db:      database,
		uow:     uow,
		types:   repository.NewSQLiteVenueTypeRepo(database),
		nodes:   repository.NewSQLiteVenueNodeRepo(database),
		assigns: repository.NewSQLiteAssignmentRepo(database),
	}
	h.catalog = NewVenueTypeCatalog(h.types, uow)
	h.tree = NewVenueTree(h.nodes, h.types, h.assigns, uow)
	h.ledger = NewAllocationLedger(h.nodes, h.assigns, h.catalog, uow)
	h.engine = NewAllocationEngine(uow, h.catalog, h.tree, h.ledger)
	return h
}

func (h *harness) createType(t *testing.T, typ *domain.VenueType) *domain.VenueType {
	t.Helper()
	require.NoError(t, h.catalog.CreateType(context.Background(), typ))
	return typ
}

func (h *harness) createNode(t *testing.T, n *domain.VenueNode) *domain.VenueNode {
	t.Helper()
	require.NoError(t, h.tree.CreateNode(context.Background(), n))
	return n
}

// hallScenario builds a subdivided Hall of capacity 2 and an atomic Seat42
// under it, both in one event.
type hallScenario struct {
	eventID string
	hall    *domain.VenueNode
	seat42  *domain.VenueNode
}

func (h *harness) hallScenario(t *testing.T) hallScenario {
	t.Helper()
	eventID := testutil.NewTestEventID()
	hallType := h.createType(t, testutil.NewTestSubdividedType(eventID, "Hall", testutil.WithSubUnitLabel("place")))
	seatType := h.createType(t, testutil.NewTestUnitType(eventID, "Seat"))
	hall := h.createNode(t, testutil.NewTestNode(eventID, hallType.ID, "Hall", testutil.WithCapacity(2)))
	seat := h.createNode(t, testutil.NewTestNode(eventID, seatType.ID, "Seat42", testutil.WithParentID(hall.ID)))
	return hallScenario{eventID: eventID, hall: hall, seat42: seat}
}
