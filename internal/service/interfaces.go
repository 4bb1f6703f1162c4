package service

import (
	"context"
	"iter"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/importer"
)

// VenueTypeCatalog owns the categories of venue node available to an event.
type VenueTypeCatalog interface {
	CreateType(ctx context.Context, t *domain.VenueType) error
	GetType(ctx context.Context, id string) (*domain.VenueType, error)
	ListTypes(ctx context.Context, eventID string) ([]*domain.VenueType, error)
	UpdateType(ctx context.Context, t *domain.VenueType) error
	DeleteType(ctx context.Context, id string) error
	ValidateAssignmentShape(ctx context.Context, node *domain.VenueNode, subUnitIndex *int) error
	// WithTx returns the catalog operating on tx, an open transaction.
	WithTx(tx db.DBTX) VenueTypeCatalog
}

// VenueTree owns the per-event forest of venue nodes.
type VenueTree interface {
	CreateNode(ctx context.Context, n *domain.VenueNode) error
	GetNode(ctx context.Context, id string) (*domain.VenueNode, error)
	ListNodes(ctx context.Context, eventID string) ([]*domain.VenueNode, error)
	ListChildren(ctx context.Context, id string) ([]*domain.VenueNode, error)
	MoveNode(ctx context.Context, id string, newParentID *string) error
	DeleteNode(ctx context.Context, id string) error
	Descendants(ctx context.Context, id string) (iter.Seq[*domain.VenueNode], error)
	Occupancy(ctx context.Context, id string) (domain.Occupancy, error)
	Rollup(ctx context.Context, id string) (domain.Occupancy, error)
}

// AllocationLedger is the only writer of assignment rows.
type AllocationLedger interface {
	Reserve(ctx context.Context, userID, eventID, nodeID string, subUnitIndex *int) (string, error)
	Release(ctx context.Context, assignmentID string, reason domain.ReleaseReason) error
	FindByUser(ctx context.Context, userID, eventID string) (*domain.VenueAssign, bool, error)
	FindBySlot(ctx context.Context, nodeID string, subUnitIndex *int) (*domain.VenueAssign, bool, error)
	ListByNode(ctx context.Context, nodeID string) ([]*domain.VenueAssign, error)
	History(ctx context.Context, userID, eventID string) ([]*domain.VenueAssign, error)
	// WithTx returns the ledger operating on tx. Its writes join tx instead
	// of opening their own transaction.
	WithTx(tx db.DBTX) AllocationLedger
}

// AllocationEngine is the entry point for registrant-facing allocation.
// Failures other than the domain outcomes in internal/domain are reported
// as domain.ErrStorageUnavailable.
type AllocationEngine interface {
	Assign(ctx context.Context, req contract.AssignRequest) (*contract.AssignResult, error)
	Reassign(ctx context.Context, req contract.AssignRequest) (*contract.AssignResult, error)
	Cancel(ctx context.Context, userID, eventID string, reason domain.ReleaseReason) error
	CurrentAssignment(ctx context.Context, userID, eventID string) (*contract.AssignmentView, error)
	Occupancy(ctx context.Context, nodeID string, rollup bool) (*contract.OccupancyView, error)
}

// ImportResult holds the outcome of a layout import.
type ImportResult struct {
	EventID   string
	TypeCount int
	NodeCount int
	Roots     []*domain.VenueNode
}

type ImportService interface {
	ImportLayout(ctx context.Context, filePath string) (*ImportResult, error)
	ImportLayoutFromSchema(ctx context.Context, schema *importer.LayoutSchema) (*ImportResult, error)
}
