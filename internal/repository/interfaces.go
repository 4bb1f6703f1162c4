package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/venuealloc/internal/domain"
)

type VenueTypeRepo interface {
	Create(ctx context.Context, t *domain.VenueType) error
	GetByID(ctx context.Context, id string) (*domain.VenueType, error)
	ListByEvent(ctx context.Context, eventID string) ([]*domain.VenueType, error)
	Update(ctx context.Context, t *domain.VenueType) error
	Delete(ctx context.Context, id string) error
	CountNodes(ctx context.Context, typeID string) (int, error)
	CountLiveAssignments(ctx context.Context, typeID string) (int, error)
}

type VenueNodeRepo interface {
	Create(ctx context.Context, n *domain.VenueNode) error
	GetByID(ctx context.Context, id string) (*domain.VenueNode, error)
	ListByEvent(ctx context.Context, eventID string) ([]*domain.VenueNode, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.VenueNode, error)
	ListRoots(ctx context.Context, eventID string) ([]*domain.VenueNode, error)
	CountChildren(ctx context.Context, id string) (int, error)
	Update(ctx context.Context, n *domain.VenueNode) error
	Delete(ctx context.Context, id string) error
}

type AssignmentRepo interface {
	Create(ctx context.Context, a *domain.VenueAssign) error
	GetByID(ctx context.Context, id string) (*domain.VenueAssign, error)
	FindLiveByUser(ctx context.Context, userID, eventID string) (*domain.VenueAssign, error)
	FindLiveBySlot(ctx context.Context, nodeID string, subUnit *int) (*domain.VenueAssign, error)
	ListLiveByNode(ctx context.Context, nodeID string) ([]*domain.VenueAssign, error)
	CountLiveByNode(ctx context.Context, nodeID string) (int, error)
	CountLiveByEvent(ctx context.Context, eventID string) (map[string]int, error)
	ListHistory(ctx context.Context, userID, eventID string) ([]*domain.VenueAssign, error)
	Release(ctx context.Context, id string, reason domain.ReleaseReason, at time.Time) error
}
