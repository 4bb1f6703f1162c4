package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/google/uuid"
)

var testEventCounter atomic.Int64

// NewTestEventID returns a fresh event id so tests sharing a DB never collide.
func NewTestEventID() string {
	return fmt.Sprintf("event-%03d", testEventCounter.Add(1))
}

// VenueType options
type TypeOption func(*domain.VenueType)

func WithSubUnitLabel(label string) TypeOption {
	return func(t *domain.VenueType) {
		t.SubUnitLabel = label
	}
}

// NewTestUnitType returns an atomic (seat-like) type.
func NewTestUnitType(eventID, label string, opts ...TypeOption) *domain.VenueType {
	return newTestType(eventID, label, true, opts...)
}

// NewTestSubdividedType returns a container type whose nodes take a sub-unit index.
func NewTestSubdividedType(eventID, label string, opts ...TypeOption) *domain.VenueType {
	return newTestType(eventID, label, false, opts...)
}

func newTestType(eventID, label string, isUnit bool, opts ...TypeOption) *domain.VenueType {
	now := time.Now().UTC()
	t := &domain.VenueType{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Label:     label,
		IsUnit:    isUnit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// VenueNode options
type NodeOption func(*domain.VenueNode)

func WithParentID(id string) NodeOption {
	return func(n *domain.VenueNode) {
		n.ParentID = &id
	}
}

func WithCapacity(c int) NodeOption {
	return func(n *domain.VenueNode) {
		n.Capacity = &c
	}
}

func WithOrderIndex(i int) NodeOption {
	return func(n *domain.VenueNode) {
		n.OrderIndex = i
	}
}

func NewTestNode(eventID, typeID, name string, opts ...NodeOption) *domain.VenueNode {
	now := time.Now().UTC()
	n := &domain.VenueNode{
		ID:        uuid.New().String(),
		EventID:   eventID,
		TypeID:    typeID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewTestAssignment returns a live assignment row; subUnit may be nil.
func NewTestAssignment(userID, eventID, nodeID string, subUnit *int) *domain.VenueAssign {
	return &domain.VenueAssign{
		ID:           uuid.New().String(),
		UserID:       userID,
		EventID:      eventID,
		NodeID:       nodeID,
		SubUnitIndex: subUnit,
		CreatedAt:    time.Now().UTC(),
	}
}

// Index returns a pointer to i, for optional sub-unit arguments.
func Index(i int) *int {
	return &i
}
