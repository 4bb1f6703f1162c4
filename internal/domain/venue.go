package domain

import (
	"fmt"
	"strings"
	"time"
)

// VenueType is a category of venue node within one event. IsUnit selects the
// node shape: atomic seats/slots, or containers with indexed sub-units.
type VenueType struct {
	ID           string
	EventID      string
	Label        string
	IsUnit       bool
	SubUnitLabel string // only meaningful when IsUnit is false
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *VenueType) Validate() error {
	if strings.TrimSpace(t.EventID) == "" {
		return fmt.Errorf("%w: venue type event id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(t.Label) == "" {
		return fmt.Errorf("%w: venue type label is required", ErrInvalidInput)
	}
	if t.IsUnit && t.SubUnitLabel != "" {
		return fmt.Errorf("%w: sub-unit label is only allowed on subdivided types", ErrInvalidInput)
	}
	return nil
}

// VenueNode is a single position or container in an event's venue forest.
type VenueNode struct {
	ID         string
	EventID    string
	TypeID     string
	ParentID   *string // nil for roots
	Name       string
	Capacity   *int // nil: unconstrained (or 1 for atomic nodes)
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (n *VenueNode) Validate() error {
	if strings.TrimSpace(n.EventID) == "" {
		return fmt.Errorf("%w: venue node event id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(n.TypeID) == "" {
		return fmt.Errorf("%w: venue node type id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: venue node name is required", ErrInvalidInput)
	}
	if n.Capacity != nil && *n.Capacity < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, *n.Capacity)
	}
	if n.ParentID != nil && *n.ParentID == n.ID {
		return ErrCycleDetected
	}
	return nil
}

// IsRoot reports whether the node has no parent.
func (n *VenueNode) IsRoot() bool {
	return n.ParentID == nil
}

// UnitCapacity is the number of concurrent direct assignments an atomic node
// accepts. An unset capacity means a single seat.
func (n *VenueNode) UnitCapacity() int {
	if n.Capacity == nil {
		return 1
	}
	return *n.Capacity
}

// ValidateShape checks that subUnit matches the node's type shape:
// atomic types take no index, subdivided types require one in [0, capacity)
// when the node's capacity is set.
func ValidateShape(t *VenueType, n *VenueNode, subUnit *int) error {
	if t.IsUnit {
		if subUnit != nil {
			return fmt.Errorf("%w: %s %q is atomic and takes no sub-unit index", ErrShapeMismatch, t.Label, n.Name)
		}
		return nil
	}
	if subUnit == nil {
		return fmt.Errorf("%w: %s %q requires a %s index", ErrShapeMismatch, t.Label, n.Name, t.SubUnitNoun())
	}
	idx := *subUnit
	if idx < 0 {
		return fmt.Errorf("%w: %s index %d is negative", ErrShapeMismatch, t.SubUnitNoun(), idx)
	}
	if n.Capacity != nil && idx >= *n.Capacity {
		return fmt.Errorf("%w: %s index %d out of range [0, %d) on %q",
			ErrShapeMismatch, t.SubUnitNoun(), idx, *n.Capacity, n.Name)
	}
	return nil
}

// SubUnitNoun names a sub-unit of this type for messages.
func (t *VenueType) SubUnitNoun() string {
	if t.SubUnitLabel != "" {
		return t.SubUnitLabel
	}
	return "sub-unit"
}
