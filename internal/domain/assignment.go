package domain

import "time"

// VenueAssign binds a (user, event) pair to one venue position. Rows are
// never rebound in place; release sets ReleasedAt and keeps the row for audit.
type VenueAssign struct {
	ID            string
	UserID        string
	EventID       string
	NodeID        string
	SubUnitIndex  *int
	CreatedAt     time.Time
	ReleasedAt    *time.Time
	ReleaseReason ReleaseReason
}

// IsLive reports whether the assignment has not been released.
func (a *VenueAssign) IsLive() bool {
	return a.ReleasedAt == nil
}

// Release tombstones the assignment.
func (a *VenueAssign) Release(reason ReleaseReason, now time.Time) {
	a.ReleasedAt = &now
	a.ReleaseReason = reason
}

type ReleaseReason string

const (
	ReleaseCancelled  ReleaseReason = "cancelled"
	ReleaseReassigned ReleaseReason = "reassigned"
	ReleaseRefunded   ReleaseReason = "refunded"
	ReleaseAdmin      ReleaseReason = "admin"
)

// ValidReleaseReasons is the canonical set of accepted release reasons.
var ValidReleaseReasons = map[string]bool{
	"cancelled": true, "reassigned": true, "refunded": true, "admin": true,
}

// Occupancy is the live load on a single node, or on a subtree for rollups.
type Occupancy struct {
	NodeID   string
	Used     int
	Capacity *int // nil when unconstrained
	Nodes    int  // nodes counted; 1 for a single-node query
}

// Free returns remaining capacity, or -1 when unconstrained.
func (o Occupancy) Free() int {
	if o.Capacity == nil {
		return -1
	}
	if free := *o.Capacity - o.Used; free > 0 {
		return free
	}
	return 0
}
