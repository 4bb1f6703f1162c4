package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/venuealloc/internal/domain"
)

// AssignRequest asks for a registrant to be placed on a venue position.
// SubUnitIndex is required for subdivided node types and must be nil for
// atomic ones.
type AssignRequest struct {
	UserID       string `json:"user_id"`
	EventID      string `json:"event_id"`
	NodeID       string `json:"node_id"`
	SubUnitIndex *int   `json:"sub_unit_index,omitempty"`
}

// Validate checks that the identifying fields are present. Shape checks
// against the node's type happen in the engine.
func (r AssignRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if strings.TrimSpace(r.EventID) == "" {
		missing = append(missing, "event_id")
	}
	if strings.TrimSpace(r.NodeID) == "" {
		missing = append(missing, "node_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

type AssignResult struct {
	AssignmentID string `json:"assignment_id"`
}

// AssignmentView is the live assignment of one user for one event.
type AssignmentView struct {
	AssignmentID string    `json:"assignment_id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	NodeID       string    `json:"node_id"`
	NodeName     string    `json:"node_name"`
	SubUnitIndex *int      `json:"sub_unit_index,omitempty"`
	SubUnitLabel string    `json:"sub_unit_label,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OccupancyView reports live load on a node. With Rollup set, the figures
// cover the node and all of its descendants, and Capacity is nil if any of
// them is unconstrained.
type OccupancyView struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	Used     int    `json:"used"`
	Capacity *int   `json:"capacity,omitempty"`
	Free     *int   `json:"free,omitempty"`
	Nodes    int    `json:"nodes"`
	Rollup   bool   `json:"rollup"`
}

// NewOccupancyView builds the view for node from a computed occupancy.
func NewOccupancyView(node *domain.VenueNode, occ domain.Occupancy, rollup bool) OccupancyView {
	v := OccupancyView{
		NodeID:   node.ID,
		NodeName: node.Name,
		Used:     occ.Used,
		Capacity: occ.Capacity,
		Nodes:    occ.Nodes,
		Rollup:   rollup,
	}
	if occ.Capacity != nil {
		free := occ.Free()
		v.Free = &free
	}
	return v
}
