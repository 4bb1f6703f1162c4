package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/domain"
)

// FormatAssignment renders a user's live assignment as a box.
func FormatAssignment(v *contract.AssignmentView) string {
	var b strings.Builder
	b.WriteString(field("USER", 8, Bold(v.UserID)))
	b.WriteString(field("EVENT", 8, v.EventID))
	b.WriteString(field("NODE", 8, v.NodeName+" "+TruncID(v.NodeID)))
	if v.SubUnitIndex != nil {
		label := v.SubUnitLabel
		if label == "" {
			label = "sub-unit"
		}
		b.WriteString(field(strings.ToUpper(label), 8, strconv.Itoa(*v.SubUnitIndex)))
	}
	b.WriteString(field("SINCE", 8, HumanTimestamp(v.CreatedAt)))
	b.WriteString(field("ID", 8, TruncID(v.AssignmentID)))

	return RenderBox("Assignment", strings.TrimRight(b.String(), "\n"))
}

// FormatOccupancy renders the load on a node, or on its subtree when the
// view is a rollup.
func FormatOccupancy(v *contract.OccupancyView) string {
	var b strings.Builder
	title := Bold(v.NodeName)
	if v.Rollup {
		title += Dim(fmt.Sprintf("  rollup over %d nodes", v.Nodes))
	}
	b.WriteString(title + "\n\n")
	b.WriteString(field("LOAD", 5, RenderLoad(v.Used, v.Capacity, 20)))
	if v.Free != nil {
		b.WriteString(field("FREE", 5, strconv.Itoa(*v.Free)))
	} else {
		b.WriteString(field("FREE", 5, Dim("unlimited")))
	}
	return b.String()
}

// FormatHistory renders every assignment row of a user for an event, oldest
// first. names maps node ids to display names; unknown ids fall back to the
// truncated id.
func FormatHistory(assigns []*domain.VenueAssign, names map[string]string) string {
	rows := make([][]string, 0, len(assigns))
	for _, a := range assigns {
		node := TruncID(a.NodeID)
		if name, ok := names[a.NodeID]; ok {
			node = name
		}
		index := Dim("-")
		if a.SubUnitIndex != nil {
			index = strconv.Itoa(*a.SubUnitIndex)
		}
		state := StyleGreen.Render("● live")
		released := Dim("-")
		if !a.IsLive() {
			state = Dim(string(a.ReleaseReason))
			released = HumanTimestamp(*a.ReleasedAt)
		}
		rows = append(rows, []string{
			TruncID(a.ID), node, index, HumanTimestamp(a.CreatedAt), released, state,
		})
	}
	return RenderTable([]string{"ID", "NODE", "INDEX", "ASSIGNED", "RELEASED", "STATE"}, rows)
}
