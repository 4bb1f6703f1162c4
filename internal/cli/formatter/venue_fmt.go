package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/venuealloc/internal/domain"
)

// FormatTypeList renders the venue types of an event as a table.
func FormatTypeList(types []*domain.VenueType) string {
	rows := make([][]string, 0, len(types))
	for _, t := range types {
		rows = append(rows, []string{TruncID(t.ID), Bold(t.Label), ShapeLabel(t)})
	}
	return RenderTable([]string{"ID", "LABEL", "SHAPE"}, rows)
}

// ShapeLabel describes how a type is assigned: "atomic", or "subdivided"
// with the sub-unit noun.
func ShapeLabel(t *domain.VenueType) string {
	if t.IsUnit {
		return StylePurple.Render("atomic")
	}
	return StyleBlue.Render("subdivided") + Dim(" ("+t.SubUnitNoun()+")")
}

// NodeTreeData carries everything needed to draw an event's venue forest.
type NodeTreeData struct {
	Nodes     []*domain.VenueNode // ordered by order index within each parent
	Types     map[string]*domain.VenueType
	Occupancy map[string]domain.Occupancy
}

// BuildNodeTree flattens the forest into pre-order TreeItems.
func BuildNodeTree(data NodeTreeData) []TreeItem {
	children := make(map[string][]*domain.VenueNode)
	var roots []*domain.VenueNode
	for _, n := range data.Nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	var items []TreeItem
	var walk func(nodes []*domain.VenueNode, level int)
	walk = func(nodes []*domain.VenueNode, level int) {
		for i, n := range nodes {
			item := TreeItem{
				Title:  n.Name,
				Level:  level,
				IsLast: i == len(nodes)-1,
			}
			if t, ok := data.Types[n.TypeID]; ok {
				item.Kind = t.Label
			}
			if occ, ok := data.Occupancy[n.ID]; ok {
				item.Detail = loadText(occ.Used, occ.Capacity)
				item.Full = occ.Capacity != nil && occ.Used >= *occ.Capacity
			}
			items = append(items, item)
			walk(children[n.ID], level+1)
		}
	}
	walk(roots, 0)
	return items
}

// FormatNodeTree renders an event's venue forest with per-node load badges.
func FormatNodeTree(data NodeTreeData) string {
	return RenderTree(BuildNodeTree(data))
}

// NodeInspectData is the detail view of a single node.
type NodeInspectData struct {
	Node      *domain.VenueNode
	Type      *domain.VenueType
	Parent    *domain.VenueNode
	Children  int
	Occupancy domain.Occupancy
	Rollup    domain.Occupancy
	Holders   []*domain.VenueAssign // live at this node
}

// FormatNodeInspect renders the detail view of a node.
func FormatNodeInspect(data NodeInspectData) string {
	n := data.Node
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(n.Name), Dim(data.Type.Label)))
	b.WriteString(field("ID", 8, TruncID(n.ID)))
	b.WriteString(field("EVENT", 8, n.EventID))
	b.WriteString(field("SHAPE", 8, ShapeLabel(data.Type)))
	if data.Parent != nil {
		b.WriteString(field("PARENT", 8, data.Parent.Name+" "+TruncID(data.Parent.ID)))
	}
	b.WriteString(field("ORDER", 8, strconv.Itoa(n.OrderIndex)))
	b.WriteString(field("CHILDREN", 8, strconv.Itoa(data.Children)))
	b.WriteString(field("LOAD", 8, RenderLoad(data.Occupancy.Used, data.Occupancy.Capacity, 16)))
	if data.Children > 0 {
		b.WriteString(field("ROLLUP", 8, RenderLoad(data.Rollup.Used, data.Rollup.Capacity, 16)+
			Dim(fmt.Sprintf(" across %d nodes", data.Rollup.Nodes))))
	}

	if len(data.Holders) > 0 {
		b.WriteString("\n" + Header("Holders") + "\n")
		rows := make([][]string, 0, len(data.Holders))
		for _, a := range data.Holders {
			slot := Dim("-")
			if a.SubUnitIndex != nil {
				slot = fmt.Sprintf("%s %d", data.Type.SubUnitNoun(), *a.SubUnitIndex)
			}
			rows = append(rows, []string{a.UserID, slot, HumanTimestamp(a.CreatedAt)})
		}
		b.WriteString(RenderTable([]string{"USER", "SLOT", "SINCE"}, rows))
	}

	return b.String()
}

func loadText(used int, capacity *int) string {
	if capacity == nil {
		return strconv.Itoa(used)
	}
	return fmt.Sprintf("%d/%d", used, *capacity)
}
