package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/google/uuid"
)

// GeneratedLayout holds the domain objects produced from a layout file.
// Nodes are ordered so that every parent precedes its children.
type GeneratedLayout struct {
	EventID string
	Types   []*domain.VenueType
	Nodes   []*domain.VenueNode
}

// Convert transforms a validated LayoutSchema into domain objects ready for
// persistence. Call ValidateLayoutSchema first; Convert assumes the schema
// is valid.
func Convert(schema *LayoutSchema) (*GeneratedLayout, error) {
	now := time.Now().UTC()

	typeIDs := make(map[string]string, len(schema.Types))
	types := make([]*domain.VenueType, 0, len(schema.Types))
	for _, t := range schema.Types {
		vt := &domain.VenueType{
			ID:           uuid.New().String(),
			EventID:      schema.EventID,
			Label:        t.Label,
			IsUnit:       t.IsUnit,
			SubUnitLabel: t.SubUnitLabel,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		typeIDs[t.Ref] = vt.ID
		types = append(types, vt)
	}

	nodeIDs := make(map[string]string, len(schema.Nodes))
	for _, n := range schema.Nodes {
		nodeIDs[n.Ref] = uuid.New().String()
	}

	ordered, err := parentsFirst(schema.Nodes)
	if err != nil {
		return nil, err
	}

	nodes := make([]*domain.VenueNode, 0, len(ordered))
	for _, n := range ordered {
		typeID, ok := typeIDs[n.TypeRef]
		if !ok {
			return nil, fmt.Errorf("node %q: unknown type_ref %q", n.Ref, n.TypeRef)
		}
		var parentID *string
		if n.ParentRef != nil && *n.ParentRef != "" {
			pid := nodeIDs[*n.ParentRef]
			parentID = &pid
		}
		nodes = append(nodes, &domain.VenueNode{
			ID:         nodeIDs[n.Ref],
			EventID:    schema.EventID,
			TypeID:     typeID,
			ParentID:   parentID,
			Name:       n.Name,
			Capacity:   n.Capacity,
			OrderIndex: n.Order,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return &GeneratedLayout{EventID: schema.EventID, Types: types, Nodes: nodes}, nil
}

// parentsFirst orders nodes breadth-first from the roots, keeping file order
// among siblings.
func parentsFirst(nodes []NodeImport) ([]NodeImport, error) {
	children := make(map[string][]NodeImport)
	var queue []NodeImport
	for _, n := range nodes {
		if n.ParentRef == nil || *n.ParentRef == "" {
			queue = append(queue, n)
			continue
		}
		children[*n.ParentRef] = append(children[*n.ParentRef], n)
	}

	out := make([]NodeImport, 0, len(nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		queue = append(queue, children[n.Ref]...)
	}
	if len(out) != len(nodes) {
		return nil, fmt.Errorf("layout has %d nodes unreachable from a root", len(nodes)-len(out))
	}
	return out, nil
}
