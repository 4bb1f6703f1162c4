package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/repository"
	"github.com/google/uuid"
)

type venueTree struct {
	nodes    repository.VenueNodeRepo
	types    repository.VenueTypeRepo
	assigns  repository.AssignmentRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewVenueTree(
	nodes repository.VenueNodeRepo,
	types repository.VenueTypeRepo,
	assigns repository.AssignmentRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) VenueTree {
	return &venueTree{
		nodes:    nodes,
		types:    types,
		assigns:  assigns,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

// CreateNode adds a node under an existing parent, or as a root. The parent
// must already exist, so a new node can never close a cycle.
func (s *venueTree) CreateNode(ctx context.Context, n *domain.VenueNode) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "create-node", startedAt, err, map[string]any{"event_id": n.EventID, "name": n.Name})
	}()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = startedAt
	n.UpdatedAt = startedAt
	if err = n.Validate(); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLiteVenueNodeRepo(tx)
		txTypes := repository.NewSQLiteVenueTypeRepo(tx)

		t, err := txTypes.GetByID(ctx, n.TypeID)
		if err != nil {
			return err
		}
		if t.EventID != n.EventID {
			return fmt.Errorf("%w: type %q belongs to event %s", domain.ErrEventMismatch, t.Label, t.EventID)
		}
		if n.ParentID != nil {
			parent, err := txNodes.GetByID(ctx, *n.ParentID)
			if err != nil {
				return fmt.Errorf("parent %s: %w", *n.ParentID, err)
			}
			if parent.EventID != n.EventID {
				return fmt.Errorf("%w: parent %q is in event %s", domain.ErrCrossEventParent, parent.Name, parent.EventID)
			}
		}
		return txNodes.Create(ctx, n)
	})
}

func (s *venueTree) GetNode(ctx context.Context, id string) (*domain.VenueNode, error) {
	return s.nodes.GetByID(ctx, id)
}

func (s *venueTree) ListNodes(ctx context.Context, eventID string) ([]*domain.VenueNode, error) {
	return s.nodes.ListByEvent(ctx, eventID)
}

func (s *venueTree) ListChildren(ctx context.Context, id string) ([]*domain.VenueNode, error) {
	if _, err := s.nodes.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.nodes.ListChildren(ctx, id)
}

// MoveNode reparents a node, or makes it a root when newParentID is nil.
// The proposed parent's ancestors are walked inside the transaction; if the
// node appears among them the move fails and the tree is left unchanged.
func (s *venueTree) MoveNode(ctx context.Context, id string, newParentID *string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": id}
	if newParentID != nil {
		fields["parent_id"] = *newParentID
	}
	defer func() {
		observe(ctx, s.observer, "move-node", startedAt, err, fields)
	}()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLiteVenueNodeRepo(tx)

		node, err := txNodes.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if err := checkNewParent(ctx, txNodes, node, *newParentID); err != nil {
				return err
			}
		}

		node.ParentID = newParentID
		node.UpdatedAt = time.Now().UTC()
		return txNodes.Update(ctx, node)
	})
}

func checkNewParent(ctx context.Context, nodes repository.VenueNodeRepo, node *domain.VenueNode, parentID string) error {
	if parentID == node.ID {
		return fmt.Errorf("%w: %q cannot be its own parent", domain.ErrCycleDetected, node.Name)
	}
	parent, err := nodes.GetByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("parent %s: %w", parentID, err)
	}
	if parent.EventID != node.EventID {
		return fmt.Errorf("%w: parent %q is in event %s", domain.ErrCrossEventParent, parent.Name, parent.EventID)
	}

	seen := map[string]bool{parent.ID: true}
	for cur := parent; cur.ParentID != nil; {
		if *cur.ParentID == node.ID {
			return fmt.Errorf("%w: %q is an ancestor of %q", domain.ErrCycleDetected, node.Name, parent.Name)
		}
		if seen[*cur.ParentID] {
			return fmt.Errorf("%w: existing ancestry of %q loops", domain.ErrCycleDetected, parent.Name)
		}
		seen[*cur.ParentID] = true
		if cur, err = nodes.GetByID(ctx, *cur.ParentID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNode removes a leaf node with no live assignments. It checks only
// the node itself and never cascades to descendants.
func (s *venueTree) DeleteNode(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "delete-node", startedAt, err, map[string]any{"node_id": id})
	}()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLiteVenueNodeRepo(tx)
		txAssigns := repository.NewSQLiteAssignmentRepo(tx)

		node, err := txNodes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		children, err := txNodes.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("%w: %q has %d", domain.ErrHasChildren, node.Name, children)
		}
		live, err := txAssigns.CountLiveByNode(ctx, id)
		if err != nil {
			return err
		}
		if live > 0 {
			return fmt.Errorf("%w: %q has %d", domain.ErrHasLiveAssignments, node.Name, live)
		}
		return txNodes.Delete(ctx, id)
	})
}

// Descendants returns the nodes below id in depth-first pre-order, children
// ordered by order index then name. The node itself is not included. The
// event's nodes are read once up front; the walk itself is lazy.
func (s *venueTree) Descendants(ctx context.Context, id string) (iter.Seq[*domain.VenueNode], error) {
	root, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.nodes.ListByEvent(ctx, root.EventID)
	if err != nil {
		return nil, err
	}
	children := childIndex(all)

	return func(yield func(*domain.VenueNode) bool) {
		stack := reversed(children[root.ID])
		seen := map[string]bool{root.ID: true}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			if !yield(n) {
				return
			}
			stack = append(stack, reversed(children[n.ID])...)
		}
	}, nil
}

// childIndex groups nodes by parent id, preserving the input order.
func childIndex(nodes []*domain.VenueNode) map[string][]*domain.VenueNode {
	children := make(map[string][]*domain.VenueNode)
	for _, n := range nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}
	return children
}

func reversed(nodes []*domain.VenueNode) []*domain.VenueNode {
	out := make([]*domain.VenueNode, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

// Occupancy counts live assignments at exactly this node. Capacity is the
// enforced bound: an atomic node without a capacity reports 1.
func (s *venueTree) Occupancy(ctx context.Context, id string) (domain.Occupancy, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return domain.Occupancy{}, err
	}
	t, err := s.types.GetByID(ctx, node.TypeID)
	if err != nil {
		return domain.Occupancy{}, err
	}
	used, err := s.assigns.CountLiveByNode(ctx, id)
	if err != nil {
		return domain.Occupancy{}, err
	}
	return domain.Occupancy{
		NodeID:   id,
		Used:     used,
		Capacity: effectiveCapacity(t, node),
		Nodes:    1,
	}, nil
}

// Rollup sums occupancy over the node and the Descendants walk below it. A
// subdivided node without a capacity is unconstrained and makes the total
// capacity nil, unless it has children, in which case it is treated as a
// pure container and contributes nothing.
func (s *venueTree) Rollup(ctx context.Context, id string) (domain.Occupancy, error) {
	root, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return domain.Occupancy{}, err
	}
	below, err := s.Descendants(ctx, id)
	if err != nil {
		return domain.Occupancy{}, err
	}
	types, err := s.types.ListByEvent(ctx, root.EventID)
	if err != nil {
		return domain.Occupancy{}, err
	}
	counts, err := s.assigns.CountLiveByEvent(ctx, root.EventID)
	if err != nil {
		return domain.Occupancy{}, err
	}

	typeByID := make(map[string]*domain.VenueType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	occ := domain.Occupancy{NodeID: id}
	total := 0
	hasChildren := make(map[string]bool)
	var open []string // subdivided nodes without a capacity
	add := func(n *domain.VenueNode) error {
		t, ok := typeByID[n.TypeID]
		if !ok {
			return fmt.Errorf("node %q: %w", n.Name, domain.ErrTypeNotFound)
		}
		occ.Nodes++
		occ.Used += counts[n.ID]
		if n.ID != root.ID && n.ParentID != nil {
			hasChildren[*n.ParentID] = true
		}
		if c := effectiveCapacity(t, n); c != nil {
			total += *c
		} else {
			open = append(open, n.ID)
		}
		return nil
	}

	if err := add(root); err != nil {
		return domain.Occupancy{}, err
	}
	for n := range below {
		if err := add(n); err != nil {
			return domain.Occupancy{}, err
		}
	}

	for _, nodeID := range open {
		if !hasChildren[nodeID] {
			return occ, nil
		}
	}
	occ.Capacity = &total
	return occ, nil
}

// effectiveCapacity returns the bound enforced on direct assignments, or nil
// when there is none.
func effectiveCapacity(t *domain.VenueType, n *domain.VenueNode) *int {
	if t.IsUnit {
		c := n.UnitCapacity()
		return &c
	}
	if n.Capacity != nil {
		c := *n.Capacity
		return &c
	}
	return nil
}
