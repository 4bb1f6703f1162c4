package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/repository"
	"github.com/google/uuid"
)

type allocationLedger struct {
	nodes    repository.VenueNodeRepo
	assigns  repository.AssignmentRepo
	catalog  VenueTypeCatalog
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewAllocationLedger(
	nodes repository.VenueNodeRepo,
	assigns repository.AssignmentRepo,
	catalog VenueTypeCatalog,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) AllocationLedger {
	return &allocationLedger{
		nodes:    nodes,
		assigns:  assigns,
		catalog:  catalog,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

// WithTx binds the ledger and its catalog to tx. Callers own the
// transaction, so the bound ledger's checks and writes all run under the
// write lock it holds.
func (s *allocationLedger) WithTx(tx db.DBTX) AllocationLedger {
	return s.bind(tx)
}

func (s *allocationLedger) bind(tx db.DBTX) *allocationLedger {
	return &allocationLedger{
		nodes:    repository.NewSQLiteVenueNodeRepo(tx),
		assigns:  repository.NewSQLiteAssignmentRepo(tx),
		catalog:  s.catalog.WithTx(tx),
		uow:      db.JoinTx(tx),
		observer: s.observer,
	}
}

// Reserve places userID on the node. Inside one transaction it resolves the
// node, checks the request's shape, then checks the registrant, the slot and
// the node's capacity, in that order, before inserting the row.
func (s *allocationLedger) Reserve(ctx context.Context, userID, eventID, nodeID string, subUnitIndex *int) (id string, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "reserve", startedAt, err, slotFields(userID, eventID, nodeID, subUnitIndex))
	}()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		l := s.bind(tx)

		node, err := l.nodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if node.EventID != eventID {
			return fmt.Errorf("%w: node %q belongs to event %s, not %s", domain.ErrEventMismatch, node.Name, node.EventID, eventID)
		}
		if err := l.catalog.ValidateAssignmentShape(ctx, node, subUnitIndex); err != nil {
			return err
		}

		if _, ok, err := l.FindByUser(ctx, userID, eventID); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %s in event %s", domain.ErrAlreadyAssigned, userID, eventID)
		}
		if err := l.checkSlot(ctx, node, subUnitIndex); err != nil {
			return err
		}

		a := &domain.VenueAssign{
			ID:           uuid.New().String(),
			UserID:       userID,
			EventID:      eventID,
			NodeID:       node.ID,
			SubUnitIndex: subUnitIndex,
			CreatedAt:    time.Now().UTC(),
		}
		if err := l.assigns.Create(ctx, a); err != nil {
			return err
		}
		id = a.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// checkSlot enforces the per-position bound. A valid shape with no index
// means an atomic node, which holds up to its unit capacity.
func (s *allocationLedger) checkSlot(ctx context.Context, node *domain.VenueNode, subUnitIndex *int) error {
	if subUnitIndex != nil {
		if _, ok, err := s.FindBySlot(ctx, node.ID, subUnitIndex); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %q index %d", domain.ErrSlotTaken, node.Name, *subUnitIndex)
		}
		return nil
	}

	limit := node.UnitCapacity()
	used, err := s.assigns.CountLiveByNode(ctx, node.ID)
	if err != nil {
		return err
	}
	if used < limit {
		return nil
	}
	if limit == 1 {
		return fmt.Errorf("%w: %q", domain.ErrSlotTaken, node.Name)
	}
	return fmt.Errorf("%w: %q holds %d of %d", domain.ErrCapacityExceeded, node.Name, used, limit)
}

// Release tombstones a live assignment. Releasing an unknown or already
// released assignment returns ErrNotFound and changes nothing.
func (s *allocationLedger) Release(ctx context.Context, assignmentID string, reason domain.ReleaseReason) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "release", startedAt, err, map[string]any{"assignment_id": assignmentID, "reason": string(reason)})
	}()

	if !domain.ValidReleaseReasons[string(reason)] {
		return fmt.Errorf("%w: unknown release reason %q", domain.ErrInvalidInput, reason)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteAssignmentRepo(tx).Release(ctx, assignmentID, reason, time.Now().UTC())
	})
}

func (s *allocationLedger) FindByUser(ctx context.Context, userID, eventID string) (*domain.VenueAssign, bool, error) {
	return found(s.assigns.FindLiveByUser(ctx, userID, eventID))
}

func (s *allocationLedger) FindBySlot(ctx context.Context, nodeID string, subUnitIndex *int) (*domain.VenueAssign, bool, error) {
	return found(s.assigns.FindLiveBySlot(ctx, nodeID, subUnitIndex))
}

// ListByNode returns the live assignments at exactly nodeID.
func (s *allocationLedger) ListByNode(ctx context.Context, nodeID string) ([]*domain.VenueAssign, error) {
	return s.assigns.ListLiveByNode(ctx, nodeID)
}

func (s *allocationLedger) History(ctx context.Context, userID, eventID string) ([]*domain.VenueAssign, error) {
	return s.assigns.ListHistory(ctx, userID, eventID)
}

func found(a *domain.VenueAssign, err error) (*domain.VenueAssign, bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

func slotFields(userID, eventID, nodeID string, subUnitIndex *int) map[string]any {
	fields := map[string]any{
		"user_id":  userID,
		"event_id": eventID,
		"node_id":  nodeID,
	}
	if subUnitIndex != nil {
		fields["sub_unit_index"] = *subUnitIndex
	}
	return fields
}
