package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
)

type allocationEngine struct {
	uow      db.UnitOfWork
	catalog  VenueTypeCatalog
	tree     VenueTree
	ledger   AllocationLedger
	observer UseCaseObserver
}

// NewAllocationEngine composes the catalog, tree and ledger behind one entry
// point. Each write opens one unit of work on uow and hands the ledger bound
// to it, so checks and writes commit or roll back together.
func NewAllocationEngine(
	uow db.UnitOfWork,
	catalog VenueTypeCatalog,
	tree VenueTree,
	ledger AllocationLedger,
	observers ...UseCaseObserver,
) AllocationEngine {
	return &allocationEngine{
		uow:      uow,
		catalog:  catalog,
		tree:     tree,
		ledger:   ledger,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (e *allocationEngine) Assign(ctx context.Context, req contract.AssignRequest) (res *contract.AssignResult, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, e.observer, "assign", startedAt, err, slotFields(req.UserID, req.EventID, req.NodeID, req.SubUnitIndex))
	}()

	if err = req.Validate(); err != nil {
		return nil, err
	}

	var id string
	err = e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		id, err = e.ledger.WithTx(tx).Reserve(ctx, req.UserID, req.EventID, req.NodeID, req.SubUnitIndex)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return &contract.AssignResult{AssignmentID: id}, nil
}

// Reassign moves a registrant to a new position. The release of the current
// assignment and the new reservation commit together; if the reservation
// fails, the original assignment is still live afterwards.
func (e *allocationEngine) Reassign(ctx context.Context, req contract.AssignRequest) (res *contract.AssignResult, err error) {
	startedAt := time.Now().UTC()
	fields := slotFields(req.UserID, req.EventID, req.NodeID, req.SubUnitIndex)
	defer func() {
		observe(ctx, e.observer, "reassign", startedAt, err, fields)
	}()

	if err = req.Validate(); err != nil {
		return nil, err
	}

	var id string
	err = e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		l := e.ledger.WithTx(tx)

		current, err := liveAssignment(ctx, l, req.UserID, req.EventID)
		if err != nil {
			return err
		}
		fields["previous_assignment_id"] = current.ID

		if err := l.Release(ctx, current.ID, domain.ReleaseReassigned); err != nil {
			return err
		}
		id, err = l.Reserve(ctx, req.UserID, req.EventID, req.NodeID, req.SubUnitIndex)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return &contract.AssignResult{AssignmentID: id}, nil
}

// cancelReasons are the release reasons a caller may give; reassigned is
// reserved for Reassign. An empty reason means cancelled.
var cancelReasons = map[domain.ReleaseReason]bool{
	domain.ReleaseCancelled: true,
	domain.ReleaseRefunded:  true,
	domain.ReleaseAdmin:     true,
}

// Cancel releases the user's live assignment with reason. Cancelling when
// nothing is held returns ErrNotFound and leaves state unchanged.
func (e *allocationEngine) Cancel(ctx context.Context, userID, eventID string, reason domain.ReleaseReason) (err error) {
	startedAt := time.Now().UTC()
	if reason == "" {
		reason = domain.ReleaseCancelled
	}
	defer func() {
		observe(ctx, e.observer, "cancel", startedAt, err, map[string]any{"user_id": userID, "event_id": eventID, "reason": string(reason)})
	}()

	if !cancelReasons[reason] {
		return fmt.Errorf("%w: cannot cancel with reason %q", domain.ErrInvalidInput, reason)
	}

	err = e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		l := e.ledger.WithTx(tx)
		current, err := liveAssignment(ctx, l, userID, eventID)
		if err != nil {
			return err
		}
		return l.Release(ctx, current.ID, reason)
	})
	return storageError(err)
}

func liveAssignment(ctx context.Context, l AllocationLedger, userID, eventID string) (*domain.VenueAssign, error) {
	a, ok, err := l.FindByUser(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s holds none in event %s", domain.ErrAssignmentNotFound, userID, eventID)
	}
	return a, nil
}

// CurrentAssignment reads outside any transaction and may trail a write
// that is committing concurrently.
func (e *allocationEngine) CurrentAssignment(ctx context.Context, userID, eventID string) (*contract.AssignmentView, error) {
	a, err := liveAssignment(ctx, e.ledger, userID, eventID)
	if err != nil {
		return nil, storageError(err)
	}
	node, err := e.tree.GetNode(ctx, a.NodeID)
	if err != nil {
		return nil, storageError(err)
	}
	view := &contract.AssignmentView{
		AssignmentID: a.ID,
		UserID:       a.UserID,
		EventID:      a.EventID,
		NodeID:       a.NodeID,
		NodeName:     node.Name,
		SubUnitIndex: a.SubUnitIndex,
		CreatedAt:    a.CreatedAt,
	}
	if a.SubUnitIndex != nil {
		t, err := e.catalog.GetType(ctx, node.TypeID)
		if err != nil {
			return nil, storageError(err)
		}
		view.SubUnitLabel = t.SubUnitNoun()
	}
	return view, nil
}

func (e *allocationEngine) Occupancy(ctx context.Context, nodeID string, rollup bool) (*contract.OccupancyView, error) {
	node, err := e.tree.GetNode(ctx, nodeID)
	if err != nil {
		return nil, storageError(err)
	}
	var occ domain.Occupancy
	if rollup {
		occ, err = e.tree.Rollup(ctx, nodeID)
	} else {
		occ, err = e.tree.Occupancy(ctx, nodeID)
	}
	if err != nil {
		return nil, storageError(err)
	}
	view := contract.NewOccupancyView(node, occ, rollup)
	return &view, nil
}

// storageError passes domain outcomes through and marks everything else as
// ErrStorageUnavailable, keeping the cause in the chain.
func storageError(err error) error {
	if err == nil || domain.IsDomainError(err) || errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
