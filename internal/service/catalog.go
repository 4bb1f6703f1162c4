package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/repository"
	"github.com/google/uuid"
)

type venueTypeCatalog struct {
	types    repository.VenueTypeRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewVenueTypeCatalog(types repository.VenueTypeRepo, uow db.UnitOfWork, observers ...UseCaseObserver) VenueTypeCatalog {
	return &venueTypeCatalog{
		types:    types,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *venueTypeCatalog) CreateType(ctx context.Context, t *domain.VenueType) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "create-type", startedAt, err, map[string]any{"event_id": t.EventID, "label": t.Label})
	}()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = startedAt
	t.UpdatedAt = startedAt
	if err = t.Validate(); err != nil {
		return err
	}
	return s.types.Create(ctx, t)
}

func (s *venueTypeCatalog) GetType(ctx context.Context, id string) (*domain.VenueType, error) {
	return s.types.GetByID(ctx, id)
}

func (s *venueTypeCatalog) ListTypes(ctx context.Context, eventID string) ([]*domain.VenueType, error) {
	return s.types.ListByEvent(ctx, eventID)
}

// UpdateType changes a type's label or shape. Flipping IsUnit is refused
// while any node of the type holds a live assignment, since those rows were
// validated against the old shape.
func (s *venueTypeCatalog) UpdateType(ctx context.Context, t *domain.VenueType) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "update-type", startedAt, err, map[string]any{"type_id": t.ID})
	}()

	if err = t.Validate(); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTypes := repository.NewSQLiteVenueTypeRepo(tx)

		existing, err := txTypes.GetByID(ctx, t.ID)
		if err != nil {
			return err
		}
		if existing.EventID != t.EventID {
			return fmt.Errorf("%w: type %s belongs to event %s", domain.ErrEventMismatch, t.ID, existing.EventID)
		}
		if existing.IsUnit != t.IsUnit {
			live, err := txTypes.CountLiveAssignments(ctx, t.ID)
			if err != nil {
				return err
			}
			if live > 0 {
				return fmt.Errorf("%w: %d live assignments use %q", domain.ErrTypeInUse, live, existing.Label)
			}
		}

		t.CreatedAt = existing.CreatedAt
		t.UpdatedAt = time.Now().UTC()
		return txTypes.Update(ctx, t)
	})
}

// DeleteType removes a type that no node references.
func (s *venueTypeCatalog) DeleteType(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		observe(ctx, s.observer, "delete-type", startedAt, err, map[string]any{"type_id": id})
	}()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTypes := repository.NewSQLiteVenueTypeRepo(tx)

		existing, err := txTypes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		n, err := txTypes.CountNodes(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d nodes use %q", domain.ErrTypeInUse, n, existing.Label)
		}
		return txTypes.Delete(ctx, id)
	})
}

func (s *venueTypeCatalog) WithTx(tx db.DBTX) VenueTypeCatalog {
	return &venueTypeCatalog{
		types:    repository.NewSQLiteVenueTypeRepo(tx),
		uow:      db.JoinTx(tx),
		observer: s.observer,
	}
}

// ValidateAssignmentShape checks subUnitIndex against the node's type: atomic
// nodes take none, subdivided nodes take one in [0, capacity).
func (s *venueTypeCatalog) ValidateAssignmentShape(ctx context.Context, node *domain.VenueNode, subUnitIndex *int) error {
	t, err := s.types.GetByID(ctx, node.TypeID)
	if err != nil {
		return err
	}
	return domain.ValidateShape(t, node, subUnitIndex)
}
