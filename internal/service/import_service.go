package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/importer"
	"github.com/alexanderramin/venuealloc/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportLayout(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadLayoutSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading layout file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportLayoutFromSchema(ctx context.Context, schema *importer.LayoutSchema) (*ImportResult, error) {
	return s.importSchema(ctx, schema)
}

// importSchema validates the whole layout before writing anything, then
// creates every type and node in one transaction.
func (s *importService) importSchema(ctx context.Context, schema *importer.LayoutSchema) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"event_id": schema.EventID}
	defer func() {
		observe(ctx, s.observer, "import-layout", startedAt, err, fields)
	}()

	if errs := importer.ValidateLayoutSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting layout: %w", err)
	}
	fields["type_count"] = len(generated.Types)
	fields["node_count"] = len(generated.Nodes)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTypes := repository.NewSQLiteVenueTypeRepo(tx)
		txNodes := repository.NewSQLiteVenueNodeRepo(tx)

		for _, t := range generated.Types {
			if err := txTypes.Create(ctx, t); err != nil {
				return fmt.Errorf("creating type %q: %w", t.Label, err)
			}
		}
		for _, n := range generated.Nodes {
			if err := txNodes.Create(ctx, n); err != nil {
				return fmt.Errorf("creating node %q: %w", n.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var roots []*domain.VenueNode
	for _, n := range generated.Nodes {
		if n.IsRoot() {
			roots = append(roots, n)
		}
	}
	return &ImportResult{
		EventID:   generated.EventID,
		TypeCount: len(generated.Types),
		NodeCount: len(generated.Nodes),
		Roots:     roots,
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("layout validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
