package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
)

// venueTypeColumns is the canonical SELECT column list for venue_types.
const venueTypeColumns = `id, event_id, label, is_unit, sub_unit_label, created_at, updated_at`

// SQLiteVenueTypeRepo implements VenueTypeRepo using a SQLite database.
type SQLiteVenueTypeRepo struct {
	db db.DBTX
}

// NewSQLiteVenueTypeRepo creates a new SQLiteVenueTypeRepo.
func NewSQLiteVenueTypeRepo(db db.DBTX) *SQLiteVenueTypeRepo {
	return &SQLiteVenueTypeRepo{db: db}
}

func (r *SQLiteVenueTypeRepo) Create(ctx context.Context, t *domain.VenueType) error {
	query := `INSERT INTO venue_types (` + venueTypeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.EventID,
		t.Label,
		boolToInt(t.IsUnit),
		t.SubUnitLabel,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting venue type: %w", err)
	}
	return nil
}

func (r *SQLiteVenueTypeRepo) GetByID(ctx context.Context, id string) (*domain.VenueType, error) {
	query := `SELECT ` + venueTypeColumns + ` FROM venue_types WHERE id = ?`
	return scanVenueType(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteVenueTypeRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.VenueType, error) {
	query := `SELECT ` + venueTypeColumns + ` FROM venue_types WHERE event_id = ? ORDER BY label, id`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing venue types: %w", err)
	}
	defer rows.Close()

	var types []*domain.VenueType
	for rows.Next() {
		t, err := scanVenueType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating venue types: %w", err)
	}
	return types, nil
}

func (r *SQLiteVenueTypeRepo) Update(ctx context.Context, t *domain.VenueType) error {
	query := `UPDATE venue_types SET label = ?, is_unit = ?, sub_unit_label = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Label,
		boolToInt(t.IsUnit),
		t.SubUnitLabel,
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating venue type: %w", err)
	}
	return requireAffected(res, domain.ErrTypeNotFound)
}

func (r *SQLiteVenueTypeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM venue_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting venue type: %w", err)
	}
	return requireAffected(res, domain.ErrTypeNotFound)
}

func (r *SQLiteVenueTypeRepo) CountNodes(ctx context.Context, typeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venue_nodes WHERE type_id = ?`, typeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting nodes of type %s: %w", typeID, err)
	}
	return n, nil
}

func (r *SQLiteVenueTypeRepo) CountLiveAssignments(ctx context.Context, typeID string) (int, error) {
	query := `SELECT COUNT(*) FROM venue_assigns a
		JOIN venue_nodes n ON a.venue_node_id = n.id
		WHERE n.type_id = ? AND a.released_at IS NULL`
	var n int
	if err := r.db.QueryRowContext(ctx, query, typeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting live assignments of type %s: %w", typeID, err)
	}
	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenueType(row rowScanner) (*domain.VenueType, error) {
	var t domain.VenueType
	var isUnit int
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.EventID, &t.Label, &isUnit, &t.SubUnitLabel, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTypeNotFound
		}
		return nil, fmt.Errorf("scanning venue type: %w", err)
	}

	t.IsUnit = intToBool(isUnit)
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

// requireAffected maps a zero-row UPDATE/DELETE to notFound.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
