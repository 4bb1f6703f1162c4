package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
)

// venueNodeColumns is the canonical SELECT column list for venue_nodes.
const venueNodeColumns = `id, event_id, type_id, parent_id, name, capacity, order_index,
		created_at, updated_at`

// SQLiteVenueNodeRepo implements VenueNodeRepo using a SQLite database.
type SQLiteVenueNodeRepo struct {
	db db.DBTX
}

// NewSQLiteVenueNodeRepo creates a new SQLiteVenueNodeRepo.
func NewSQLiteVenueNodeRepo(db db.DBTX) *SQLiteVenueNodeRepo {
	return &SQLiteVenueNodeRepo{db: db}
}

func (r *SQLiteVenueNodeRepo) Create(ctx context.Context, n *domain.VenueNode) error {
	query := `INSERT INTO venue_nodes (` + venueNodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.EventID,
		n.TypeID,
		n.ParentID, // *string: nil becomes SQL NULL
		n.Name,
		nullableIntToValue(n.Capacity),
		n.OrderIndex,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting venue node: %w", err)
	}
	return nil
}

func (r *SQLiteVenueNodeRepo) GetByID(ctx context.Context, id string) (*domain.VenueNode, error) {
	query := `SELECT ` + venueNodeColumns + ` FROM venue_nodes WHERE id = ?`
	return scanVenueNode(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteVenueNodeRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.VenueNode, error) {
	query := `SELECT ` + venueNodeColumns + ` FROM venue_nodes WHERE event_id = ? ORDER BY order_index, name, id`
	return r.list(ctx, "listing venue nodes by event", query, eventID)
}

func (r *SQLiteVenueNodeRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.VenueNode, error) {
	query := `SELECT ` + venueNodeColumns + ` FROM venue_nodes WHERE parent_id = ? ORDER BY order_index, name, id`
	return r.list(ctx, "listing child venue nodes", query, parentID)
}

func (r *SQLiteVenueNodeRepo) ListRoots(ctx context.Context, eventID string) ([]*domain.VenueNode, error) {
	query := `SELECT ` + venueNodeColumns + ` FROM venue_nodes
		WHERE event_id = ? AND parent_id IS NULL ORDER BY order_index, name, id`
	return r.list(ctx, "listing root venue nodes", query, eventID)
}

func (r *SQLiteVenueNodeRepo) CountChildren(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venue_nodes WHERE parent_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting children of %s: %w", id, err)
	}
	return n, nil
}

func (r *SQLiteVenueNodeRepo) Update(ctx context.Context, n *domain.VenueNode) error {
	query := `UPDATE venue_nodes SET type_id = ?, parent_id = ?, name = ?, capacity = ?,
		order_index = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		n.TypeID,
		n.ParentID,
		n.Name,
		nullableIntToValue(n.Capacity),
		n.OrderIndex,
		formatTime(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating venue node: %w", err)
	}
	return requireAffected(res, domain.ErrNodeNotFound)
}

func (r *SQLiteVenueNodeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM venue_nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting venue node: %w", err)
	}
	return requireAffected(res, domain.ErrNodeNotFound)
}

func (r *SQLiteVenueNodeRepo) list(ctx context.Context, op, query string, args ...any) ([]*domain.VenueNode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var nodes []*domain.VenueNode
	for rows.Next() {
		n, err := scanVenueNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating venue nodes: %w", err)
	}
	return nodes, nil
}

func scanVenueNode(row rowScanner) (*domain.VenueNode, error) {
	var n domain.VenueNode
	var parentID sql.NullString
	var capacity sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&n.ID, &n.EventID, &n.TypeID, &parentID, &n.Name, &capacity, &n.OrderIndex,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNodeNotFound
		}
		return nil, fmt.Errorf("scanning venue node: %w", err)
	}

	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	n.Capacity = nullableInt(capacity)
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &n, nil
}
