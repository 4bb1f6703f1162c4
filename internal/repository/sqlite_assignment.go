package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/domain"
)

// assignmentColumns is the canonical SELECT column list for venue_assigns.
const assignmentColumns = `id, user_id, event_id, venue_node_id, sub_unit_index,
		created_at, released_at, release_reason`

// SQLiteAssignmentRepo implements AssignmentRepo using a SQLite database.
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

// NewSQLiteAssignmentRepo creates a new SQLiteAssignmentRepo.
func NewSQLiteAssignmentRepo(db db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: db}
}

// Create inserts a live assignment. Violations of the live uniqueness
// indexes are reported as ErrAlreadyAssigned or ErrSlotTaken.
func (r *SQLiteAssignmentRepo) Create(ctx context.Context, a *domain.VenueAssign) error {
	query := `INSERT INTO venue_assigns (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.EventID,
		a.NodeID,
		nullableIntToValue(a.SubUnitIndex),
		formatTime(a.CreatedAt),
		nullableTimeToString(a.ReleasedAt),
		string(a.ReleaseReason),
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) GetByID(ctx context.Context, id string) (*domain.VenueAssign, error) {
	query := `SELECT ` + assignmentColumns + ` FROM venue_assigns WHERE id = ?`
	return scanAssignment(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteAssignmentRepo) FindLiveByUser(ctx context.Context, userID, eventID string) (*domain.VenueAssign, error) {
	query := `SELECT ` + assignmentColumns + ` FROM venue_assigns
		WHERE user_id = ? AND event_id = ? AND released_at IS NULL`
	return scanAssignment(r.db.QueryRowContext(ctx, query, userID, eventID))
}

// FindLiveBySlot returns the earliest live assignment at (node, subUnit).
// A nil subUnit matches rows without an index.
func (r *SQLiteAssignmentRepo) FindLiveBySlot(ctx context.Context, nodeID string, subUnit *int) (*domain.VenueAssign, error) {
	var row *sql.Row
	if subUnit == nil {
		query := `SELECT ` + assignmentColumns + ` FROM venue_assigns
			WHERE venue_node_id = ? AND sub_unit_index IS NULL AND released_at IS NULL
			ORDER BY created_at, id LIMIT 1`
		row = r.db.QueryRowContext(ctx, query, nodeID)
	} else {
		query := `SELECT ` + assignmentColumns + ` FROM venue_assigns
			WHERE venue_node_id = ? AND sub_unit_index = ? AND released_at IS NULL`
		row = r.db.QueryRowContext(ctx, query, nodeID, *subUnit)
	}
	return scanAssignment(row)
}

func (r *SQLiteAssignmentRepo) ListLiveByNode(ctx context.Context, nodeID string) ([]*domain.VenueAssign, error) {
	query := `SELECT ` + assignmentColumns + ` FROM venue_assigns
		WHERE venue_node_id = ? AND released_at IS NULL
		ORDER BY sub_unit_index, created_at, id`
	return r.list(ctx, "listing live assignments by node", query, nodeID)
}

func (r *SQLiteAssignmentRepo) CountLiveByNode(ctx context.Context, nodeID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM venue_assigns WHERE venue_node_id = ? AND released_at IS NULL`
	if err := r.db.QueryRowContext(ctx, query, nodeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting live assignments at %s: %w", nodeID, err)
	}
	return n, nil
}

// CountLiveByEvent returns live assignment counts keyed by node id. Nodes
// with no live rows are absent from the map.
func (r *SQLiteAssignmentRepo) CountLiveByEvent(ctx context.Context, eventID string) (map[string]int, error) {
	query := `SELECT venue_node_id, COUNT(*) FROM venue_assigns
		WHERE event_id = ? AND released_at IS NULL GROUP BY venue_node_id`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("counting live assignments for event %s: %w", eventID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var nodeID string
		var n int
		if err := rows.Scan(&nodeID, &n); err != nil {
			return nil, fmt.Errorf("scanning live count: %w", err)
		}
		counts[nodeID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating live counts: %w", err)
	}
	return counts, nil
}

// ListHistory returns every assignment the user has held for the event,
// released ones included, oldest first.
func (r *SQLiteAssignmentRepo) ListHistory(ctx context.Context, userID, eventID string) ([]*domain.VenueAssign, error) {
	query := `SELECT ` + assignmentColumns + ` FROM venue_assigns
		WHERE user_id = ? AND event_id = ? ORDER BY created_at, id`
	return r.list(ctx, "listing assignment history", query, userID, eventID)
}

// Release tombstones a live assignment. Releasing a missing or already
// released row returns ErrAssignmentNotFound.
func (r *SQLiteAssignmentRepo) Release(ctx context.Context, id string, reason domain.ReleaseReason, at time.Time) error {
	query := `UPDATE venue_assigns SET released_at = ?, release_reason = ?
		WHERE id = ? AND released_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, formatTime(at), string(reason), id)
	if err != nil {
		return fmt.Errorf("releasing assignment: %w", err)
	}
	return requireAffected(res, domain.ErrAssignmentNotFound)
}

func (r *SQLiteAssignmentRepo) list(ctx context.Context, op, query string, args ...any) ([]*domain.VenueAssign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*domain.VenueAssign
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return out, nil
}

func scanAssignment(row rowScanner) (*domain.VenueAssign, error) {
	var a domain.VenueAssign
	var subUnit sql.NullInt64
	var createdAt string
	var releasedAt sql.NullString
	var reason string

	err := row.Scan(&a.ID, &a.UserID, &a.EventID, &a.NodeID, &subUnit, &createdAt, &releasedAt, &reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("scanning assignment: %w", err)
	}

	a.SubUnitIndex = nullableInt(subUnit)
	a.ReleasedAt = parseNullableTime(releasedAt)
	a.ReleaseReason = domain.ReleaseReason(reason)
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &a, nil
}

// mapUniqueViolation translates a live-index violation into its domain
// outcome. It returns nil for any other error.
func mapUniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "venue_assigns.user_id"):
		return fmt.Errorf("%w (unique index)", domain.ErrAlreadyAssigned)
	case strings.Contains(msg, "venue_assigns.venue_node_id"):
		return fmt.Errorf("%w (unique index)", domain.ErrSlotTaken)
	}
	return nil
}
