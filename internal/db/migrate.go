package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run
// on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS venue_types (
		id             TEXT PRIMARY KEY,
		event_id       TEXT NOT NULL,
		label          TEXT NOT NULL,
		is_unit        INTEGER NOT NULL CHECK(is_unit IN (0, 1)),
		sub_unit_label TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_venue_types_event ON venue_types(event_id)`,

	`CREATE TABLE IF NOT EXISTS venue_nodes (
		id          TEXT PRIMARY KEY,
		event_id    TEXT NOT NULL,
		type_id     TEXT NOT NULL REFERENCES venue_types(id) ON DELETE RESTRICT,
		parent_id   TEXT REFERENCES venue_nodes(id) ON DELETE RESTRICT,
		name        TEXT NOT NULL,
		capacity    INTEGER CHECK(capacity IS NULL OR capacity >= 0),
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_venue_nodes_event ON venue_nodes(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_venue_nodes_parent ON venue_nodes(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_venue_nodes_type ON venue_nodes(type_id)`,

	// Released rows stay as tombstones; deleting a node drops its history.
	`CREATE TABLE IF NOT EXISTS venue_assigns (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		event_id       TEXT NOT NULL,
		venue_node_id  TEXT NOT NULL REFERENCES venue_nodes(id) ON DELETE CASCADE,
		sub_unit_index INTEGER CHECK(sub_unit_index IS NULL OR sub_unit_index >= 0),
		created_at     TEXT NOT NULL,
		released_at    TEXT,
		release_reason TEXT NOT NULL DEFAULT ''
	)`,

	// Uniqueness A: one live assignment per (user, event).
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_venue_assigns_live_user
		ON venue_assigns(user_id, event_id) WHERE released_at IS NULL`,

	// Uniqueness B for subdivided nodes. SQLite treats NULLs as distinct, so
	// atomic-node occupancy (NULL index) is enforced by the ledger instead.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_venue_assigns_live_slot
		ON venue_assigns(venue_node_id, sub_unit_index)
		WHERE sub_unit_index IS NOT NULL AND released_at IS NULL`,

	`CREATE INDEX IF NOT EXISTS idx_venue_assigns_node ON venue_assigns(venue_node_id)`,
}
