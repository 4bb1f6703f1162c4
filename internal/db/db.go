package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	DefaultBusyTimeoutMs = 10000
	DefaultMaxOpenConns  = 8
)

// Options tunes the connection pool. Zero values fall back to defaults.
type Options struct {
	BusyTimeoutMs int
	MaxOpenConns  int
}

// OpenDB opens a SQLite database at the given path and runs migrations.
// If path is ":memory:", uses an in-memory database pinned to one connection.
//
// Every connection is opened with foreign keys on, WAL journaling, a busy
// timeout, and _txlock=immediate: write transactions take the database write
// lock at BEGIN, so check-then-write sequences are serialized across
// connections and concurrent writers queue on the busy timeout.
func OpenDB(path string, opts ...Options) (*sql.DB, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.BusyTimeoutMs <= 0 {
		o.BusyTimeoutMs = DefaultBusyTimeoutMs
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = DefaultMaxOpenConns
	}

	memory := path == ":memory:"
	if !memory {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, o.BusyTimeoutMs, memory))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(o.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func dsn(path string, busyTimeoutMs int, memory bool) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMs))
	if !memory {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}
