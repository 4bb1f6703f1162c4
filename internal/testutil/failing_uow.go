package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/venuealloc/internal/db"
)

// FailOnNthExecUoW fails the FailOn-th write of a transaction with Err and
// rolls the transaction back. Reassign writes twice (tombstone, then insert),
// so FailOn 2 leaves the ledger's checks passed and the release done when the
// insert fails. Reads are never counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n := f.count.Add(1)
	if n == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// UnavailableUoW refuses to begin, as a store that cannot take the write
// lock would. The callback never runs.
type UnavailableUoW struct {
	Err error
}

func (u UnavailableUoW) WithinTx(context.Context, func(ctx context.Context, tx db.DBTX) error) error {
	return fmt.Errorf("beginning transaction: %w", u.Err)
}
