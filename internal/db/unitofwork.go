package db

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork runs a callback inside one write transaction. Connections are
// opened with _txlock=immediate, so the transaction holds the database write
// lock from BEGIN and a check-then-write sequence in the callback cannot
// interleave with another writer. An error from the callback rolls back
// everything it wrote.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork begins, commits and rolls back transactions on a pool.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

// DB returns the pool. Reads through it see only committed rows.
func (u *SQLiteUnitOfWork) DB() *sql.DB {
	return u.db
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type joinedUnitOfWork struct {
	tx DBTX
}

// JoinTx returns a UnitOfWork that runs callbacks on tx, a transaction
// someone else has already begun. It never commits or rolls back; a callback
// error is returned to the owner of tx, whose rollback discards the writes.
func JoinTx(tx DBTX) UnitOfWork {
	return joinedUnitOfWork{tx: tx}
}

func (u joinedUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return fn(ctx, u.tx)
}
