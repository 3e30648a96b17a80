// Package sqlite implements the ledger store on SQLite via database/sql.
//
// Transactions are opened in immediate mode (the DSN carries
// _txlock=immediate), so every unit of work takes the write lock up front.
// A writer that cannot get the lock surfaces SQLITE_BUSY, which maps to
// domain.ErrConflict and is retried by the engine. This is the
// optimistic-retry equivalent of "repeatable read plus atomic increment".
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/engine"
)

// Store wraps the database handle. The embedded Queries run outside any
// transaction and serve plain reads; ExecTx provides the atomic unit of work.
type Store struct {
	*Queries
	db *sql.DB
}

// Open opens (and creates if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database %q: %w", path, err)
	}
	return &Store{Queries: New(db), db: db}, nil
}

// Migrate applies the ledger schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ExecTx runs fn inside one atomic unit of work. Every statement issued
// through the unit commits or rolls back together; a commit lost to a
// concurrent writer comes back as domain.ErrConflict.
func (s *Store) ExecTx(ctx context.Context, fn func(engine.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreError(err)
	}

	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("unit of work failed: %v, rollback failed: %w", err, rbErr)
		}
		return mapStoreError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// mapStoreError translates driver-level failures into the engine's error
// kinds. SQLITE_BUSY and SQLITE_LOCKED mean the unit of work lost to a
// concurrent writer.
func mapStoreError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("unit of work could not commit (%v): %w", err, domain.ErrConflict)
		}
	}
	return err
}

var _ engine.Ledger = (*Store)(nil)
