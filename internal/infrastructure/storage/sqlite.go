package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// querier is the subset of *sql.DB and *sql.Tx used by the repository methods
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage provides SQLite database access for payments, bank transactions
// and reconciliation periods. It implements the Repository interface.
type Storage struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database.
//
// Transactions are opened with BEGIN IMMEDIATE so the select-then-link
// sequence of a reconciliation holds the write lock from its first read.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", buildDSN(dbPath))
	if err != nil {
		return nil, err
	}

	// A single connection serializes writers instead of surfacing SQLITE_BUSY
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, q: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// buildDSN appends the connection options the repository relies on
func buildDSN(dbPath string) string {
	opts := "_txlock=immediate&_foreign_keys=on&_busy_timeout=5000"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + opts
	}
	return dbPath + "?" + opts
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

// InTx runs fn inside a single write transaction. Nested calls reuse the
// outer transaction.
func (s *Storage) InTx(ctx context.Context, fn func(tx Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Storage{db: s.db, q: tx, inTx: true}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// newID returns a fresh entity ID
func newID() string {
	return uuid.NewString()
}

// mapError translates driver errors into the model error taxonomy
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", model.ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", model.ErrNotFound, err)
		}
	}
	return err
}

// whereClause joins conditions into a WHERE clause (empty when there are none)
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// pageClause returns a LIMIT/OFFSET suffix; limit <= 0 means unbounded
func pageClause(limit, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		if offset > 0 {
			return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
		}
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
