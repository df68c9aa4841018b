// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the same query helpers
// serve direct reads and transactional reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver. _txlock=immediate makes write
	// transactions take their lock up front, so two concurrent settlements
	// serialize instead of deadlocking on a lock upgrade.
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InTransaction runs fn inside a single SQLite transaction. fn returning an
// error rolls everything back; busy/conflict errors surface as
// storage.ErrTxAborted so callers know the unit of work applied nothing and
// can retry.
func (s *SQLiteStore) InTransaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapConflict(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// tx implements storage.Tx over an open *sql.Tx.
type tx struct {
	q *sql.Tx
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	return getBill(ctx, t.q, billID)
}

func (t *tx) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getUserByID(ctx, t.q, id)
}

func (t *tx) UpdateUserBalance(ctx context.Context, userID string, delta float64) error {
	return mapConflict(updateUserBalance(ctx, t.q, userID, delta))
}

func (t *tx) UpdateParticipantStatus(ctx context.Context, billID string, index int, status models.PayStatus, updatedAt int64) error {
	return mapConflict(updateParticipantStatus(ctx, t.q, billID, index, status, updatedAt))
}

// mapConflict translates SQLite lock contention into storage.ErrTxAborted.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %v", storage.ErrTxAborted, err)
	}
	return err
}
