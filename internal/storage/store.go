// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitbill/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrTxAborted is returned when the backend aborted a transaction before
	// commit (e.g., a lost race with a concurrent writer). Nothing was
	// applied; the caller may safely retry.
	ErrTxAborted = errors.New("transaction aborted")
)

// Store defines the interface for user and bill persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. Fails if the username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID. Returns (nil, nil) if not found.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByName retrieves a user by username. Returns (nil, nil) if not
	// found. This is the identity-resolution lookup used when building bills.
	GetUserByName(ctx context.Context, username string) (*models.User, error)

	// AddBalance atomically credits the user's balance by amount and returns
	// the new balance.
	AddBalance(ctx context.Context, userID string, amount float64) (float64, error)

	// CreateBill persists a new bill with its items and participants.
	// The bill.ID field will be populated by the store.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a complete bill by ID.
	// Returns an error wrapping ErrNotFound if the bill does not exist.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBillsForUser returns every bill the user created or participates in
	// under their account, newest first.
	ListBillsForUser(ctx context.Context, userID string) ([]*models.Bill, error)

	// InTransaction runs fn inside a single transaction. Every read fn makes
	// through the Tx sees one consistent snapshot; every write commits
	// atomically when fn returns nil and is discarded when fn returns an
	// error. A commit-time conflict surfaces as ErrTxAborted.
	InTransaction(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the mutation surface available inside InTransaction. It deliberately
// exposes only the documents settlement touches: one user's balance and one
// bill's per-participant status.
type Tx interface {
	// GetBill retrieves a complete bill within the transaction snapshot.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// GetUserByID retrieves a user within the transaction snapshot.
	// Returns (nil, nil) if not found.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUserBalance applies a signed delta to the user's balance.
	UpdateUserBalance(ctx context.Context, userID string, delta float64) error

	// UpdateParticipantStatus sets the status of the participant at the given
	// position on the bill and bumps the bill's updated_at. Only that one
	// element is addressed; the rest of the aggregate stays untouched.
	UpdateParticipantStatus(ctx context.Context, billID string, index int, status models.PayStatus, updatedAt int64) error
}
