package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

const userColumns = "id, username, email, password_hash, balance, created_at, updated_at"

// CreateUser inserts a new user into the database.
// The username column is UNIQUE; inserting a taken name fails.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	if user.UpdatedAt == 0 {
		user.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Balance,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getUserByID(ctx, s.db, id)
}

// GetUserByName retrieves a user by their username.
func (s *SQLiteStore) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return user, nil
}

// AddBalance credits the user's balance in one atomic update and returns the
// new balance.
func (s *SQLiteStore) AddBalance(ctx context.Context, userID string, amount float64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + ?, updated_at = ?
		 WHERE id = ?
		 RETURNING balance`,
		amount, time.Now().Unix(), userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance: %w", err)
	}
	return balance, nil
}

func getUserByID(ctx context.Context, q querier, id string) (*models.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// scanUser reads one user row. Returns (nil, nil) when the row is missing.
func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// updateUserBalance applies a signed delta. The balance CHECK constraint
// rejects any debit that would take the balance negative.
func updateUserBalance(ctx context.Context, q querier, userID string, delta float64) error {
	res, err := q.ExecContext(ctx,
		"UPDATE users SET balance = balance + ?, updated_at = ? WHERE id = ?",
		delta, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}
