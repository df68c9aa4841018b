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

// CreateBill persists a new bill with its participants, items, and item splits
// in one transaction.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	if bill.UpdatedAt == 0 {
		bill.UpdatedAt = bill.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapConflict(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, bill_name, total_amount, created_by, created_by_name, split_method, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Name, bill.TotalAmount, bill.CreatedBy, bill.CreatedByName,
		string(bill.SplitMethod), bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	for i, p := range bill.Participants {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO participants (bill_id, idx, user_id, display_name, amount_due, status)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			bill.ID, i, nullable(p.UserID), p.DisplayName, p.AmountDue, string(p.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i, item := range bill.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (bill_id, idx, name, price_per_unit, quantity)
			 VALUES (?, ?, ?, ?, ?)`,
			bill.ID, i, item.Name, item.PricePerUnit, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for j, split := range item.Split {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO item_splits (bill_id, item_idx, idx, user_id, display_name, quantity)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				bill.ID, i, j, nullable(split.UserID), split.DisplayName, split.Quantity,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item split: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// GetBill retrieves a bill by ID, including all items, splits, and participants.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	return getBill(ctx, s.db, billID)
}

// ListBillsForUser returns bills the user created or participates in under
// their account, newest first.
func (s *SQLiteStore) ListBillsForUser(ctx context.Context, userID string) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT b.id FROM bills b
		 LEFT JOIN participants p ON p.bill_id = b.id
		 WHERE b.created_by = ? OR p.user_id = ?
		 ORDER BY b.created_at DESC, b.id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bill id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	bills := make([]*models.Bill, 0, len(ids))
	for _, id := range ids {
		bill, err := getBill(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

// getBill loads a complete bill aggregate through q, which may be the database
// or an open transaction.
func getBill(ctx context.Context, q querier, billID string) (*models.Bill, error) {
	bill := &models.Bill{}
	var method string
	err := q.QueryRowContext(ctx,
		`SELECT id, bill_name, total_amount, created_by, created_by_name, split_method, created_at, updated_at
		 FROM bills WHERE id = ?`,
		billID,
	).Scan(&bill.ID, &bill.Name, &bill.TotalAmount, &bill.CreatedBy, &bill.CreatedByName,
		&method, &bill.CreatedAt, &bill.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	bill.SplitMethod = models.SplitMethod(method)

	// Participants, in position order.
	rows, err := q.QueryContext(ctx,
		`SELECT user_id, display_name, amount_due, status
		 FROM participants WHERE bill_id = ? ORDER BY idx`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		var userID sql.NullString
		var status string
		if err := rows.Scan(&userID, &p.DisplayName, &p.AmountDue, &status); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.UserID = userID.String
		p.Status = models.PayStatus(status)
		bill.Participants = append(bill.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	// Items with their splits, in position order.
	itemRows, err := q.QueryContext(ctx,
		`SELECT idx, name, price_per_unit, quantity
		 FROM items WHERE bill_id = ? ORDER BY idx`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	var itemIdxs []int
	for itemRows.Next() {
		var idx int
		var item models.Item
		if err := itemRows.Scan(&idx, &item.Name, &item.PricePerUnit, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		itemIdxs = append(itemIdxs, idx)
		bill.Items = append(bill.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	for i, idx := range itemIdxs {
		splitRows, err := q.QueryContext(ctx,
			`SELECT user_id, display_name, quantity
			 FROM item_splits WHERE bill_id = ? AND item_idx = ? ORDER BY idx`,
			billID, idx,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get item splits: %w", err)
		}

		for splitRows.Next() {
			var split models.ItemSplit
			var userID sql.NullString
			if err := splitRows.Scan(&userID, &split.DisplayName, &split.Quantity); err != nil {
				splitRows.Close()
				return nil, fmt.Errorf("failed to scan item split: %w", err)
			}
			split.UserID = userID.String
			bill.Items[i].Split = append(bill.Items[i].Split, split)
		}
		splitRows.Close()
		if err := splitRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate item splits: %w", err)
		}
	}

	return bill, nil
}

// updateParticipantStatus addresses exactly one participant row by position
// and bumps the bill's updated_at alongside it.
func updateParticipantStatus(ctx context.Context, q querier, billID string, index int, status models.PayStatus, updatedAt int64) error {
	res, err := q.ExecContext(ctx,
		"UPDATE participants SET status = ? WHERE bill_id = ? AND idx = ?",
		string(status), billID, index,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bill %s participant %d: %w", billID, index, storage.ErrNotFound)
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE bills SET updated_at = ? WHERE id = ?",
		updatedAt, billID,
	); err != nil {
		return fmt.Errorf("failed to bump bill updated_at: %w", err)
	}
	return nil
}

// nullable maps an empty string to NULL for optional account references.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
