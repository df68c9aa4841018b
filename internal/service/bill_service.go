package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

// BillInput is the already-parsed payload for creating a bill. The client's
// idea of the total is deliberately absent: totals derive from items only.
type BillInput struct {
	Name         string
	SplitMethod  string
	Participants []string
	Items        []ItemInput
}

// ItemInput is one priced line item in a bill payload.
type ItemInput struct {
	Name         string
	PricePerUnit float64
	Quantity     int64
	Split        []SplitInput
}

// SplitInput assigns a number of an item's units to a named participant.
type SplitInput struct {
	Name     string
	Quantity int64
}

// BillService builds, fetches, and lists bills.
type BillService struct {
	store storage.Store
}

// NewBillService creates a new BillService with the given storage backend.
func NewBillService(store storage.Store) *BillService {
	return &BillService{store: store}
}

// Create validates the payload, computes every participant's share, resolves
// names to registered accounts, and persists the assembled bill.
//
// Name resolution happens exactly once, here: the resolved account references
// are frozen into the bill, so renaming a user later never rewrites history.
// The creator's own entry starts paid; everyone else starts unpaid.
func (s *BillService) Create(ctx context.Context, creatorID string, in BillInput) (*models.Bill, error) {
	creator, err := s.store.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, fmt.Errorf("creator %s: %w", creatorID, storage.ErrNotFound)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: bill_name", ErrMissingField)
	}
	if len(in.Participants) == 0 {
		return nil, fmt.Errorf("%w: participants", ErrMissingField)
	}

	items := make([]models.Item, len(in.Items))
	for i, item := range in.Items {
		itemName := strings.TrimSpace(item.Name)
		if itemName == "" {
			return nil, fmt.Errorf("%w: items[%d].name", ErrMissingField, i)
		}
		items[i] = models.Item{
			Name:         itemName,
			PricePerUnit: item.PricePerUnit,
			Quantity:     item.Quantity,
		}
		for _, split := range item.Split {
			splitName := strings.TrimSpace(split.Name)
			if splitName == "" {
				return nil, fmt.Errorf("%w: items[%d].split name", ErrMissingField, i)
			}
			items[i].Split = append(items[i].Split, models.ItemSplit{
				DisplayName: splitName,
				Quantity:    split.Quantity,
			})
		}
	}

	// Participant order is the client's order; duplicates collapse to their
	// first occurrence. Names seen only in item splits are appended after.
	names := make([]string, 0, len(in.Participants))
	seen := make(map[string]bool, len(in.Participants))
	for i, raw := range in.Participants {
		n := strings.TrimSpace(raw)
		if n == "" {
			return nil, fmt.Errorf("%w: participants[%d]", ErrMissingField, i)
		}
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	result, err := calculator.Compute(items, names, models.SplitMethod(in.SplitMethod))
	if err != nil {
		return nil, err
	}

	// Under per_product, someone can owe for consumed units without being in
	// the participants list; they become a participant so the amounts owed
	// still cover the whole total.
	if models.SplitMethod(in.SplitMethod) == models.SplitPerProduct {
		for i := range items {
			for _, split := range items[i].Split {
				if !seen[split.DisplayName] {
					seen[split.DisplayName] = true
					names = append(names, split.DisplayName)
				}
			}
		}
	}

	// Resolve each distinct name to a registered account, once.
	accounts := make(map[string]string, len(names))
	for _, n := range names {
		user, err := s.store.GetUserByName(ctx, n)
		if err != nil {
			return nil, err
		}
		if user != nil {
			accounts[n] = user.ID
		}
	}

	participants := make([]models.Participant, len(names))
	for i, n := range names {
		status := models.StatusUnpaid
		if accounts[n] == creator.ID {
			status = models.StatusPaid // self-settlement is implicit
		}
		participants[i] = models.Participant{
			UserID:      accounts[n],
			DisplayName: n,
			AmountDue:   result.Shares[n],
			Status:      status,
		}
	}
	for i := range items {
		for j := range items[i].Split {
			items[i].Split[j].UserID = accounts[items[i].Split[j].DisplayName]
		}
	}

	now := time.Now().Unix()
	bill := &models.Bill{
		Name:          name,
		TotalAmount:   result.Total,
		CreatedBy:     creator.ID,
		CreatedByName: creator.Username,
		SplitMethod:   models.SplitMethod(in.SplitMethod),
		Participants:  participants,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateBill(ctx, bill); err != nil {
		slog.Error("CreateBill failed", "error", err)
		return nil, err
	}

	metrics.BillsCreated.WithLabelValues(in.SplitMethod).Inc()
	slog.Info("Bill created",
		"bill_id", bill.ID,
		"created_by", bill.CreatedBy,
		"split_method", bill.SplitMethod,
		"total", bill.TotalAmount,
		"participants", len(bill.Participants),
	)
	return bill, nil
}

// Get retrieves a single bill, gated to its creator and participants.
func (s *BillService) Get(ctx context.Context, billID, callerID string) (*models.Bill, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
		}
		return nil, err
	}
	if !canView(bill, callerID) {
		return nil, ErrForbidden
	}
	return bill, nil
}

// List returns the caller's bills (created or participating), newest first.
func (s *BillService) List(ctx context.Context, callerID string) ([]*models.Bill, error) {
	return s.store.ListBillsForUser(ctx, callerID)
}

// canView reports whether the user is the bill's creator or appears among its
// participants by account reference.
func canView(bill *models.Bill, userID string) bool {
	if userID == "" {
		return false
	}
	return bill.CreatedBy == userID || bill.ParticipantIndex(userID) >= 0
}
