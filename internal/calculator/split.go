// Package calculator computes how much each participant owes on a bill.
//
// The bill total is always derived from the priced items; totals asserted by
// clients are ignored. Amounts are computed with exact decimal arithmetic and
// rounded to 2 decimal places, half away from zero, once per participant.
// Under the equal method the residual cents of an uneven division are not
// redistributed, so the participant sum may drift from the total by at most
// one cent per participant.
package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
)

var (
	// ErrInvalidSplitMethod means the split method is not equal or per_product.
	ErrInvalidSplitMethod = errors.New("invalid split method")

	// ErrEmptyParticipants means an equal split was requested with nobody to
	// split between.
	ErrEmptyParticipants = errors.New("must have at least one participant")

	// ErrNonPositiveItem means an item has a price <= 0 or a quantity < 1.
	ErrNonPositiveItem = errors.New("item price and quantity must be positive")

	// ErrSplitQuantityMismatch means an item's split quantities do not sum
	// exactly to the item's quantity.
	ErrSplitQuantityMismatch = errors.New("split quantities must sum to item quantity")

	// ErrUnassignedParticipant means a listed participant received no item
	// split under per_product, leaving their share undefined.
	ErrUnassignedParticipant = errors.New("participant has no item assignments")
)

// Result holds the derived total and each participant's share, keyed by the
// display name the participant was entered under.
type Result struct {
	Total  float64
	Shares map[string]float64
}

// Compute derives the bill total from items and computes each participant's
// amount due under the given split method.
//
// Shares covers every name in participants and, for per_product, every name
// appearing in an item split. All validation happens before any amount is
// produced; a non-nil error means no partial result.
func Compute(items []models.Item, participants []string, method models.SplitMethod) (*Result, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSplitMethod, method)
	}

	for _, item := range items {
		if item.PricePerUnit <= 0 || item.Quantity < 1 {
			return nil, fmt.Errorf("%w: %q (price=%v, quantity=%d)",
				ErrNonPositiveItem, item.Name, item.PricePerUnit, item.Quantity)
		}
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(itemSubtotal(item))
	}

	switch method {
	case models.SplitEqual:
		return equalSplit(total, participants)
	case models.SplitPerProduct:
		return perProductSplit(items, participants, total)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSplitMethod, method)
	}
}

func itemSubtotal(item models.Item) decimal.Decimal {
	return decimal.NewFromFloat(item.PricePerUnit).Mul(decimal.NewFromInt(item.Quantity))
}

// equalSplit gives every participant round2(total / N). Residual cents are not
// redistributed.
func equalSplit(total decimal.Decimal, participants []string) (*Result, error) {
	if len(participants) == 0 {
		return nil, ErrEmptyParticipants
	}

	share := round2(total.Div(decimal.NewFromInt(int64(len(participants)))))
	shares := make(map[string]float64, len(participants))
	for _, name := range participants {
		shares[name] = share
	}

	return &Result{Total: round2(total), Shares: shares}, nil
}

// perProductSplit charges each participant for the units they consumed.
// Contributions are accumulated exactly per participant across all items and
// rounded once at the end, so the share sum equals the derived total.
func perProductSplit(items []models.Item, participants []string, total decimal.Decimal) (*Result, error) {
	owed := make(map[string]decimal.Decimal)

	for _, item := range items {
		var assigned int64
		for _, split := range item.Split {
			if split.Quantity < 0 {
				return nil, fmt.Errorf("%w: item %q has a negative split quantity for %q",
					ErrSplitQuantityMismatch, item.Name, split.DisplayName)
			}
			assigned += split.Quantity

			amount := decimal.NewFromFloat(item.PricePerUnit).Mul(decimal.NewFromInt(split.Quantity))
			owed[split.DisplayName] = owed[split.DisplayName].Add(amount)
		}
		if assigned != item.Quantity {
			return nil, fmt.Errorf("%w: item %q has %d of %d units assigned",
				ErrSplitQuantityMismatch, item.Name, assigned, item.Quantity)
		}
	}

	// Every listed participant must appear in at least one split; a share that
	// would be zero by omission is rejected, not defaulted.
	for _, name := range participants {
		if _, ok := owed[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnassignedParticipant, name)
		}
	}

	shares := make(map[string]float64, len(owed))
	for name, amount := range owed {
		shares[name] = round2(amount)
	}

	return &Result{Total: round2(total), Shares: shares}, nil
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
