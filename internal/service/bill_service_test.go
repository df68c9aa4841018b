package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
)

func TestCreateBill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "alice", 0)
	bob := env.registerUser(t, "bob", 0)

	t.Run("resolves names and derives the total", func(t *testing.T) {
		bill, err := env.bills.Create(ctx, alice.ID, BillInput{
			Name:         "Groceries",
			SplitMethod:  string(models.SplitEqual),
			Participants: []string{"alice", "bob", "eve"},
			Items: []ItemInput{
				{Name: "Bacon", PricePerUnit: 1000, Quantity: 10},
				{Name: "Rice", PricePerUnit: 500, Quantity: 5},
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if bill.ID == "" {
			t.Error("Expected bill ID to be assigned")
		}
		if bill.TotalAmount != 12500 {
			t.Errorf("TotalAmount = %v, want 12500 (derived from items)", bill.TotalAmount)
		}
		if bill.CreatedBy != alice.ID || bill.CreatedByName != "alice" {
			t.Errorf("Creator = %s/%s, want alice", bill.CreatedBy, bill.CreatedByName)
		}
		if len(bill.Participants) != 3 {
			t.Fatalf("Participants = %d, want 3", len(bill.Participants))
		}

		// alice and bob resolve to accounts; eve stays external.
		if bill.Participants[0].UserID != alice.ID {
			t.Errorf("alice not resolved: %+v", bill.Participants[0])
		}
		if bill.Participants[1].UserID != bob.ID {
			t.Errorf("bob not resolved: %+v", bill.Participants[1])
		}
		if !bill.Participants[2].IsExternal() {
			t.Errorf("eve should be external: %+v", bill.Participants[2])
		}

		// Creator starts paid, everyone else unpaid.
		if bill.Participants[0].Status != models.StatusPaid {
			t.Errorf("creator status = %s, want paid", bill.Participants[0].Status)
		}
		if bill.Participants[1].Status != models.StatusUnpaid || bill.Participants[2].Status != models.StatusUnpaid {
			t.Error("non-creator participants should start unpaid")
		}

		for _, p := range bill.Participants {
			if p.AmountDue != 4166.67 {
				t.Errorf("AmountDue[%s] = %v, want 4166.67", p.DisplayName, p.AmountDue)
			}
		}
	})

	t.Run("per_product adds split-only names as participants", func(t *testing.T) {
		bill, err := env.bills.Create(ctx, alice.ID, BillInput{
			Name:         "Breakfast",
			SplitMethod:  string(models.SplitPerProduct),
			Participants: []string{"alice"},
			Items: []ItemInput{
				{
					Name: "Eggs", PricePerUnit: 2, Quantity: 6,
					Split: []SplitInput{
						{Name: "alice", Quantity: 4},
						{Name: "bob", Quantity: 2},
					},
				},
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if len(bill.Participants) != 2 {
			t.Fatalf("Participants = %d, want 2", len(bill.Participants))
		}
		if bill.Participants[1].DisplayName != "bob" || bill.Participants[1].UserID != bob.ID {
			t.Errorf("bob should be appended and resolved: %+v", bill.Participants[1])
		}
		if bill.Participants[0].AmountDue != 8 || bill.Participants[1].AmountDue != 4 {
			t.Errorf("AmountsDue = %v/%v, want 8/4",
				bill.Participants[0].AmountDue, bill.Participants[1].AmountDue)
		}
		if bill.Items[0].Split[1].UserID != bob.ID {
			t.Errorf("item split should carry bob's account ref: %+v", bill.Items[0].Split[1])
		}
	})

	t.Run("rejects blank bill name", func(t *testing.T) {
		_, err := env.bills.Create(ctx, alice.ID, BillInput{
			Name:         "   ",
			SplitMethod:  string(models.SplitEqual),
			Participants: []string{"alice"},
			Items:        []ItemInput{{Name: "Tea", PricePerUnit: 3, Quantity: 1}},
		})
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("error = %v, want ErrMissingField", err)
		}
	})

	t.Run("rejects empty participants", func(t *testing.T) {
		_, err := env.bills.Create(ctx, alice.ID, BillInput{
			Name:        "Solo",
			SplitMethod: string(models.SplitEqual),
			Items:       []ItemInput{{Name: "Tea", PricePerUnit: 3, Quantity: 1}},
		})
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("error = %v, want ErrMissingField", err)
		}
	})

	t.Run("calculator validation errors pass through", func(t *testing.T) {
		_, err := env.bills.Create(ctx, alice.ID, BillInput{
			Name:         "Bad",
			SplitMethod:  "percentage",
			Participants: []string{"alice"},
		})
		if !errors.Is(err, calculator.ErrInvalidSplitMethod) {
			t.Errorf("error = %v, want ErrInvalidSplitMethod", err)
		}

		_, err = env.bills.Create(ctx, alice.ID, BillInput{
			Name:         "Bad",
			SplitMethod:  string(models.SplitPerProduct),
			Participants: []string{"alice"},
			Items: []ItemInput{
				{
					Name: "Bacon", PricePerUnit: 1000, Quantity: 10,
					Split: []SplitInput{{Name: "alice", Quantity: 9}},
				},
			},
		})
		if !errors.Is(err, calculator.ErrSplitQuantityMismatch) {
			t.Errorf("error = %v, want ErrSplitQuantityMismatch", err)
		}
	})
}

func TestGetBillAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "alice", 0)
	bob := env.registerUser(t, "bob", 0)
	mallory := env.registerUser(t, "mallory", 0)

	bill := env.dinnerBill(t, alice, "bob")

	t.Run("creator can view", func(t *testing.T) {
		if _, err := env.bills.Get(ctx, bill.ID, alice.ID); err != nil {
			t.Errorf("creator Get failed: %v", err)
		}
	})

	t.Run("participant can view", func(t *testing.T) {
		if _, err := env.bills.Get(ctx, bill.ID, bob.ID); err != nil {
			t.Errorf("participant Get failed: %v", err)
		}
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		_, err := env.bills.Get(ctx, bill.ID, mallory.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("missing bill", func(t *testing.T) {
		_, err := env.bills.Get(ctx, "nonexistent-id", alice.ID)
		if !errors.Is(err, ErrBillNotFound) {
			t.Errorf("error = %v, want ErrBillNotFound", err)
		}
	})
}

func TestListBills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "alice", 0)
	bob := env.registerUser(t, "bob", 0)
	mallory := env.registerUser(t, "mallory", 0)

	env.dinnerBill(t, alice, "bob")
	env.dinnerBill(t, bob)

	bills, err := env.bills.List(ctx, alice.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bills) != 1 {
		t.Errorf("alice sees %d bills, want 1", len(bills))
	}

	bills, err = env.bills.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bills) != 2 {
		t.Errorf("bob sees %d bills, want 2", len(bills))
	}

	bills, err = env.bills.List(ctx, mallory.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bills) != 0 {
		t.Errorf("mallory sees %d bills, want 0", len(bills))
	}
}
