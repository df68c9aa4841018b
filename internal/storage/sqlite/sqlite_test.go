package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitbill-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testUser(t *testing.T, store *SQLiteStore, username string, balance float64) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		Balance:      balance,
		PasswordHash: "x",
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser generates ID and timestamps", func(t *testing.T) {
		user := testUser(t, store, "alice", 100)
		if user.ID == "" {
			t.Error("Expected user ID to be generated")
		}
		if user.CreatedAt == 0 || user.UpdatedAt == 0 {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("CreateUser rejects duplicate username", func(t *testing.T) {
		testUser(t, store, "bob", 0)
		dup := &models.User{Username: "bob", Email: "other@example.com", PasswordHash: "x"}
		if err := store.CreateUser(ctx, dup); err == nil {
			t.Error("Expected duplicate username to fail")
		}
	})

	t.Run("GetUserByName finds registered user", func(t *testing.T) {
		created := testUser(t, store, "charlie", 50)
		found, err := store.GetUserByName(ctx, "charlie")
		if err != nil {
			t.Fatalf("GetUserByName failed: %v", err)
		}
		if found == nil || found.ID != created.ID {
			t.Errorf("GetUserByName = %+v, want ID %s", found, created.ID)
		}
	})

	t.Run("GetUserByName returns nil for unknown name", func(t *testing.T) {
		found, err := store.GetUserByName(ctx, "nobody")
		if err != nil {
			t.Fatalf("GetUserByName failed: %v", err)
		}
		if found != nil {
			t.Errorf("Expected nil for unknown name, got %+v", found)
		}
	})

	t.Run("AddBalance credits and returns new balance", func(t *testing.T) {
		user := testUser(t, store, "dana", 10)
		balance, err := store.AddBalance(ctx, user.ID, 90)
		if err != nil {
			t.Fatalf("AddBalance failed: %v", err)
		}
		if balance != 100 {
			t.Errorf("Balance = %v, want 100", balance)
		}
	})

	t.Run("AddBalance for missing user returns ErrNotFound", func(t *testing.T) {
		_, err := store.AddBalance(ctx, "missing-id", 5)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("AddBalance error = %v, want ErrNotFound", err)
		}
	})
}

func testBill(creator *models.User, participants []models.Participant) *models.Bill {
	return &models.Bill{
		Name:          "Dinner",
		TotalAmount:   100,
		CreatedBy:     creator.ID,
		CreatedByName: creator.Username,
		SplitMethod:   models.SplitEqual,
		Participants:  participants,
		Items: []models.Item{
			{
				Name: "Pizza", PricePerUnit: 50, Quantity: 2,
				Split: []models.ItemSplit{
					{UserID: creator.ID, DisplayName: creator.Username, Quantity: 2},
				},
			},
		},
	}
}

func TestBills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := testUser(t, store, "alice", 0)
	bob := testUser(t, store, "bob", 0)

	t.Run("CreateBill generates ID and round-trips the aggregate", func(t *testing.T) {
		bill := testBill(alice, []models.Participant{
			{UserID: alice.ID, DisplayName: "alice", AmountDue: 50, Status: models.StatusPaid},
			{UserID: bob.ID, DisplayName: "bob", AmountDue: 25, Status: models.StatusUnpaid},
			{DisplayName: "eve", AmountDue: 25, Status: models.StatusUnpaid},
		})

		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		if bill.ID == "" {
			t.Fatal("Expected bill ID to be generated")
		}

		got, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.Name != "Dinner" || got.TotalAmount != 100 || got.SplitMethod != models.SplitEqual {
			t.Errorf("Bill fields mismatch: %+v", got)
		}
		if got.CreatedBy != alice.ID || got.CreatedByName != "alice" {
			t.Errorf("Creator mismatch: %+v", got)
		}
		if len(got.Participants) != 3 {
			t.Fatalf("Participants = %d, want 3", len(got.Participants))
		}
		// Participant order and the external entry survive the round trip.
		if got.Participants[1].UserID != bob.ID || got.Participants[1].AmountDue != 25 {
			t.Errorf("Participant[1] = %+v", got.Participants[1])
		}
		if !got.Participants[2].IsExternal() || got.Participants[2].DisplayName != "eve" {
			t.Errorf("Participant[2] should be external eve: %+v", got.Participants[2])
		}
		if len(got.Items) != 1 || len(got.Items[0].Split) != 1 {
			t.Fatalf("Items mismatch: %+v", got.Items)
		}
		if got.Items[0].Split[0].UserID != alice.ID {
			t.Errorf("Item split account ref lost: %+v", got.Items[0].Split[0])
		}
	})

	t.Run("GetBill returns ErrNotFound for nonexistent bill", func(t *testing.T) {
		_, err := store.GetBill(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetBill error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListBillsForUser scopes to creator or participant, newest first", func(t *testing.T) {
		carol := testUser(t, store, "carol", 0)
		dave := testUser(t, store, "dave", 0)

		older := testBill(carol, []models.Participant{
			{UserID: carol.ID, DisplayName: "carol", AmountDue: 100, Status: models.StatusPaid},
		})
		older.CreatedAt = time.Now().Unix() - 100
		if err := store.CreateBill(ctx, older); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		newer := testBill(dave, []models.Participant{
			{UserID: dave.ID, DisplayName: "dave", AmountDue: 50, Status: models.StatusPaid},
			{UserID: carol.ID, DisplayName: "carol", AmountDue: 50, Status: models.StatusUnpaid},
		})
		if err := store.CreateBill(ctx, newer); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		bills, err := store.ListBillsForUser(ctx, carol.ID)
		if err != nil {
			t.Fatalf("ListBillsForUser failed: %v", err)
		}
		if len(bills) != 2 {
			t.Fatalf("ListBillsForUser = %d bills, want 2", len(bills))
		}
		if bills[0].ID != newer.ID || bills[1].ID != older.ID {
			t.Errorf("Expected newest-first order, got %s then %s", bills[0].ID, bills[1].ID)
		}

		bills, err = store.ListBillsForUser(ctx, dave.ID)
		if err != nil {
			t.Fatalf("ListBillsForUser failed: %v", err)
		}
		if len(bills) != 1 || bills[0].ID != newer.ID {
			t.Errorf("dave should see exactly the newer bill, got %d bills", len(bills))
		}
	})
}

func TestInTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := testUser(t, store, "alice", 100)
	bill := testBill(alice, []models.Participant{
		{UserID: alice.ID, DisplayName: "alice", AmountDue: 60, Status: models.StatusUnpaid},
	})
	if err := store.CreateBill(ctx, bill); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}

	t.Run("commits balance debit and status flip together", func(t *testing.T) {
		err := store.InTransaction(ctx, func(tx storage.Tx) error {
			if err := tx.UpdateUserBalance(ctx, alice.ID, -60); err != nil {
				return err
			}
			return tx.UpdateParticipantStatus(ctx, bill.ID, 0, models.StatusPaid, time.Now().Unix())
		})
		if err != nil {
			t.Fatalf("InTransaction failed: %v", err)
		}

		user, err := store.GetUserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if user.Balance != 40 {
			t.Errorf("Balance = %v, want 40", user.Balance)
		}
		got, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.Participants[0].Status != models.StatusPaid {
			t.Errorf("Status = %s, want paid", got.Participants[0].Status)
		}
	})

	t.Run("rolls back everything when fn fails mid-way", func(t *testing.T) {
		bob := testUser(t, store, "bob", 100)
		injected := errors.New("injected failure")

		err := store.InTransaction(ctx, func(tx storage.Tx) error {
			if err := tx.UpdateUserBalance(ctx, bob.ID, -30); err != nil {
				return err
			}
			return injected // after debit, before status flip
		})
		if !errors.Is(err, injected) {
			t.Fatalf("InTransaction error = %v, want injected failure", err)
		}

		user, err := store.GetUserByID(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if user.Balance != 100 {
			t.Errorf("Balance = %v, want 100 (debit rolled back)", user.Balance)
		}
	})

	t.Run("transaction reads see a consistent snapshot", func(t *testing.T) {
		err := store.InTransaction(ctx, func(tx storage.Tx) error {
			got, err := tx.GetBill(ctx, bill.ID)
			if err != nil {
				return err
			}
			user, err := tx.GetUserByID(ctx, alice.ID)
			if err != nil {
				return err
			}
			if got == nil || user == nil {
				t.Error("Expected bill and user inside transaction")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("InTransaction failed: %v", err)
		}
	})

	t.Run("status update addresses one participant by index", func(t *testing.T) {
		carol := testUser(t, store, "carol", 0)
		multi := testBill(carol, []models.Participant{
			{UserID: carol.ID, DisplayName: "carol", AmountDue: 50, Status: models.StatusPaid},
			{DisplayName: "x", AmountDue: 25, Status: models.StatusUnpaid},
			{DisplayName: "y", AmountDue: 25, Status: models.StatusUnpaid},
		})
		if err := store.CreateBill(ctx, multi); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		err := store.InTransaction(ctx, func(tx storage.Tx) error {
			return tx.UpdateParticipantStatus(ctx, multi.ID, 1, models.StatusPaid, time.Now().Unix())
		})
		if err != nil {
			t.Fatalf("InTransaction failed: %v", err)
		}

		got, err := store.GetBill(ctx, multi.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.Participants[1].Status != models.StatusPaid {
			t.Errorf("Participant[1] status = %s, want paid", got.Participants[1].Status)
		}
		if got.Participants[2].Status != models.StatusUnpaid {
			t.Errorf("Participant[2] status = %s, want unpaid", got.Participants[2].Status)
		}
	})

	t.Run("status update for bad index returns ErrNotFound", func(t *testing.T) {
		err := store.InTransaction(ctx, func(tx storage.Tx) error {
			return tx.UpdateParticipantStatus(ctx, bill.ID, 99, models.StatusPaid, time.Now().Unix())
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
