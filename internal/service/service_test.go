package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage/sqlite"
)

const testPassword = "password123"

type testEnv struct {
	store       *sqlite.SQLiteStore
	authn       *auth.PasswordAuthenticator
	bills       *BillService
	settlements *SettlementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitbill-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	authn := auth.NewPasswordAuthenticator(store)
	return &testEnv{
		store:       store,
		authn:       authn,
		bills:       NewBillService(store),
		settlements: NewSettlementService(store, authn),
	}
}

// registerUser creates an account with the shared test password and the given
// starting balance.
func (e *testEnv) registerUser(t *testing.T, username string, balance float64) *models.User {
	t.Helper()

	ctx := context.Background()
	user, err := e.authn.Register(ctx, username, username+"@example.com", testPassword)
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	if balance > 0 {
		if _, err := e.store.AddBalance(ctx, user.ID, balance); err != nil {
			t.Fatalf("failed to credit %s: %v", username, err)
		}
		user.Balance = balance
	}
	return user
}

// dinnerBill creates an equal-split bill: creator plus the named others.
func (e *testEnv) dinnerBill(t *testing.T, creator *models.User, others ...string) *models.Bill {
	t.Helper()

	participants := append([]string{creator.Username}, others...)
	bill, err := e.bills.Create(context.Background(), creator.ID, BillInput{
		Name:         "Dinner",
		SplitMethod:  string(models.SplitEqual),
		Participants: participants,
		Items: []ItemInput{
			{Name: "Pizza", PricePerUnit: 30, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("failed to create bill: %v", err)
	}
	return bill
}
