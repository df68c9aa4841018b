package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

// Receipt is the result of a successful settlement.
type Receipt struct {
	BillID      string
	Participant string
	AmountPaid  float64

	// NewBalance is the payer's balance after the debit. Zero for external
	// participants, whose balances are not tracked.
	NewBalance float64
}

// SettlementService executes payments against bills.
//
// Pay is the only path that moves money: it debits the payer's balance and
// flips their participant status in one transaction, so the two can never
// disagree. MarkExternalPaid flips status only, for parties with no account.
type SettlementService struct {
	store storage.Store
	authn auth.Authenticator
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, authn auth.Authenticator) *SettlementService {
	return &SettlementService{store: store, authn: authn}
}

// Pay settles the payer's share of the bill.
//
// Every precondition is evaluated against the same transaction snapshot the
// mutations commit under; a concurrent payment for the same participant
// serializes so that exactly one debit happens and the loser sees
// ErrAlreadyPaid (or storage.ErrTxAborted, which is safe to retry).
func (s *SettlementService) Pay(ctx context.Context, billID, payerID, password string) (*Receipt, error) {
	var receipt *Receipt
	err := s.store.InTransaction(ctx, func(tx storage.Tx) error {
		bill, err := tx.GetBill(ctx, billID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrBillNotFound, billID)
			}
			return err
		}

		idx := bill.ParticipantIndex(payerID)
		if idx < 0 {
			return ErrNotAParticipant
		}
		participant := bill.Participants[idx]
		if participant.Status == models.StatusPaid {
			return ErrAlreadyPaid
		}

		payer, err := tx.GetUserByID(ctx, payerID)
		if err != nil {
			return err
		}
		if payer == nil {
			return ErrNotAParticipant
		}
		if err := s.authn.Verify(payer, password); err != nil {
			return auth.ErrInvalidCredentials
		}

		due := decimal.NewFromFloat(participant.AmountDue)
		balance := decimal.NewFromFloat(payer.Balance)
		if balance.LessThan(due) {
			return &InsufficientBalanceError{
				AmountDue: participant.AmountDue,
				Balance:   payer.Balance,
			}
		}

		if err := tx.UpdateUserBalance(ctx, payerID, -participant.AmountDue); err != nil {
			return err
		}
		if err := tx.UpdateParticipantStatus(ctx, billID, idx, models.StatusPaid, time.Now().Unix()); err != nil {
			return err
		}

		receipt = &Receipt{
			BillID:      billID,
			Participant: participant.DisplayName,
			AmountPaid:  participant.AmountDue,
			NewBalance:  balance.Sub(due).Round(2).InexactFloat64(),
		}
		return nil
	})
	if err != nil {
		metrics.Settlements.WithLabelValues(settlementOutcome(err)).Inc()
		return nil, err
	}

	metrics.Settlements.WithLabelValues("paid").Inc()
	slog.Info("Bill settled",
		"bill_id", receipt.BillID,
		"payer_id", payerID,
		"amount", receipt.AmountPaid,
	)
	return receipt, nil
}

// MarkExternalPaid lets the bill creator flag an external participant as
// settled. No balance moves; only the bill document changes.
func (s *SettlementService) MarkExternalPaid(ctx context.Context, billID, callerID string, index int) (*Receipt, error) {
	var receipt *Receipt
	err := s.store.InTransaction(ctx, func(tx storage.Tx) error {
		bill, err := tx.GetBill(ctx, billID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrBillNotFound, billID)
			}
			return err
		}

		if bill.CreatedBy != callerID {
			return ErrForbidden
		}
		if index < 0 || index >= len(bill.Participants) {
			return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
		}
		participant := bill.Participants[index]
		if !participant.IsExternal() {
			return ErrNotExternal
		}
		if participant.Status == models.StatusPaid {
			return ErrAlreadyPaid
		}

		if err := tx.UpdateParticipantStatus(ctx, billID, index, models.StatusPaid, time.Now().Unix()); err != nil {
			return err
		}

		receipt = &Receipt{
			BillID:      billID,
			Participant: participant.DisplayName,
			AmountPaid:  participant.AmountDue,
		}
		return nil
	})
	if err != nil {
		metrics.Settlements.WithLabelValues(settlementOutcome(err)).Inc()
		return nil, err
	}

	metrics.Settlements.WithLabelValues("external_paid").Inc()
	slog.Info("External participant marked paid",
		"bill_id", receipt.BillID,
		"participant", receipt.Participant,
		"marked_by", callerID,
	)
	return receipt, nil
}

// settlementOutcome buckets a settlement error for the outcome counter.
func settlementOutcome(err error) string {
	switch {
	case errors.Is(err, ErrBillNotFound):
		return "bill_not_found"
	case errors.Is(err, ErrNotAParticipant):
		return "not_a_participant"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid_credential"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, ErrNotExternal):
		return "not_external"
	case errors.Is(err, storage.ErrTxAborted):
		return "tx_aborted"
	default:
		return "error"
	}
}
