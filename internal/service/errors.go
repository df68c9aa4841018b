package service

import (
	"errors"
	"fmt"
)

// Settlement and validation outcomes are closed sets of sentinel errors.
// Callers branch with errors.Is; the HTTP layer maps each kind to a status
// code. None of these imply partial state: validation errors fire before any
// mutation, and settlement errors abort the whole transaction.
var (
	ErrMissingField        = errors.New("missing required field")
	ErrBillNotFound        = errors.New("bill not found")
	ErrNotAParticipant     = errors.New("user is not a participant in this bill")
	ErrAlreadyPaid         = errors.New("already paid")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrForbidden           = errors.New("only the bill creator can mark participants as paid")
	ErrInvalidIndex        = errors.New("invalid participant index")
	ErrNotExternal         = errors.New("registered users must pay through their own balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// InsufficientBalanceError reports a failed balance check with both figures so
// clients can display what is owed against what is available. It unwraps to
// ErrInsufficientBalance.
type InsufficientBalanceError struct {
	AmountDue float64
	Balance   float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: amount due %.2f, balance %.2f", e.AmountDue, e.Balance)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
