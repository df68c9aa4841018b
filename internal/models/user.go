package models

// User represents a registered user account.
//
// The balance is the only mutable field after registration: it is credited by
// top-ups and debited when the user pays their share of a bill. Both mutations
// go through the storage layer as atomic deltas; the balance never goes
// negative.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the unique display name, used for login and for resolving
	// bill participants to accounts.
	Username string

	// Email is the user's email address.
	Email string

	// Balance is the user's current balance in minor-unit-precise currency.
	Balance float64

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to clients.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last account mutation.
	UpdatedAt int64
}
