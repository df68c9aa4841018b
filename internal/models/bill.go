package models

// SplitMethod determines how a bill's total is divided among participants.
type SplitMethod string

const (
	// SplitEqual divides the derived total evenly across all participants.
	SplitEqual SplitMethod = "equal"

	// SplitPerProduct charges each participant for the item units they
	// consumed, as recorded in each item's split list.
	SplitPerProduct SplitMethod = "per_product"
)

// Valid reports whether m is a known split method.
func (m SplitMethod) Valid() bool {
	return m == SplitEqual || m == SplitPerProduct
}

// PayStatus is the settlement state of one participant on one bill.
type PayStatus string

const (
	StatusUnpaid PayStatus = "unpaid"
	StatusPaid   PayStatus = "paid"
)

// Bill represents a shared expense split among participants.
//
// A bill is immutable after creation except for two fields: a participant's
// Status (flipped to paid exactly once) and UpdatedAt. TotalAmount always
// equals the sum of item subtotals as derived at creation time; client-supplied
// totals are never trusted.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// Name is the human-readable name for the bill (e.g., "Dinner at XYZ").
	Name string

	// TotalAmount is the derived bill total: sum of PricePerUnit * Quantity
	// over all items, fixed at creation.
	TotalAmount float64

	// CreatedBy is the user ID of the bill creator.
	CreatedBy string

	// CreatedByName is the creator's username, frozen at creation so a later
	// rename does not rewrite bill history.
	CreatedByName string

	// SplitMethod is the policy used to compute each participant's share.
	SplitMethod SplitMethod

	// Participants is the ordered list of people splitting this bill.
	// Positions are stable: settlement addresses participants by index.
	Participants []Participant

	// Items is the ordered list of priced line items.
	Items []Item

	// CreatedAt is the Unix timestamp when the bill was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64
}

// ParticipantIndex returns the position of the participant registered under
// userID, or -1 if no participant belongs to that account.
func (b *Bill) ParticipantIndex(userID string) int {
	for i := range b.Participants {
		if b.Participants[i].BelongsTo(userID) {
			return i
		}
	}
	return -1
}

// Item represents a single priced line item on a bill.
type Item struct {
	// Name is the item description (e.g., "Bacon").
	Name string

	// PricePerUnit is the price of one unit. Always > 0.
	PricePerUnit float64

	// Quantity is the number of units. Always >= 1.
	Quantity int64

	// Split records who consumed how many units of this item. Only consulted
	// under the per_product method; split quantities must sum to Quantity.
	Split []ItemSplit
}

// ItemSplit records how many units of one item a participant consumed.
type ItemSplit struct {
	// UserID is the registered account reference, empty for external parties.
	UserID string

	// DisplayName is the participant name the split was entered under.
	DisplayName string

	// Quantity is the number of units consumed. Always >= 0.
	Quantity int64
}

// Participant is one person owing a fixed amount on a bill. A participant is
// either registered (UserID set, resolved once at creation) or external
// (display name only, settled by the creator marking them paid).
type Participant struct {
	// UserID is the registered account reference, empty for external parties.
	UserID string

	// DisplayName is the name the participant appears under on the bill.
	DisplayName string

	// AmountDue is this participant's share, fixed at creation.
	AmountDue float64

	// Status is unpaid until settled; paid is terminal.
	Status PayStatus
}

// IsExternal reports whether the participant has no registered account.
// External participants never pay through a balance debit.
func (p Participant) IsExternal() bool {
	return p.UserID == ""
}

// BelongsTo reports whether the participant is the registered user with the
// given ID. Always false for external participants and blank IDs.
func (p Participant) BelongsTo(userID string) bool {
	return userID != "" && p.UserID == userID
}
