// Package models defines the core domain models for Splitbill.
//
// # Models
//
//   - User: registered account with a stored balance
//   - Bill: a shared expense split among participants under a fixed policy
//   - Item: a priced line item on a bill
//   - ItemSplit: how many units of an item one participant consumed
//   - Participant: a person owing a fixed amount on a bill
//
// # Design Principles
//
// 1. **Amounts are frozen at creation**: a participant's AmountDue is computed
// once by the calculator and never recomputed; later payments flip Status only.
//
// 2. **Dual identity**: participants and item splits may reference a registered
// User by ID or carry only a display name (an "external" party). All code must
// go through Participant.IsExternal / BelongsTo instead of reading UserID.
//
// 3. **Avoid circular references**: bills reference their creator by ID string,
// never by pointer; Users are never embedded in a Bill.
package models
