// Package models defines the core domain models for budgetshare.
//
// # Models
//
//   - Budget: a shared budget together with its members and category ids
//   - Member: a user's participation in a budget (owner or member)
//   - Expense: an immutable shared-cost event split among members
//   - Settlement: an immutable real-money payment between two members
//   - Transaction: the companion record written alongside every expense
//   - User: an entry of the user directory used for identity resolution
//
// # Design Principles
//
//  1. **Append-only**: expenses and settlements are never updated or deleted;
//     corrections are new, compensating entries.
//  2. **Decimal money**: amounts are decimal.Decimal, never float64.
//  3. **Avoid circular references**: relationships use ID strings, not pointers.
//  4. **Derived state is not stored**: balances are always recomputed from the logs.
package models
