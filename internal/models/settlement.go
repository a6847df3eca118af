package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between budget members to clear debts.
// Settlements are immutable once created.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// BudgetID is the budget this settlement belongs to.
	BudgetID string

	// FromUserID is the member who paid (debtor settling up).
	FromUserID string

	// ToUserID is the member who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount. Always positive.
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
