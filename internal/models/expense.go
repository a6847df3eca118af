package models

import "github.com/shopspring/decimal"

// Expense is a shared cost paid by one member and split equally among others.
// Expenses are immutable once created.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// BudgetID is the budget this expense belongs to.
	BudgetID string

	// Amount is the full amount paid. Always positive.
	Amount decimal.Decimal

	// PaidBy is the member ID of the payer.
	PaidBy string

	// SplitAmong is the non-empty set of member IDs sharing the cost.
	SplitAmong []string

	// TransactionID references the companion transaction record.
	TransactionID string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Transaction is the general transaction record written together with an
// expense so shared spending also shows up in ordinary reporting.
type Transaction struct {
	ID          string
	UserID      string
	BudgetID    string
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        int64
	Source      string
}

// TransactionSourceSharedBudget marks transactions created by the shared-budget ledger.
const TransactionSourceSharedBudget = "shared_budget"
