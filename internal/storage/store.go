// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/budgetshare/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserDirectory is the read side of the user directory plus registration
// for the admin tooling.
type UserDirectory interface {
	// CreateUser adds a user. The email must be unique.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail looks a user up by normalized email.
	// Returns ErrNotFound if no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store defines the interface for shared-budget storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// The ledger is append-only: there are no update or delete methods for
// expenses or settlements.
type Store interface {
	UserDirectory

	// CreateBudget persists a budget with its members and categories in one
	// transaction. The budget.ID and CreatedAt fields are populated by the store.
	CreateBudget(ctx context.Context, budget *models.Budget) error

	// GetBudget retrieves a budget with members and categories.
	// Returns ErrNotFound if the budget does not exist.
	GetBudget(ctx context.Context, budgetID string) (*models.Budget, error)

	// ListBudgetsForUser returns every budget the user is a member of, newest first.
	ListBudgetsForUser(ctx context.Context, userID string) ([]*models.Budget, error)

	// AppendExpense persists an expense, its split and the companion
	// transaction atomically: both rows are written or neither is.
	AppendExpense(ctx context.Context, expense *models.Expense, txn *models.Transaction) error

	// ListExpenses returns all expenses of a budget, newest first.
	ListExpenses(ctx context.Context, budgetID string) ([]*models.Expense, error)

	// AppendSettlement persists a settlement.
	AppendSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlements returns all settlements of a budget, newest first.
	ListSettlements(ctx context.Context, budgetID string) ([]*models.Settlement, error)

	// GetTransaction retrieves a companion transaction by ID.
	// Returns ErrNotFound if it does not exist.
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ListLinkedTransactions returns the companion transactions of a budget's
	// expenses dated within [from, to] (Unix seconds), oldest first.
	// A nil bound is open.
	ListLinkedTransactions(ctx context.Context, budgetID string, from, to *int64) ([]*models.Transaction, error)

	// Close releases any resources held by the store.
	Close() error
}
