package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/calculator"
	"github.com/mmynk/budgetshare/internal/events"
	"github.com/mmynk/budgetshare/internal/identity"
	"github.com/mmynk/budgetshare/internal/models"
)

// AddExpenseInput describes a shared cost. PaidBy and SplitAmong entries are
// user IDs or emails of current members.
type AddExpenseInput struct {
	CallerID    string
	BudgetID    string
	Amount      decimal.Decimal
	PaidBy      string
	SplitAmong  []string
	Category    string
	Description string
}

// AddExpenseResult is the recorded expense and each participant's share.
type AddExpenseResult struct {
	Expense   *models.Expense
	PerPerson decimal.Decimal
}

// AddExpense appends an expense and its companion transaction. Every
// precondition is checked before anything is written.
func (s *LedgerService) AddExpense(ctx context.Context, in AddExpenseInput) (*AddExpenseResult, error) {
	budget, err := s.loadBudget(ctx, in.CallerID, in.BudgetID)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	if len(in.SplitAmong) == 0 {
		return nil, fmt.Errorf("%w: splitAmong must not be empty", ErrInvalidInput)
	}

	paidBy, err := s.resolveMember(ctx, budget, "paidBy", in.PaidBy)
	if err != nil {
		return nil, err
	}
	ids, err := identity.ParseAll(in.SplitAmong)
	if err != nil {
		return nil, resolveMemberError("splitAmong", err)
	}
	splitAmong, err := s.resolver.ResolveMembers(ctx, budget, ids)
	if err != nil {
		return nil, resolveMemberError("splitAmong", err)
	}

	perPerson, err := calculator.PerPerson(in.Amount, len(splitAmong))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultCategory
	}

	expense := &models.Expense{
		BudgetID:   budget.ID,
		Amount:     in.Amount,
		PaidBy:     paidBy,
		SplitAmong: splitAmong,
	}
	txn := &models.Transaction{
		UserID:      paidBy,
		Amount:      in.Amount,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Source:      models.TransactionSourceSharedBudget,
	}
	if err := s.store.AppendExpense(ctx, expense, txn); err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}
	s.invalidate(budget.ID)

	s.metrics.ExpensesRecorded.Inc()
	slog.InfoContext(ctx, "Expense recorded",
		"budget_id", budget.ID,
		"expense_id", expense.ID,
		"transaction_id", expense.TransactionID,
		"paid_by", paidBy,
		"split_count", len(splitAmong),
	)
	s.publish(ctx, events.TypeExpenseRecorded, budget.ID, in.CallerID, events.ExpenseRecorded{
		ExpenseID:     expense.ID,
		TransactionID: expense.TransactionID,
		Amount:        expense.Amount.String(),
		PaidBy:        paidBy,
		SplitAmong:    splitAmong,
	})

	return &AddExpenseResult{Expense: expense, PerPerson: perPerson}, nil
}

// ListExpenses returns the budget's expense log, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, callerID, budgetID string) ([]*models.Expense, error) {
	budget, err := s.loadBudget(ctx, callerID, budgetID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, budget.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (s *LedgerService) resolveMember(ctx context.Context, budget *models.Budget, field, raw string) (string, error) {
	id, err := identity.Parse(raw)
	if err != nil {
		return "", resolveMemberError(field, err)
	}
	memberID, err := s.resolver.ResolveMember(ctx, budget, id)
	if err != nil {
		return "", resolveMemberError(field, err)
	}
	return memberID, nil
}
