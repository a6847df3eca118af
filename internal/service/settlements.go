package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/budgetshare/internal/calculator"
	"github.com/mmynk/budgetshare/internal/events"
	"github.com/mmynk/budgetshare/internal/models"
)

// RecordSettlementInput describes a real-money payment between two members.
type RecordSettlementInput struct {
	CallerID string
	BudgetID string
	From     string
	To       string
	Amount   decimal.Decimal
	Note     string
}

// RecordSettlement appends a settlement recorded by the caller.
func (s *LedgerService) RecordSettlement(ctx context.Context, in RecordSettlementInput) (*models.Settlement, error) {
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

	from, err := s.resolveMember(ctx, budget, "fromUserId", in.From)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveMember(ctx, budget, "toUserId", in.To)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot settle with yourself", ErrInvalidInput)
	}

	settlement := &models.Settlement{
		BudgetID:   budget.ID,
		FromUserID: from,
		ToUserID:   to,
		Amount:     in.Amount,
		CreatedBy:  in.CallerID,
		Note:       strings.TrimSpace(in.Note),
	}
	if err := s.store.AppendSettlement(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}
	s.invalidate(budget.ID)

	s.metrics.SettlementsRecorded.Inc()
	slog.InfoContext(ctx, "Settlement recorded",
		"budget_id", budget.ID,
		"settlement_id", settlement.ID,
		"from", from,
		"to", to,
		"amount", settlement.Amount.String(),
	)
	s.publish(ctx, events.TypeSettlementRecorded, budget.ID, in.CallerID, events.SettlementRecorded{
		SettlementID: settlement.ID,
		FromUserID:   from,
		ToUserID:     to,
		Amount:       settlement.Amount.String(),
	})

	return settlement, nil
}

// ListSettlements returns the budget's recorded payments, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, callerID, budgetID string) ([]*models.Settlement, error) {
	budget, err := s.loadBudget(ctx, callerID, budgetID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlements(ctx, budget.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}

// ComputeBalances folds the budget's logs into per-member balances, in
// membership order.
func (s *LedgerService) ComputeBalances(ctx context.Context, callerID, budgetID string) ([]calculator.MemberBalance, error) {
	budget, err := s.loadBudget(ctx, callerID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.computeBalances(ctx, budget)
}

func (s *LedgerService) computeBalances(ctx context.Context, budget *models.Budget) ([]calculator.MemberBalance, error) {
	var gen uint64
	if s.balances != nil {
		// Read the generation before the logs: an append landing in between
		// bumps it, and the Set below becomes a no-op.
		gen = s.balances.Generation(budget.ID)
		if cached, ok := s.balances.Get(budget.ID, gen); ok {
			s.metrics.BalanceComputations.WithLabelValues("hit").Inc()
			return cached, nil
		}
		s.metrics.BalanceComputations.WithLabelValues("miss").Inc()
	} else {
		s.metrics.BalanceComputations.WithLabelValues("disabled").Inc()
	}

	expenses, err := s.store.ListExpenses(ctx, budget.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	settlements, err := s.store.ListSettlements(ctx, budget.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	expensesForCalc := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		expensesForCalc[i] = calculator.ExpenseForBalance{
			PaidBy:     e.PaidBy,
			Amount:     e.Amount,
			SplitAmong: e.SplitAmong,
		}
	}
	settlementsForCalc := make([]calculator.SettlementForBalance, len(settlements))
	for i, st := range settlements {
		settlementsForCalc[i] = calculator.SettlementForBalance{
			FromUserID: st.FromUserID,
			ToUserID:   st.ToUserID,
			Amount:     st.Amount,
		}
	}

	balances, err := calculator.ComputeBalances(budget.MemberIDs(), expensesForCalc, settlementsForCalc)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balances: %w", err)
	}

	if s.balances != nil {
		s.balances.Set(budget.ID, gen, balances)
	}
	slog.DebugContext(ctx, "Balances computed",
		"budget_id", budget.ID,
		"expenses", len(expenses),
		"settlements", len(settlements),
	)
	return balances, nil
}

// PlanTransfers suggests payments that bring every balance within
// calculator.Epsilon of zero. The plan is recomputed on every call.
func (s *LedgerService) PlanTransfers(ctx context.Context, callerID, budgetID string) ([]calculator.Transfer, error) {
	budget, err := s.loadBudget(ctx, callerID, budgetID)
	if err != nil {
		return nil, err
	}
	balances, err := s.computeBalances(ctx, budget)
	if err != nil {
		return nil, err
	}

	transfers := calculator.PlanTransfers(balances, s.matchOrder)
	s.metrics.TransfersPlanned.Observe(float64(len(transfers)))
	return transfers, nil
}
