package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used by summary bounds.
const DateLayout = "2006-01-02"

// SummaryInput bounds a summary. From and To are optional inclusive UTC days.
type SummaryInput struct {
	CallerID string
	BudgetID string
	From     string
	To       string
}

// Period is an inclusive range of calendar days.
type Period struct {
	From string
	To   string
}

// Summary aggregates the companion transactions of a budget's expenses.
type Summary struct {
	TotalSpent       decimal.Decimal
	ByCategory       map[string]decimal.Decimal
	TransactionCount int
	// Period is nil when no bound was given and the ledger is empty.
	Period *Period
}

// Summary totals the budget's spending, overall and per category.
func (s *LedgerService) Summary(ctx context.Context, in SummaryInput) (*Summary, error) {
	budget, err := s.loadBudget(ctx, in.CallerID, in.BudgetID)
	if err != nil {
		return nil, err
	}

	from, err := parseDay(in.From)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrInvalidInput, err)
	}
	to, err := parseDay(in.To)
	if err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidInput, err)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}

	var fromUnix, toUnix *int64
	if !from.IsZero() {
		start := from.Unix()
		fromUnix = &start
	}
	if !to.IsZero() {
		end := to.AddDate(0, 0, 1).Unix() - 1
		toUnix = &end
	}

	txns, err := s.store.ListLinkedTransactions(ctx, budget.ID, fromUnix, toUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	summary := &Summary{
		TotalSpent:       decimal.Zero,
		ByCategory:       make(map[string]decimal.Decimal),
		TransactionCount: len(txns),
	}
	for _, txn := range txns {
		summary.TotalSpent = summary.TotalSpent.Add(txn.Amount)
		summary.ByCategory[txn.Category] = summary.ByCategory[txn.Category].Add(txn.Amount)
	}

	period := Period{From: strings.TrimSpace(in.From), To: strings.TrimSpace(in.To)}
	if len(txns) > 0 {
		if period.From == "" {
			period.From = formatDay(txns[0].Date)
		}
		if period.To == "" {
			period.To = formatDay(txns[len(txns)-1].Date)
		}
	}
	if period.From != "" || period.To != "" {
		summary.Period = &period
	}

	return summary, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func formatDay(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(DateLayout)
}
