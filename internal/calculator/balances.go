package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	PaidBy     string
	Amount     decimal.Decimal
	SplitAmong []string
}

// SettlementForBalance represents a settlement with the minimal information needed for balance calculations.
type SettlementForBalance struct {
	FromUserID string // Who paid (debtor settling up)
	ToUserID   string // Who received (creditor being paid)
	Amount     decimal.Decimal
}

// MemberBalance represents the balance information for one budget member.
type MemberBalance struct {
	MemberID string
	Net      decimal.Decimal // Positive = owed money, Negative = owes money
	Paid     decimal.Decimal // Expenses paid plus settlements sent
	Owed     decimal.Decimal // Expense shares plus settlements received
}

// ComputeBalances folds the expense and settlement logs into per-member balances.
//
// Algorithm:
//   - Every member starts at zero
//   - For each expense: payer is credited the full amount, each participant is
//     debited amount / |splitAmong|
//   - For each settlement: the payer's balance goes up, the receiver's goes down
//   - net = paid - owed
//
// The fold is order independent. The result lists members in the given order;
// IDs that only appear in the logs are appended in first-seen order.
func ComputeBalances(members []string, expenses []ExpenseForBalance, settlements []SettlementForBalance) ([]MemberBalance, error) {
	index := make(map[string]int, len(members))
	var balances []MemberBalance

	get := func(id string) *MemberBalance {
		i, ok := index[id]
		if !ok {
			i = len(balances)
			index[id] = i
			balances = append(balances, MemberBalance{
				MemberID: id,
				Net:      decimal.Zero,
				Paid:     decimal.Zero,
				Owed:     decimal.Zero,
			})
		}
		return &balances[i]
	}

	for _, m := range members {
		get(m)
	}

	for _, e := range expenses {
		shares, err := SplitEqually(e.Amount, e.SplitAmong)
		if err != nil {
			return nil, fmt.Errorf("failed to split expense paid by %s: %w", e.PaidBy, err)
		}

		payer := get(e.PaidBy)
		payer.Paid = payer.Paid.Add(e.Amount)

		// Iterate the slice, not the map, so first-seen order stays stable.
		for _, p := range Dedup(e.SplitAmong) {
			b := get(p)
			b.Owed = b.Owed.Add(shares[p])
		}
	}

	for _, s := range settlements {
		from := get(s.FromUserID)
		from.Paid = from.Paid.Add(s.Amount)

		to := get(s.ToUserID)
		to.Owed = to.Owed.Add(s.Amount)
	}

	for i := range balances {
		balances[i].Net = balances[i].Paid.Sub(balances[i].Owed)
	}

	return balances, nil
}
