package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// MatchOrder controls the order in which debtors and creditors are matched.
type MatchOrder int

const (
	// MatchByMagnitude matches the largest debts with the largest credits,
	// breaking ties by member ID.
	MatchByMagnitude MatchOrder = iota
	// MatchAsListed walks debtors and creditors in the order the balances were
	// given. Only useful for parity with previously stored plans.
	MatchAsListed
)

// ParseMatchOrder parses "magnitude" or "listed".
func ParseMatchOrder(s string) (MatchOrder, error) {
	switch s {
	case "", "magnitude":
		return MatchByMagnitude, nil
	case "listed":
		return MatchAsListed, nil
	default:
		return MatchByMagnitude, fmt.Errorf("unknown match order %q", s)
	}
}

func (o MatchOrder) String() string {
	if o == MatchAsListed {
		return "listed"
	}
	return "magnitude"
}

type position struct {
	member    string
	remaining decimal.Decimal // always positive
}

// PlanTransfers converts net balances into a list of payments that brings
// every member to (approximately) zero.
//
// Members within Epsilon of zero are already settled and ignored. Debtors and
// creditors are matched greedily with two pointers, so at most
// |debtors| + |creditors| - 1 transfers are emitted. Emitted amounts are
// rounded to cents; the running balances keep the unrounded amount so
// rounding error never compounds along the walk.
func PlanTransfers(balances []MemberBalance, order MatchOrder) []Transfer {
	var debtors, creditors []position
	for _, b := range balances {
		switch {
		case b.Net.LessThan(Epsilon.Neg()):
			debtors = append(debtors, position{member: b.MemberID, remaining: b.Net.Neg()})
		case b.Net.GreaterThan(Epsilon):
			creditors = append(creditors, position{member: b.MemberID, remaining: b.Net})
		}
	}

	if order == MatchByMagnitude {
		sortByMagnitude(debtors)
		sortByMagnitude(creditors)
	}

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)
		transfers = append(transfers, Transfer{
			From:   debtor.member,
			To:     creditor.member,
			Amount: Round2(amount),
		})

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if IsSettled(debtor.remaining) {
			i++
		}
		if IsSettled(creditor.remaining) {
			j++
		}
	}

	return transfers
}

func sortByMagnitude(ps []position) {
	sort.SliceStable(ps, func(a, b int) bool {
		if c := ps[a].remaining.Cmp(ps[b].remaining); c != 0 {
			return c > 0
		}
		return ps[a].member < ps[b].member
	})
}
