package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoParticipants is returned when a cost has to be split among nobody.
var ErrNoParticipants = errors.New("must have at least one participant")

// PerPerson computes each participant's share of an equally split amount.
// The share is not rounded: perPerson * n reproduces amount up to
// decimal.DivisionPrecision digits.
func PerPerson(amount decimal.Decimal, participants int) (decimal.Decimal, error) {
	if participants <= 0 {
		return decimal.Zero, ErrNoParticipants
	}
	return amount.Div(decimal.NewFromInt(int64(participants))), nil
}

// SplitEqually returns each participant's share of amount.
// Duplicate participants are counted once.
func SplitEqually(amount decimal.Decimal, participants []string) (map[string]decimal.Decimal, error) {
	unique := Dedup(participants)
	perPerson, err := PerPerson(amount, len(unique))
	if err != nil {
		return nil, err
	}

	shares := make(map[string]decimal.Decimal, len(unique))
	for _, p := range unique {
		shares[p] = perPerson
	}
	return shares, nil
}

// Dedup returns ids without duplicates, keeping first-seen order.
func Dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
