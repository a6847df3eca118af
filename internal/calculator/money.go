package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance below which a balance counts as settled.
var Epsilon = decimal.New(1, -2)

// MaxAmount is the largest magnitude accepted for any amount.
var MaxAmount = decimal.New(1, 12)

// MaxDecimalPlaces is the finest precision accepted for any amount.
const MaxDecimalPlaces = 8

// maxIntegerDigits is the digit count of MaxAmount.
const maxIntegerDigits = 13

var (
	ErrAmountTooLarge   = errors.New("amount exceeds 1000000000000")
	ErrAmountTooPrecise = errors.New("amount has more than 8 decimal places")
)

// Round2 rounds an amount to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsSettled reports whether a balance is within Epsilon of zero.
func IsSettled(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// CheckBounds rejects amounts outside MaxAmount or finer than
// MaxDecimalPlaces. The exponent and digit count are checked first so a
// value like 1e20000000 is refused without being rescaled.
func CheckBounds(d decimal.Decimal) error {
	if d.Exponent() < -MaxDecimalPlaces {
		return ErrAmountTooPrecise
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > maxIntegerDigits {
		return ErrAmountTooLarge
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}
