package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckBounds(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "cents", amount: "12.34"},
		{name: "eight places", amount: "0.00000001"},
		{name: "at maximum", amount: "1000000000000"},
		{name: "negative at maximum", amount: "-1000000000000"},
		{name: "exponent form at maximum", amount: "1e12"},
		{name: "zero", amount: "0"},
		{name: "nine places", amount: "0.000000001", wantErr: ErrAmountTooPrecise},
		{name: "trailing zeros count as places", amount: "1.000000000", wantErr: ErrAmountTooPrecise},
		{name: "tiny exponent", amount: "1e-20000000", wantErr: ErrAmountTooPrecise},
		{name: "huge exponent", amount: "1e20000000", wantErr: ErrAmountTooLarge},
		{name: "just over maximum", amount: "1000000000000.01", wantErr: ErrAmountTooLarge},
		{name: "fourteen digits", amount: "10000000000000", wantErr: ErrAmountTooLarge},
		{name: "negative over maximum", amount: "-1e13", wantErr: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBounds(decimal.RequireFromString(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckBounds(%s) error = %v, want %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}
