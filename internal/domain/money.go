package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseMoney parses a decimal string into a monetary amount. It validates
// that the input is a well-formed decimal with at most 2 fractional digits.
// Cost bases computed internally may carry more precision; the 2-place
// constraint applies only to externally supplied amounts and prices.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid monetary value %q", s)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("monetary values must have at most 2 decimal places")
	}
	return d, nil
}

// FormatMoney renders a monetary amount with exactly 2 fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
