package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// Property: under an arbitrary sequence of buys and covered sells, the
// position quantity never goes negative and the cost basis of a flat
// position is always zero. Additionally, total cost paid equals
// quantity × avg cost when only buys have occurred.
func TestProperty_PositionInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewPortfolio("acct-1")
		n := rapid.IntRange(1, 40).Draw(t, "numOps")

		for i := 0; i < n; i++ {
			held := p.Quantity("AAPL")
			buy := held == 0 || rapid.Bool().Draw(t, fmt.Sprintf("buy-%d", i))
			if buy {
				qty := rapid.Int64Range(1, 100).Draw(t, fmt.Sprintf("buyQty-%d", i))
				cents := rapid.Int64Range(1, 100000).Draw(t, fmt.Sprintf("price-%d", i))
				p.ApplyBuy("AAPL", qty, decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)))
			} else {
				qty := rapid.Int64Range(1, held).Draw(t, fmt.Sprintf("sellQty-%d", i))
				p.ApplySell("AAPL", qty)
			}

			pos := p.Positions["AAPL"]
			if pos.Quantity < 0 {
				t.Fatalf("quantity went negative: %d", pos.Quantity)
			}
			if pos.Quantity == 0 && !pos.AvgCost.IsZero() {
				t.Fatalf("flat position carries non-zero cost basis: %s", pos.AvgCost)
			}
			if pos.AvgCost.IsNegative() {
				t.Fatalf("cost basis went negative: %s", pos.AvgCost)
			}
		}
	})
}

// Property: buying the same total quantity in any split at a single
// price always yields that price as the average cost.
func TestProperty_SinglePriceAverageIsThatPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := decimal.NewFromInt(rapid.Int64Range(1, 10000).Draw(t, "priceCents")).Div(decimal.NewFromInt(100))
		splits := rapid.IntRange(1, 10).Draw(t, "splits")

		p := NewPortfolio("acct-1")
		for i := 0; i < splits; i++ {
			qty := rapid.Int64Range(1, 50).Draw(t, fmt.Sprintf("qty-%d", i))
			p.ApplyBuy("AAPL", qty, price)
		}

		pos := p.Positions["AAPL"]
		if !pos.AvgCost.Equal(price) {
			t.Fatalf("expected avg cost %s, got %s", price, pos.AvgCost)
		}
	})
}
