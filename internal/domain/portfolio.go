package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Position is an account's holding in a single symbol: share quantity plus
// the weighted-average cost paid per share. Quantity never goes negative,
// and a flat position always carries a zero cost basis.
type Position struct {
	Symbol   string
	Quantity int64
	AvgCost  decimal.Decimal
}

// Portfolio owns the positions of one account, keyed by symbol. Positions
// are mutated only by confirmed fills, under Mu.
type Portfolio struct {
	AccountID string
	Positions map[string]*Position
	Mu        sync.Mutex // per-portfolio lock for position mutations
}

// NewPortfolio creates an empty portfolio for the given account.
func NewPortfolio(accountID string) *Portfolio {
	return &Portfolio{
		AccountID: accountID,
		Positions: make(map[string]*Position),
	}
}

// Quantity returns the share quantity held in symbol, 0 when no position
// exists. The caller must hold Mu.
func (p *Portfolio) Quantity(symbol string) int64 {
	pos, ok := p.Positions[symbol]
	if !ok {
		return 0
	}
	return pos.Quantity
}

// HasSufficientShares reports whether the portfolio holds at least qty
// shares of symbol. The caller must hold Mu.
func (p *Portfolio) HasSufficientShares(symbol string, qty int64) bool {
	return p.Quantity(symbol) >= qty
}

// ApplyBuy adds qty shares at price and recomputes the weighted-average
// cost: (old_qty×old_avg + qty×price) / (old_qty+qty). The caller must
// hold Mu and must have verified the corresponding cash debit.
func (p *Portfolio) ApplyBuy(symbol string, qty int64, price decimal.Decimal) {
	pos, ok := p.Positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		p.Positions[symbol] = pos
	}

	oldQty := decimal.NewFromInt(pos.Quantity)
	addQty := decimal.NewFromInt(qty)
	totalCost := oldQty.Mul(pos.AvgCost).Add(addQty.Mul(price))

	pos.Quantity += qty
	pos.AvgCost = totalCost.Div(decimal.NewFromInt(pos.Quantity))
}

// ApplySell removes qty shares. The average cost is unchanged by sells;
// when the position reaches zero the cost basis resets to zero. The caller
// must hold Mu and must have verified qty does not exceed the holding.
func (p *Portfolio) ApplySell(symbol string, qty int64) {
	pos, ok := p.Positions[symbol]
	if !ok {
		return
	}
	pos.Quantity -= qty
	if pos.Quantity == 0 {
		pos.AvgCost = decimal.Zero
	}
}
