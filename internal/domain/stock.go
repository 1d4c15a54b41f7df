package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock holds a symbol's identity and current market price. The price is
// mutated only by price-feed updates, guarded by the StockStore's lock.
type Stock struct {
	Symbol       string
	CompanyName  string
	CurrentPrice decimal.Decimal // always > 0
	LastUpdated  time.Time
}
