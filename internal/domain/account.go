package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a customer's cash balance. All balance mutations happen
// under Mu, and the balance never goes negative: every debit is preceded
// by a sufficiency check under the same lock acquisition.
type Account struct {
	AccountID  string
	OwnerName  string
	OwnerEmail string
	Balance    decimal.Decimal
	CreatedAt  time.Time
	Mu         sync.Mutex // per-account lock for balance mutations
}

// HasSufficientBalance reports whether the balance covers the given amount.
// The caller must hold Mu.
func (a *Account) HasSufficientBalance(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
