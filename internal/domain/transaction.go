package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies an audit fact.
type TransactionType string

const (
	TransactionTypeBuy        TransactionType = "BUY"
	TransactionTypeSell       TransactionType = "SELL"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Transaction is an append-only audit fact recording a committed cash or
// share movement. Transactions are never consulted for decisions.
type Transaction struct {
	TransactionID string
	AccountID     string
	Type          TransactionType
	Amount        decimal.Decimal
	Symbol        string // empty for DEPOSIT/WITHDRAWAL
	Quantity      int64  // 0 for DEPOSIT/WITHDRAWAL
	Timestamp     time.Time
}
