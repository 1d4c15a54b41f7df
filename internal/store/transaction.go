package store

import (
	"sync"

	"github.com/OliverLengLLL/brokerage/internal/domain"
)

// TransactionStore is a thread-safe append-only store for audit facts,
// keyed by account_id. Transactions are chronological and never mutated
// after being appended.
type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[string][]*domain.Transaction // account_id → facts (chronological)
}

// NewTransactionStore creates an empty TransactionStore.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		transactions: make(map[string][]*domain.Transaction),
	}
}

// Append adds a fact to the account's chronological list.
func (s *TransactionStore) Append(t *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions[t.AccountID] = append(s.transactions[t.AccountID], t)
}

// ListByAccount returns all facts for an account in chronological order.
// Returns an empty slice if the account has no transactions.
func (s *TransactionStore) ListByAccount(accountID string) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := s.transactions[accountID]
	if txs == nil {
		return []*domain.Transaction{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Transaction, len(txs))
	copy(result, txs)
	return result
}
