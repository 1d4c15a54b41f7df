package store

import (
	"sync"

	"github.com/OliverLengLLL/brokerage/internal/domain"
)

// PortfolioStore is a thread-safe in-memory store for portfolios,
// keyed by account_id. A portfolio is created at account-opening time
// and lives for the account's lifetime.
type PortfolioStore struct {
	mu         sync.RWMutex
	portfolios map[string]*domain.Portfolio
}

// NewPortfolioStore creates an empty PortfolioStore.
func NewPortfolioStore() *PortfolioStore {
	return &PortfolioStore{
		portfolios: make(map[string]*domain.Portfolio),
	}
}

// Create adds a portfolio for the given account. Creating twice for the
// same account is a programming error; the second call is ignored.
func (s *PortfolioStore) Create(p *domain.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.portfolios[p.AccountID]; exists {
		return
	}
	s.portfolios[p.AccountID] = p
}

// Get retrieves the portfolio for an account. It returns
// domain.ErrAccountNotFound if no portfolio exists for the account.
func (s *PortfolioStore) Get(accountID string) (*domain.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portfolios[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return p, nil
}
