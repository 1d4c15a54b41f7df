package store

import (
	"sync"
	"time"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/shopspring/decimal"
)

// StockStore is a thread-safe in-memory store for stocks, keyed by symbol.
// It is the authority for "current price" queries and the registry of
// known symbols. Stocks are guarded by the store lock rather than a
// per-stock lock; Get returns a copy so callers never observe a price
// mid-update.
type StockStore struct {
	mu     sync.RWMutex
	stocks map[string]*domain.Stock
}

// NewStockStore creates an empty StockStore.
func NewStockStore() *StockStore {
	return &StockStore{
		stocks: make(map[string]*domain.Stock),
	}
}

// Create adds a stock to the store. It returns
// domain.ErrStockAlreadyExists if the symbol is already registered.
func (s *StockStore) Create(st *domain.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stocks[st.Symbol]; exists {
		return domain.ErrStockAlreadyExists
	}
	s.stocks[st.Symbol] = st
	return nil
}

// Get retrieves a stock by symbol. It returns a copy of the record and
// domain.ErrSymbolNotFound if the symbol is unknown.
func (s *StockStore) Get(symbol string) (domain.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stocks[symbol]
	if !ok {
		return domain.Stock{}, domain.ErrSymbolNotFound
	}
	return *st, nil
}

// CurrentPrice returns the current price for a symbol. It returns
// domain.ErrSymbolNotFound if the symbol is unknown.
func (s *StockStore) CurrentPrice(symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stocks[symbol]
	if !ok {
		return decimal.Zero, domain.ErrSymbolNotFound
	}
	return st.CurrentPrice, nil
}

// UpdatePrice sets a new current price for the symbol. It returns
// domain.ErrSymbolNotFound if the symbol is unknown.
func (s *StockStore) UpdatePrice(symbol string, price decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stocks[symbol]
	if !ok {
		return domain.ErrSymbolNotFound
	}
	st.CurrentPrice = price
	st.LastUpdated = now
	return nil
}

// Exists returns true if the symbol has been registered.
func (s *StockStore) Exists(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.stocks[symbol]
	return ok
}
