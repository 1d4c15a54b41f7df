package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

// PositionView is a single position valued at the current market price.
type PositionView struct {
	Symbol       string
	Quantity     int64
	AvgCost      decimal.Decimal
	CurrentPrice decimal.Decimal
	MarketValue  decimal.Decimal
}

// PortfolioResponse represents the response for the portfolio endpoint.
type PortfolioResponse struct {
	AccountID  string
	Positions  []PositionView
	TotalValue decimal.Decimal
	AsOf       time.Time
}

// PortfolioService handles portfolio and valuation queries.
type PortfolioService struct {
	portfolios *store.PortfolioStore
	stocks     *store.StockStore
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(portfolios *store.PortfolioStore, stocks *store.StockStore) *PortfolioService {
	return &PortfolioService{
		portfolios: portfolios,
		stocks:     stocks,
	}
}

// GetPortfolio returns the account's positions valued at current prices,
// plus the total portfolio value. Positions are snapshotted under the
// portfolio lock so quantities and cost bases are mutually consistent.
func (s *PortfolioService) GetPortfolio(accountID string) (*PortfolioResponse, error) {
	pf, err := s.portfolios.Get(accountID)
	if err != nil {
		return nil, err
	}

	pf.Mu.Lock()
	positions := make([]domain.Position, 0, len(pf.Positions))
	for _, pos := range pf.Positions {
		positions = append(positions, *pos)
	}
	pf.Mu.Unlock()

	views := make([]PositionView, 0, len(positions))
	total := decimal.Zero
	for _, pos := range positions {
		price, err := s.stocks.CurrentPrice(pos.Symbol)
		if err != nil {
			price = decimal.Zero
		}
		value := price.Mul(decimal.NewFromInt(pos.Quantity))
		total = total.Add(value)
		views = append(views, PositionView{
			Symbol:       pos.Symbol,
			Quantity:     pos.Quantity,
			AvgCost:      pos.AvgCost,
			CurrentPrice: price,
			MarketValue:  value,
		})
	}

	return &PortfolioResponse{
		AccountID:  accountID,
		Positions:  views,
		TotalValue: total,
		AsOf:       time.Now(),
	}, nil
}
