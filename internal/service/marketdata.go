package service

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/engine"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

var symbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)

// AddStockRequest represents the input for stock registration.
type AddStockRequest struct {
	Symbol       string
	CompanyName  string
	InitialPrice string // decimal string
}

// PriceUpdateResult reports the outcome of a price tick: the updated
// stock plus the resting orders the tick filled.
type PriceUpdateResult struct {
	Stock        domain.Stock
	FilledOrders []*domain.Order
}

// QuoteResponse estimates the cost or proceeds of a market order at the
// current price, without placing an order.
type QuoteResponse struct {
	Symbol         string
	Side           domain.OrderSide
	Quantity       int64
	CurrentPrice   decimal.Decimal
	EstimatedTotal decimal.Decimal
	QuotedAt       time.Time
}

// MarketDataService is the price-feed boundary: it registers stocks,
// answers current-price queries, and applies price ticks. Every tick
// re-triggers the symbol's resting orders through the engine.
type MarketDataService struct {
	stocks     *store.StockStore
	engine     *engine.Engine
	webhookSvc *WebhookService
}

// NewMarketDataService creates a new MarketDataService.
func NewMarketDataService(stocks *store.StockStore, eng *engine.Engine, webhookSvc *WebhookService) *MarketDataService {
	return &MarketDataService{
		stocks:     stocks,
		engine:     eng,
		webhookSvc: webhookSvc,
	}
}

// AddStock validates the request and registers a stock with its initial
// price.
func (s *MarketDataService) AddStock(req AddStockRequest) (domain.Stock, error) {
	if !symbolRegex.MatchString(req.Symbol) {
		return domain.Stock{}, &domain.ValidationError{
			Message: "symbol must match ^[A-Z]{1,10}$",
		}
	}
	if req.CompanyName == "" || len(req.CompanyName) > 128 {
		return domain.Stock{}, &domain.ValidationError{
			Message: "company_name must be 1-128 characters",
		}
	}
	price, err := s.parsePrice(req.InitialPrice)
	if err != nil {
		return domain.Stock{}, err
	}

	st := &domain.Stock{
		Symbol:       req.Symbol,
		CompanyName:  req.CompanyName,
		CurrentPrice: price,
		LastUpdated:  time.Now(),
	}
	if err := s.stocks.Create(st); err != nil {
		return domain.Stock{}, err
	}
	return *st, nil
}

// GetStock returns the stock record for a symbol.
func (s *MarketDataService) GetStock(symbol string) (domain.Stock, error) {
	return s.stocks.Get(symbol)
}

// UpdatePrice applies a price tick: it validates and stores the new
// price, then re-triggers the symbol's resting orders. Orders filled by
// the tick are included in the result, with order.filled notifications
// dispatched for each.
func (s *MarketDataService) UpdatePrice(symbol, price string) (*PriceUpdateResult, error) {
	d, err := s.parsePrice(price)
	if err != nil {
		return nil, err
	}

	if err := s.stocks.UpdatePrice(symbol, d, time.Now()); err != nil {
		return nil, err
	}

	filled := s.engine.OnPriceChanged(symbol)

	if s.webhookSvc != nil {
		for _, o := range filled {
			if o.Status == domain.OrderStatusFilled {
				s.webhookSvc.DispatchOrderFilled(o)
			}
		}
	}

	st, err := s.stocks.Get(symbol)
	if err != nil {
		return nil, err
	}
	return &PriceUpdateResult{Stock: st, FilledOrders: filled}, nil
}

// Quote estimates a market order's total at the current price.
func (s *MarketDataService) Quote(symbol string, side domain.OrderSide, quantity int64) (*QuoteResponse, error) {
	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'BUY' or 'SELL'",
		}
	}
	if quantity <= 0 {
		return nil, &domain.ValidationError{
			Message: "quantity must be a positive integer",
		}
	}

	price, err := s.stocks.CurrentPrice(symbol)
	if err != nil {
		return nil, err
	}

	return &QuoteResponse{
		Symbol:         symbol,
		Side:           side,
		Quantity:       quantity,
		CurrentPrice:   price,
		EstimatedTotal: price.Mul(decimal.NewFromInt(quantity)),
		QuotedAt:       time.Now(),
	}, nil
}

func (s *MarketDataService) parsePrice(price string) (decimal.Decimal, error) {
	d, err := domain.ParseMoney(price)
	if err != nil {
		return decimal.Zero, &domain.ValidationError{Message: err.Error()}
	}
	if !d.IsPositive() {
		return decimal.Zero, &domain.ValidationError{
			Message: "price must be greater than 0",
		}
	}
	return d, nil
}
