package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/engine"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

// ValidOrderStatuses lists all valid order status values for filtering.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:         true,
	domain.OrderStatusPartiallyFilled: true,
	domain.OrderStatusFilled:          true,
	domain.OrderStatusCancelled:       true,
	domain.OrderStatusRejected:        true,
}

// PlaceOrderRequest represents the input for order placement.
type PlaceOrderRequest struct {
	AccountID  string
	Symbol     string
	Type       domain.OrderType
	Side       domain.OrderSide
	Quantity   int64
	LimitPrice *string    // decimal string, required for limit orders
	ExpiresAt  *time.Time // optional, limit orders only
}

// OrderService is the public entry point for order flow: it validates,
// records rejected orders, routes accepted orders into the engine, and
// layers expiry tracking and notifications on top.
type OrderService struct {
	engine     *engine.Engine
	sweeper    *engine.ExpirySweeper
	accounts   *store.AccountStore
	portfolios *store.PortfolioStore
	stocks     *store.StockStore
	orders     *store.OrderStore
	webhookSvc *WebhookService
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(
	eng *engine.Engine,
	sweeper *engine.ExpirySweeper,
	accounts *store.AccountStore,
	portfolios *store.PortfolioStore,
	stocks *store.StockStore,
	orders *store.OrderStore,
	webhookSvc *WebhookService,
) *OrderService {
	return &OrderService{
		engine:     eng,
		sweeper:    sweeper,
		accounts:   accounts,
		portfolios: portfolios,
		stocks:     stocks,
		orders:     orders,
		webhookSvc: webhookSvc,
	}
}

// PlaceOrder validates the request and routes the order into the engine.
// Malformed requests (unknown enum values, unparseable prices, bad expiry)
// fail with a ValidationError and create nothing. Well-formed orders that
// fail a business rule — non-positive quantity, missing limit price,
// unknown symbol, uncovered sell, uncovered limit buy — are recorded as
// REJECTED with a reason and returned without error, per the order
// lifecycle: a rejected order is still an order.
//
// The returned order is in its resulting state: REJECTED, FILLED,
// PARTIALLY_FILLED, or PENDING (resting).
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (*domain.Order, error) {
	if req.Type != domain.OrderTypeMarket && req.Type != domain.OrderTypeLimit {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown order type %q, must be one of: MARKET, LIMIT", req.Type),
		}
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'BUY' or 'SELL'",
		}
	}
	if !symbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z]{1,10}$",
		}
	}

	if req.Type == domain.OrderTypeMarket {
		if req.LimitPrice != nil {
			return nil, &domain.ValidationError{
				Message: "market orders must not include limit_price",
			}
		}
		if req.ExpiresAt != nil {
			return nil, &domain.ValidationError{
				Message: "market orders must not include expires_at",
			}
		}
	}

	var limitPrice decimal.Decimal
	if req.Type == domain.OrderTypeLimit && req.LimitPrice != nil {
		d, err := domain.ParseMoney(*req.LimitPrice)
		if err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		limitPrice = d
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		return nil, &domain.ValidationError{
			Message: "expires_at must be a future timestamp",
		}
	}

	// Unknown accounts surface as a failed call, never as a rejected order.
	if !s.accounts.Exists(req.AccountID) {
		return nil, domain.ErrAccountNotFound
	}

	now := time.Now()
	order := &domain.Order{
		OrderID:    uuid.New().String(),
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		Type:       req.Type,
		Side:       req.Side,
		Quantity:   req.Quantity,
		LimitPrice: limitPrice,
		Status:     domain.OrderStatusPending,
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if reason := s.rejectionReason(req, limitPrice); reason != "" {
		order.Reject(reason, now)
		s.orders.Create(order)
		return order, nil
	}

	if err := s.engine.Admit(order); err != nil {
		return nil, err
	}

	switch order.Status {
	case domain.OrderStatusPending, domain.OrderStatusPartiallyFilled:
		s.sweeper.Add(order)
	case domain.OrderStatusFilled:
		if s.webhookSvc != nil {
			s.webhookSvc.DispatchOrderFilled(order)
		}
	}

	return order, nil
}

// rejectionReason applies the business rules that turn a well-formed
// request into a REJECTED order. The fund and share checks here are
// submission-time gates against current holdings; the commit protocol
// re-checks them atomically since time may have passed.
func (s *OrderService) rejectionReason(req PlaceOrderRequest, limitPrice decimal.Decimal) string {
	if req.Quantity <= 0 {
		return "quantity must be greater than 0"
	}

	if req.Type == domain.OrderTypeLimit {
		if req.LimitPrice == nil {
			return "limit_price is required for limit orders"
		}
		if !limitPrice.IsPositive() {
			return "limit_price must be greater than 0"
		}
	}

	if !s.stocks.Exists(req.Symbol) {
		return "unknown symbol: " + req.Symbol
	}

	if req.Side == domain.OrderSideSell {
		pf, err := s.portfolios.Get(req.AccountID)
		if err != nil {
			return "no portfolio for account"
		}
		pf.Mu.Lock()
		covered := pf.HasSufficientShares(req.Symbol, req.Quantity)
		pf.Mu.Unlock()
		if !covered {
			return "insufficient shares: short selling is not permitted"
		}
	}

	if req.Side == domain.OrderSideBuy && req.Type == domain.OrderTypeLimit {
		required := limitPrice.Mul(decimal.NewFromInt(req.Quantity))
		acct, err := s.accounts.Get(req.AccountID)
		if err != nil {
			return "account not found"
		}
		acct.Mu.Lock()
		covered := acct.HasSufficientBalance(required)
		acct.Mu.Unlock()
		if !covered {
			return "insufficient funds to cover limit order"
		}
	}

	return ""
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(orderID string) (*domain.Order, error) {
	return s.orders.Get(orderID)
}

// CancelOrder cancels a pending or partially filled order. Cancelling an
// order that is already terminal reports the existing state via
// ErrOrderNotCancellable; it never double-applies.
func (s *OrderService) CancelOrder(orderID string) (*domain.Order, error) {
	order, err := s.engine.Cancel(orderID)
	if err != nil {
		return nil, err
	}

	s.sweeper.Remove(orderID)

	if s.webhookSvc != nil {
		s.webhookSvc.DispatchOrderCancelled(order)
	}

	return order, nil
}

// ListOrders returns a paginated list of orders for an account with
// optional status filtering.
func (s *OrderService) ListOrders(accountID string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int, error) {
	if !s.accounts.Exists(accountID) {
		return nil, 0, domain.ErrAccountNotFound
	}

	if status != nil && !ValidOrderStatuses[*status] {
		return nil, 0, &domain.ValidationError{
			Message: fmt.Sprintf("invalid status filter %q", *status),
		}
	}

	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 100",
		}
	}

	orders, total := s.orders.ListByAccount(accountID, status, page, limit)
	return orders, total, nil
}
