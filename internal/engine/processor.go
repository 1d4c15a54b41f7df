package engine

import (
	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/shopspring/decimal"
)

// ExecutionPlan is a processor's decision to execute part or all of an
// order at a price. Plans carry no side effects; the engine applies them
// through the commit protocol.
type ExecutionPlan struct {
	ExecuteQuantity int64
	ExecutePrice    decimal.Decimal
}

// OrderProcessor encapsulates the execution-eligibility and fill-price
// rule for one order type. Evaluate is a pure decision function: it never
// mutates the order and returns nil when the order is not eligible at the
// given price.
type OrderProcessor interface {
	Evaluate(order *domain.Order, currentPrice decimal.Decimal) *ExecutionPlan
}

// marketOrderProcessor executes the full remaining quantity at the
// current market price. Market orders are always eligible; fund and
// share sufficiency is enforced by the commit protocol.
type marketOrderProcessor struct{}

func (marketOrderProcessor) Evaluate(order *domain.Order, currentPrice decimal.Decimal) *ExecutionPlan {
	return &ExecutionPlan{
		ExecuteQuantity: order.RemainingQuantity(),
		ExecutePrice:    currentPrice,
	}
}

// limitOrderProcessor executes when the market has reached the limit:
// current ≤ limit for buys, current ≥ limit for sells. The fill price is
// the limit price itself; price improvement is not passed through.
type limitOrderProcessor struct{}

func (limitOrderProcessor) Evaluate(order *domain.Order, currentPrice decimal.Decimal) *ExecutionPlan {
	eligible := false
	switch order.Side {
	case domain.OrderSideBuy:
		eligible = currentPrice.LessThanOrEqual(order.LimitPrice)
	case domain.OrderSideSell:
		eligible = currentPrice.GreaterThanOrEqual(order.LimitPrice)
	}
	if !eligible {
		return nil
	}
	return &ExecutionPlan{
		ExecuteQuantity: order.RemainingQuantity(),
		ExecutePrice:    order.LimitPrice,
	}
}

// processors dispatches order types to their strategy.
var processors = map[domain.OrderType]OrderProcessor{
	domain.OrderTypeMarket: marketOrderProcessor{},
	domain.OrderTypeLimit:  limitOrderProcessor{},
}

// ProcessorFor returns the processor for the given order type.
func ProcessorFor(t domain.OrderType) (OrderProcessor, bool) {
	p, ok := processors[t]
	return p, ok
}
