package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes market orders from limit orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderSide indicates whether an order buys or sells shares.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderStatus represents the lifecycle state of an order.
//
// PENDING is the initial state. Fills move an order through
// PARTIALLY_FILLED to FILLED. REJECTED is reached only from PENDING at
// validation time. CANCELLED is reached from PENDING or PARTIALLY_FILLED.
// FILLED, CANCELLED, and REJECTED are terminal: no further mutation of the
// order is permitted once reached.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// Order is a buy or sell instruction submitted against an account.
// Orders are never deleted; terminal orders remain in the order store
// for history.
type Order struct {
	OrderID        string
	AccountID      string
	Symbol         string
	Type           OrderType
	Side           OrderSide
	Quantity       int64
	LimitPrice     decimal.Decimal // zero for market orders
	FilledQuantity int64
	Status         OrderStatus
	RejectReason   string     // set only when Status == REJECTED
	ExpiresAt      *time.Time // optional, limit orders only
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CancelledAt    *time.Time
}

// RemainingQuantity returns the unfilled portion of the order.
func (o *Order) RemainingQuantity() int64 {
	return o.Quantity - o.FilledQuantity
}

// IsTerminal reports whether the order has reached a terminal state.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// Fill records an executed quantity and recomputes the status:
// FILLED exactly when filled_quantity == quantity, PARTIALLY_FILLED
// otherwise. The caller must hold the symbol's book lock and must not
// fill beyond the remaining quantity.
func (o *Order) Fill(qty int64, now time.Time) {
	o.FilledQuantity += qty
	if o.FilledQuantity == o.Quantity {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
	o.UpdatedAt = now
}

// Reject transitions a pending order to REJECTED with a reason.
func (o *Order) Reject(reason string, now time.Time) {
	o.Status = OrderStatusRejected
	o.RejectReason = reason
	o.UpdatedAt = now
}

// Cancel transitions a resting order to CANCELLED. The caller must have
// verified the order is not terminal.
func (o *Order) Cancel(now time.Time) {
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
}
