package domain

import (
	"testing"
	"time"
)

func newTestOrder(qty int64) *Order {
	now := time.Now()
	return &Order{
		OrderID:   "order-1",
		AccountID: "acct-1",
		Symbol:    "AAPL",
		Type:      OrderTypeMarket,
		Side:      OrderSideBuy,
		Quantity:  qty,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderFill_FullFill(t *testing.T) {
	o := newTestOrder(5)
	o.Fill(5, time.Now())

	if o.Status != OrderStatusFilled {
		t.Errorf("expected status FILLED, got %s", o.Status)
	}
	if o.FilledQuantity != 5 {
		t.Errorf("expected filled_quantity 5, got %d", o.FilledQuantity)
	}
	if o.RemainingQuantity() != 0 {
		t.Errorf("expected remaining 0, got %d", o.RemainingQuantity())
	}
}

func TestOrderFill_PartialFill(t *testing.T) {
	o := newTestOrder(10)
	o.Fill(3, time.Now())

	if o.Status != OrderStatusPartiallyFilled {
		t.Errorf("expected status PARTIALLY_FILLED, got %s", o.Status)
	}
	if o.RemainingQuantity() != 7 {
		t.Errorf("expected remaining 7, got %d", o.RemainingQuantity())
	}
}

func TestOrderFill_PartialThenFull(t *testing.T) {
	o := newTestOrder(10)
	o.Fill(3, time.Now())
	o.Fill(7, time.Now())

	if o.Status != OrderStatusFilled {
		t.Errorf("expected status FILLED, got %s", o.Status)
	}
	if o.FilledQuantity != 10 {
		t.Errorf("expected filled_quantity 10, got %d", o.FilledQuantity)
	}
}

func TestOrderReject(t *testing.T) {
	o := newTestOrder(5)
	o.Reject("unknown symbol: FAKE", time.Now())

	if o.Status != OrderStatusRejected {
		t.Errorf("expected status REJECTED, got %s", o.Status)
	}
	if o.RejectReason != "unknown symbol: FAKE" {
		t.Errorf("expected reject reason preserved, got %q", o.RejectReason)
	}
	if !o.IsTerminal() {
		t.Error("rejected order should be terminal")
	}
}

func TestOrderCancel(t *testing.T) {
	o := newTestOrder(5)
	now := time.Now()
	o.Cancel(now)

	if o.Status != OrderStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", o.Status)
	}
	if o.CancelledAt == nil || !o.CancelledAt.Equal(now) {
		t.Errorf("expected cancelled_at %v, got %v", now, o.CancelledAt)
	}
	if !o.IsTerminal() {
		t.Error("cancelled order should be terminal")
	}
}

func TestOrderCancel_PartiallyFilledKeepsFills(t *testing.T) {
	o := newTestOrder(10)
	o.Fill(4, time.Now())
	o.Cancel(time.Now())

	if o.Status != OrderStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", o.Status)
	}
	if o.FilledQuantity != 4 {
		t.Errorf("expected filled_quantity preserved at 4, got %d", o.FilledQuantity)
	}
}

func TestOrderIsTerminal(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, false},
		{OrderStatusPartiallyFilled, false},
		{OrderStatusFilled, true},
		{OrderStatusCancelled, true},
		{OrderStatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := newTestOrder(1)
			o.Status = tt.status
			if got := o.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() with %s = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
