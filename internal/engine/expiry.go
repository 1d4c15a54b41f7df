package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/OliverLengLLL/brokerage/internal/domain"
)

// CancelDispatcher is an interface for dispatching cancellation
// notifications from the engine layer without depending on the service
// layer directly.
type CancelDispatcher interface {
	DispatchOrderCancelled(order *domain.Order)
}

// ExpirySweeper tracks resting limit orders that carry an expires_at and
// periodically cancels orders whose expiration time has passed. Expiry is
// layered on top of the core engine as a cancellation sweep; expired
// orders end in the CANCELLED state.
type ExpirySweeper struct {
	interval     time.Duration
	books        *BookManager
	dispatcher   CancelDispatcher
	activeOrders []*domain.Order // sorted by expires_at ASC
	mu           sync.Mutex      // protects activeOrders slice
}

// NewExpirySweeper creates an ExpirySweeper with the given dependencies.
func NewExpirySweeper(interval time.Duration, books *BookManager, dispatcher CancelDispatcher) *ExpirySweeper {
	return &ExpirySweeper{
		interval:     interval,
		books:        books,
		dispatcher:   dispatcher,
		activeOrders: make([]*domain.Order, 0),
	}
}

// Add inserts an order into the sorted activeOrders slice, maintaining
// expires_at ASC order. Only call this for limit orders that rest on the
// book with an expiry set.
func (e *ExpirySweeper) Add(order *domain.Order) {
	if order.ExpiresAt == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	expiresAt := *order.ExpiresAt
	// Binary search for the insertion point.
	idx := sort.Search(len(e.activeOrders), func(i int) bool {
		return e.activeOrders[i].ExpiresAt.After(expiresAt)
	})
	e.activeOrders = append(e.activeOrders, nil)
	copy(e.activeOrders[idx+1:], e.activeOrders[idx:])
	e.activeOrders[idx] = order
}

// Remove deletes an order from the activeOrders slice by order ID.
func (e *ExpirySweeper) Remove(orderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, o := range e.activeOrders {
		if o.OrderID == orderID {
			e.activeOrders = append(e.activeOrders[:i], e.activeOrders[i+1:]...)
			return
		}
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and sweeps expired orders. It stops when ctx is cancelled.
func (e *ExpirySweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				e.tick(t)
			}
		}
	}()
}

// tick iterates from the front of the sorted activeOrders slice and
// sweeps all orders where expires_at <= now.
func (e *ExpirySweeper) tick(now time.Time) {
	e.mu.Lock()
	var toCancel []*domain.Order
	cutoff := 0
	for cutoff < len(e.activeOrders) {
		o := e.activeOrders[cutoff]
		if o.ExpiresAt == nil || o.ExpiresAt.After(now) {
			break
		}
		toCancel = append(toCancel, o)
		cutoff++
	}
	if cutoff > 0 {
		e.activeOrders = e.activeOrders[cutoff:]
	}
	e.mu.Unlock()

	for _, order := range toCancel {
		e.sweepOrder(order)
	}
}

// sweepOrder cancels a single expired order: acquires the per-symbol
// lock, re-checks status, removes the order from the book, marks it
// cancelled, and fires the notification outside the lock.
func (e *ExpirySweeper) sweepOrder(order *domain.Order) {
	book := e.books.GetOrCreate(order.Symbol)
	book.mu.Lock()

	// Re-check status (may have been filled or cancelled since last check).
	if order.IsTerminal() {
		book.mu.Unlock()
		return
	}

	book.Remove(order.OrderID)
	order.Cancel(time.Now())

	// Release the per-symbol lock before dispatch to avoid blocking the
	// engine on network I/O.
	book.mu.Unlock()

	if e.dispatcher != nil {
		e.dispatcher.DispatchOrderCancelled(order)
	}
}

// ActiveOrderCount returns the number of orders currently tracked for
// expiry. Useful for testing.
func (e *ExpirySweeper) ActiveOrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.activeOrders)
}
