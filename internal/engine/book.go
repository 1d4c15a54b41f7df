package engine

import (
	"sync"
	"time"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/google/btree"
)

// OrderBookEntry represents a single order resting on the book.
type OrderBookEntry struct {
	CreatedAt time.Time
	OrderID   string
	Order     *domain.Order
}

// entryLess defines FIFO ordering: created_at ascending, then order_id
// ascending as the tie-break for identical timestamps. There is no price
// ladder — orders execute against the feed price, not against each other,
// so submission time is the only priority.
func entryLess(a, b OrderBookEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// OrderBook holds the resting (non-terminal limit) orders for a single
// symbol, partitioned into buy and sell queues. Each queue is a B-tree in
// FIFO order with a secondary index for O(log n) removal by order ID.
//
// The book's mutex is the serialization point for admission, price-tick
// re-evaluation, and cancellation of the symbol's orders.
type OrderBook struct {
	symbol string
	mu     sync.Mutex
	buys   *btree.BTreeG[OrderBookEntry]
	sells  *btree.BTreeG[OrderBookEntry]
	index  map[string]OrderBookEntry // order_id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		buys:   btree.NewG[OrderBookEntry](degree, entryLess),
		sells:  btree.NewG[OrderBookEntry](degree, entryLess),
		index:  make(map[string]OrderBookEntry),
	}
}

// Insert adds an entry to the side matching the order's side.
func (ob *OrderBook) Insert(entry OrderBookEntry) {
	if entry.Order.Side == domain.OrderSideBuy {
		ob.buys.ReplaceOrInsert(entry)
	} else {
		ob.sells.ReplaceOrInsert(entry)
	}
	ob.index[entry.OrderID] = entry
}

// Remove deletes an order from the book by order ID using the
// secondary index. It tries both sides since the caller may not
// know which side the order is on.
func (ob *OrderBook) Remove(orderID string) {
	entry, ok := ob.index[orderID]
	if !ok {
		return
	}
	delete(ob.index, orderID)
	// Delete is a no-op if the entry isn't found on a side.
	ob.buys.Delete(entry)
	ob.sells.Delete(entry)
}

// Contains reports whether the order is resting on the book.
func (ob *OrderBook) Contains(orderID string) bool {
	_, ok := ob.index[orderID]
	return ok
}

// Resting returns all resting entries across both sides merged into a
// single FIFO sequence (created_at ascending, order_id tie-break). The
// result is a snapshot: callers may remove entries while iterating it.
func (ob *OrderBook) Resting() []OrderBookEntry {
	buys := make([]OrderBookEntry, 0, ob.buys.Len())
	ob.buys.Ascend(func(e OrderBookEntry) bool {
		buys = append(buys, e)
		return true
	})
	sells := make([]OrderBookEntry, 0, ob.sells.Len())
	ob.sells.Ascend(func(e OrderBookEntry) bool {
		sells = append(sells, e)
		return true
	})

	// Both slices are already FIFO-ordered; merge them.
	merged := make([]OrderBookEntry, 0, len(buys)+len(sells))
	i, j := 0, 0
	for i < len(buys) && j < len(sells) {
		if entryLess(buys[i], sells[j]) {
			merged = append(merged, buys[i])
			i++
		} else {
			merged = append(merged, sells[j])
			j++
		}
	}
	merged = append(merged, buys[i:]...)
	merged = append(merged, sells[j:]...)
	return merged
}

// BuyCount returns the number of resting buy orders.
func (ob *OrderBook) BuyCount() int {
	return ob.buys.Len()
}

// SellCount returns the number of resting sell orders.
func (ob *OrderBook) SellCount() int {
	return ob.sells.Len()
}

// BookManager is a thread-safe map of symbol → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[string]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(symbol string) *OrderBook {
	bm.mu.RLock()
	book, ok := bm.books[symbol]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = bm.books[symbol]; ok {
		return book
	}
	book = NewOrderBook(symbol)
	bm.books[symbol] = book
	return book
}
