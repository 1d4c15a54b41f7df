package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

// Engine executes orders against the price feed. It owns admission of new
// orders, re-evaluation of resting orders on price ticks, and cancellation.
// All three funnel through the per-symbol book lock, so a resting order is
// evaluated exactly once per price change and never double-filled.
type Engine struct {
	books      *BookManager
	accounts   *store.AccountStore
	portfolios *store.PortfolioStore
	orders     *store.OrderStore
	stocks     *store.StockStore
	audit      *store.TransactionStore
}

// NewEngine creates an Engine with the given dependencies.
func NewEngine(
	books *BookManager,
	accounts *store.AccountStore,
	portfolios *store.PortfolioStore,
	orders *store.OrderStore,
	stocks *store.StockStore,
	audit *store.TransactionStore,
) *Engine {
	return &Engine{
		books:      books,
		accounts:   accounts,
		portfolios: portfolios,
		orders:     orders,
		stocks:     stocks,
		audit:      audit,
	}
}

// Admit records a validated order and runs its processor once against the
// current price. If a plan is produced it is committed immediately; a
// commit failure at submission time rejects the order outright (market
// orders never rest, and limit orders must be covered when they enter).
// An ineligible limit order rests on the book awaiting a price tick.
//
// The caller must provide an order with OrderID, CreatedAt, and status
// PENDING already set. The per-symbol lock is held for the entire pass.
func (e *Engine) Admit(order *domain.Order) error {
	book := e.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	price, err := e.stocks.CurrentPrice(order.Symbol)
	if err != nil {
		return err
	}

	e.orders.Create(order)

	proc, ok := ProcessorFor(order.Type)
	if !ok {
		order.Reject("unknown order type", time.Now())
		return nil
	}

	plan := proc.Evaluate(order, price)
	if plan == nil {
		book.Insert(OrderBookEntry{
			CreatedAt: order.CreatedAt,
			OrderID:   order.OrderID,
			Order:     order,
		})
		return nil
	}

	if err := e.commit(order, plan); err != nil {
		order.Reject(err.Error(), time.Now())
	}
	return nil
}

// OnPriceChanged re-evaluates the symbol's resting orders in FIFO order
// against the new current price. Each order that becomes eligible is
// committed and removed from the resting set. An order whose funds or
// shares are insufficient at this tick is skipped, not failed — it stays
// resting since conditions may change again.
//
// Returns the orders filled by this tick.
func (e *Engine) OnPriceChanged(symbol string) []*domain.Order {
	book := e.books.GetOrCreate(symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	price, err := e.stocks.CurrentPrice(symbol)
	if err != nil {
		return nil
	}

	var filled []*domain.Order
	for _, entry := range book.Resting() {
		order := entry.Order

		proc, ok := ProcessorFor(order.Type)
		if !ok {
			continue
		}
		plan := proc.Evaluate(order, price)
		if plan == nil {
			continue
		}
		if err := e.commit(order, plan); err != nil {
			continue
		}
		if order.IsTerminal() {
			book.Remove(order.OrderID)
		}
		filled = append(filled, order)
	}
	return filled
}

// Cancel cancels a pending or partially filled order. It acquires the
// per-symbol lock, re-validates the order status, removes the order from
// the book, and marks it cancelled.
//
// Returns ErrOrderNotFound if the order does not exist.
// Returns ErrOrderNotCancellable if the order is already terminal — a
// cancel that loses the race against a just-committed fill observes the
// terminal state rather than silently cancelling it.
func (e *Engine) Cancel(orderID string) (*domain.Order, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	if order.IsTerminal() {
		return nil, domain.ErrOrderNotCancellable
	}

	book := e.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	// Re-check under lock — a concurrent tick may have filled it.
	if order.IsTerminal() {
		return nil, domain.ErrOrderNotCancellable
	}

	book.Remove(order.OrderID)
	order.Cancel(time.Now())

	return order, nil
}

// commit applies an execution plan as a single unit: the cash mutation,
// the position mutation, the order fill, and the audit fact either all
// happen or none do. The account and portfolio locks are held for the
// full duration, so the balance/share check and the corresponding
// mutation are atomic, never merely ordered.
//
// Lock acquisition order is fixed — book (held by the caller), then
// account, then portfolio — to prevent deadlock between price-tick
// re-evaluation and new-order admission.
func (e *Engine) commit(order *domain.Order, plan *ExecutionPlan) error {
	acct, err := e.accounts.Get(order.AccountID)
	if err != nil {
		return err
	}
	pf, err := e.portfolios.Get(order.AccountID)
	if err != nil {
		return err
	}

	cost := plan.ExecutePrice.Mul(decimal.NewFromInt(plan.ExecuteQuantity))
	now := time.Now()

	acct.Mu.Lock()
	defer acct.Mu.Unlock()
	pf.Mu.Lock()
	defer pf.Mu.Unlock()

	var txType domain.TransactionType
	switch order.Side {
	case domain.OrderSideBuy:
		if !acct.HasSufficientBalance(cost) {
			return domain.ErrInsufficientFunds
		}
		acct.Balance = acct.Balance.Sub(cost)
		pf.ApplyBuy(order.Symbol, plan.ExecuteQuantity, plan.ExecutePrice)
		txType = domain.TransactionTypeBuy
	case domain.OrderSideSell:
		if !pf.HasSufficientShares(order.Symbol, plan.ExecuteQuantity) {
			return domain.ErrInsufficientShares
		}
		acct.Balance = acct.Balance.Add(cost)
		pf.ApplySell(order.Symbol, plan.ExecuteQuantity)
		txType = domain.TransactionTypeSell
	}

	order.Fill(plan.ExecuteQuantity, now)

	e.audit.Append(&domain.Transaction{
		TransactionID: uuid.New().String(),
		AccountID:     order.AccountID,
		Type:          txType,
		Amount:        cost,
		Symbol:        order.Symbol,
		Quantity:      plan.ExecuteQuantity,
		Timestamp:     now,
	})

	return nil
}
