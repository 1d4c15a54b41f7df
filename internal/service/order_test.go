package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/engine"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

// testStack bundles the fully wired service layer for tests.
type testStack struct {
	accounts   *store.AccountStore
	portfolios *store.PortfolioStore
	stocks     *store.StockStore
	orders     *store.OrderStore
	audit      *store.TransactionStore
	eng        *engine.Engine
	sweeper    *engine.ExpirySweeper
	orderSvc   *OrderService
	accountSvc *AccountService
	marketSvc  *MarketDataService
}

func newTestStack() *testStack {
	accounts := store.NewAccountStore()
	portfolios := store.NewPortfolioStore()
	stocks := store.NewStockStore()
	orders := store.NewOrderStore()
	audit := store.NewTransactionStore()
	books := engine.NewBookManager()
	eng := engine.NewEngine(books, accounts, portfolios, orders, stocks, audit)
	sweeper := engine.NewExpirySweeper(time.Second, books, nil)

	return &testStack{
		accounts:   accounts,
		portfolios: portfolios,
		stocks:     stocks,
		orders:     orders,
		audit:      audit,
		eng:        eng,
		sweeper:    sweeper,
		orderSvc:   NewOrderService(eng, sweeper, accounts, portfolios, stocks, orders, nil),
		accountSvc: NewAccountService(accounts, portfolios, audit, nil),
		marketSvc:  NewMarketDataService(stocks, eng, nil),
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strp(s string) *string { return &s }

// openFundedAccount opens an account with the given balance and returns
// its ID.
func (ts *testStack) openFundedAccount(t *testing.T, balance string) string {
	t.Helper()
	acct, err := ts.accountSvc.Open(OpenAccountRequest{
		OwnerName:      "Test Owner",
		OwnerEmail:     "owner@example.com",
		InitialBalance: &balance,
	})
	if err != nil {
		t.Fatalf("open account failed: %v", err)
	}
	return acct.AccountID
}

func (ts *testStack) addStock(t *testing.T, symbol, price string) {
	t.Helper()
	_, err := ts.marketSvc.AddStock(AddStockRequest{
		Symbol:       symbol,
		CompanyName:  symbol + " Inc.",
		InitialPrice: price,
	})
	if err != nil {
		t.Fatalf("add stock failed: %v", err)
	}
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "1000.00")
	ts.addStock(t, "AAPL", "150.00")

	past := time.Now().Add(-time.Hour)
	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"unknown type", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: "STOP", Side: domain.OrderSideBuy, Quantity: 1}},
		{"unknown side", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeMarket, Side: "HOLD", Quantity: 1}},
		{"lowercase symbol", PlaceOrderRequest{AccountID: acctID, Symbol: "aapl", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: 1}},
		{"symbol too long", PlaceOrderRequest{AccountID: acctID, Symbol: "ABCDEFGHIJK", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: 1}},
		{"market with limit price", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: 1, LimitPrice: strp("150.00")}},
		{"market with expiry", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: 1, ExpiresAt: &past}},
		{"unparseable limit price", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: 1, LimitPrice: strp("abc")}},
		{"limit price excess precision", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: 1, LimitPrice: strp("150.001")}},
		{"past expiry", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: 1, LimitPrice: strp("140.00"), ExpiresAt: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.orderSvc.PlaceOrder(tt.req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestPlaceOrder_UnknownAccount(t *testing.T) {
	ts := newTestStack()
	ts.addStock(t, "AAPL", "150.00")

	_, err := ts.orderSvc.PlaceOrder(PlaceOrderRequest{
		AccountID: "missing",
		Symbol:    "AAPL",
		Type:      domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  1,
	})
	if err != domain.ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPlaceOrder_BusinessRuleRejections(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "100.00")
	ts.addStock(t, "AAPL", "150.00")

	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"zero quantity", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: 0}},
		{"negative quantity", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: -3}},
		{"limit without price", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: 1}},
		{"zero limit price", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: 1, LimitPrice: strp("0")}},
		{"unknown symbol", PlaceOrderRequest{AccountID: acctID, Symbol: "FAKE", Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Quantity: 1}},
		{"short sell", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeMarket, Side: domain.OrderSideSell, Quantity: 1}},
		{"uncovered limit buy", PlaceOrderRequest{AccountID: acctID, Symbol: "AAPL", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Quantity: 10, LimitPrice: strp("140.00")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := ts.orderSvc.PlaceOrder(tt.req)
			if err != nil {
				t.Fatalf("business-rule failure must not error, got %v", err)
			}
			if order.Status != domain.OrderStatusRejected {
				t.Errorf("expected status REJECTED, got %s", order.Status)
			}
			if order.RejectReason == "" {
				t.Error("expected reject reason to be set")
			}
			// Rejected orders are still recorded.
			if _, err := ts.orderSvc.GetOrder(order.OrderID); err != nil {
				t.Errorf("rejected order must be retrievable: %v", err)
			}
		})
	}
}

func TestPlaceOrder_MarketBuy_Fills(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "1000.00")
	ts.addStock(t, "AAPL", "150.00")

	order, err := ts.orderSvc.PlaceOrder(PlaceOrderRequest{
		AccountID: acctID,
		Symbol:    "AAPL",
		Type:      domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusFilled {
		t.Errorf("expected status FILLED, got %s", order.Status)
	}

	balance, _ := ts.accountSvc.GetBalance(acctID)
	if !balance.Balance.Equal(dec("250")) {
		t.Errorf("expected balance 250, got %s", balance.Balance)
	}
}

func TestPlaceOrder_LimitOrder_RestsAndTracked(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "1000.00")
	ts.addStock(t, "AAPL", "150.00")

	exp := time.Now().Add(time.Hour)
	order, err := ts.orderSvc.PlaceOrder(PlaceOrderRequest{
		AccountID:  acctID,
		Symbol:     "AAPL",
		Type:       domain.OrderTypeLimit,
		Side:       domain.OrderSideBuy,
		Quantity:   5,
		LimitPrice: strp("140.00"),
		ExpiresAt:  &exp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected status PENDING, got %s", order.Status)
	}
	if ts.sweeper.ActiveOrderCount() != 1 {
		t.Errorf("expected 1 order tracked for expiry, got %d", ts.sweeper.ActiveOrderCount())
	}
}

func TestCancelOrder_RestingOrder(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "1000.00")
	ts.addStock(t, "AAPL", "150.00")

	exp := time.Now().Add(time.Hour)
	order, _ := ts.orderSvc.PlaceOrder(PlaceOrderRequest{
		AccountID:  acctID,
		Symbol:     "AAPL",
		Type:       domain.OrderTypeLimit,
		Side:       domain.OrderSideBuy,
		Quantity:   5,
		LimitPrice: strp("140.00"),
		ExpiresAt:  &exp,
	})

	cancelled, err := ts.orderSvc.CancelOrder(order.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	if ts.sweeper.ActiveOrderCount() != 0 {
		t.Errorf("expected expiry tracking cleared, got %d", ts.sweeper.ActiveOrderCount())
	}
}

func TestCancelOrder_Errors(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "1000.00")
	ts.addStock(t, "AAPL", "150.00")

	if _, err := ts.orderSvc.CancelOrder("missing"); err != domain.ErrOrderNotFound {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}

	filled, _ := ts.orderSvc.PlaceOrder(PlaceOrderRequest{
		AccountID: acctID,
		Symbol:    "AAPL",
		Type:      domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  1,
	})
	if _, err := ts.orderSvc.CancelOrder(filled.OrderID); err != domain.ErrOrderNotCancellable {
		t.Errorf("expected ErrOrderNotCancellable, got %v", err)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	ts := newTestStack()
	if _, err := ts.orderSvc.GetOrder("missing"); err != domain.ErrOrderNotFound {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "10000.00")
	ts.addStock(t, "AAPL", "150.00")

	for i := 0; i < 3; i++ {
		ts.orderSvc.PlaceOrder(PlaceOrderRequest{
			AccountID: acctID,
			Symbol:    "AAPL",
			Type:      domain.OrderTypeMarket,
			Side:      domain.OrderSideBuy,
			Quantity:  1,
		})
	}
	// One rejected order in the mix.
	ts.orderSvc.PlaceOrder(PlaceOrderRequest{
		AccountID: acctID,
		Symbol:    "FAKE",
		Type:      domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  1,
	})

	orders, total, err := ts.orderSvc.ListOrders(acctID, nil, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 || len(orders) != 4 {
		t.Errorf("expected 4 orders, got total=%d len=%d", total, len(orders))
	}

	rejected := domain.OrderStatusRejected
	orders, total, err = ts.orderSvc.ListOrders(acctID, &rejected, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || orders[0].Symbol != "FAKE" {
		t.Errorf("expected the rejected FAKE order, got total=%d", total)
	}
}

func TestListOrders_Validation(t *testing.T) {
	ts := newTestStack()
	acctID := ts.openFundedAccount(t, "1000.00")

	if _, _, err := ts.orderSvc.ListOrders("missing", nil, 1, 20); err != domain.ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}

	bad := domain.OrderStatus("WEIRD")
	var ve *domain.ValidationError
	if _, _, err := ts.orderSvc.ListOrders(acctID, &bad, 1, 20); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for bad status, got %v", err)
	}
	if _, _, err := ts.orderSvc.ListOrders(acctID, nil, 0, 20); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for page 0, got %v", err)
	}
	if _, _, err := ts.orderSvc.ListOrders(acctID, nil, 1, 101); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for limit 101, got %v", err)
	}
}
