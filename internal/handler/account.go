package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc   *service.AccountService
	portfolioSvc *service.PortfolioService
	orderSvc     *service.OrderService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountSvc *service.AccountService,
	portfolioSvc *service.PortfolioService,
	orderSvc *service.OrderService,
) *AccountHandler {
	return &AccountHandler{
		accountSvc:   accountSvc,
		portfolioSvc: portfolioSvc,
		orderSvc:     orderSvc,
	}
}

// openAccountRequest is the JSON request body for POST /accounts.
type openAccountRequest struct {
	OwnerName      string  `json:"owner_name"`
	OwnerEmail     string  `json:"owner_email"`
	InitialBalance *string `json:"initial_balance"`
}

// accountResponse is the JSON representation of an account.
type accountResponse struct {
	AccountID  string `json:"account_id"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	Balance    string `json:"balance"`
	CreatedAt  string `json:"created_at"`
}

// cashMovementRequest is the JSON request body for deposits and withdrawals.
type cashMovementRequest struct {
	Amount string `json:"amount"`
}

// positionResponse is a single position in the portfolio response.
type positionResponse struct {
	Symbol       string `json:"symbol"`
	Quantity     int64  `json:"quantity"`
	AvgCost      string `json:"avg_cost"`
	CurrentPrice string `json:"current_price"`
	MarketValue  string `json:"market_value"`
}

// portfolioResponse is the JSON response for GET /accounts/{id}/portfolio.
type portfolioResponse struct {
	AccountID  string             `json:"account_id"`
	Positions  []positionResponse `json:"positions"`
	TotalValue string             `json:"total_value"`
	AsOf       string             `json:"as_of"`
}

// transactionResponse is a single audit fact in the transactions response.
type transactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Symbol        string `json:"symbol,omitempty"`
	Quantity      int64  `json:"quantity,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// orderListResponse is the JSON response for GET /accounts/{id}/orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// Open handles POST /accounts.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	acct, err := h.accountSvc.Open(service.OpenAccountRequest{
		OwnerName:      req.OwnerName,
		OwnerEmail:     req.OwnerEmail,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, accountResponse{
		AccountID:  acct.AccountID,
		OwnerName:  acct.OwnerName,
		OwnerEmail: acct.OwnerEmail,
		Balance:    domain.FormatMoney(acct.Balance),
		CreatedAt:  acct.CreatedAt.UTC().Format(timestampLayout),
	})
}

// GetBalance handles GET /accounts/{account_id}.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	balance, err := h.accountSvc.GetBalance(accountID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, accountResponse{
		AccountID:  balance.AccountID,
		OwnerName:  balance.OwnerName,
		OwnerEmail: balance.OwnerEmail,
		Balance:    domain.FormatMoney(balance.Balance),
		CreatedAt:  balance.CreatedAt.UTC().Format(timestampLayout),
	})
}

// Deposit handles POST /accounts/{account_id}/deposit.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyCashMovement(w, r, h.accountSvc.Deposit)
}

// Withdraw handles POST /accounts/{account_id}/withdraw.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyCashMovement(w, r, h.accountSvc.Withdraw)
}

func (h *AccountHandler) applyCashMovement(
	w http.ResponseWriter,
	r *http.Request,
	apply func(accountID, amount string) (*service.BalanceResponse, error),
) {
	accountID := chi.URLParam(r, "account_id")

	var req cashMovementRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := apply(accountID, req.Amount)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, accountResponse{
		AccountID:  balance.AccountID,
		OwnerName:  balance.OwnerName,
		OwnerEmail: balance.OwnerEmail,
		Balance:    domain.FormatMoney(balance.Balance),
		CreatedAt:  balance.CreatedAt.UTC().Format(timestampLayout),
	})
}

// GetPortfolio handles GET /accounts/{account_id}/portfolio.
func (h *AccountHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	pf, err := h.portfolioSvc.GetPortfolio(accountID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	positions := make([]positionResponse, len(pf.Positions))
	for i, p := range pf.Positions {
		positions[i] = positionResponse{
			Symbol:       p.Symbol,
			Quantity:     p.Quantity,
			AvgCost:      p.AvgCost.String(),
			CurrentPrice: domain.FormatMoney(p.CurrentPrice),
			MarketValue:  domain.FormatMoney(p.MarketValue),
		}
	}

	WriteJSON(w, http.StatusOK, portfolioResponse{
		AccountID:  pf.AccountID,
		Positions:  positions,
		TotalValue: domain.FormatMoney(pf.TotalValue),
		AsOf:       pf.AsOf.UTC().Format(timestampLayout),
	})
}

// ListTransactions handles GET /accounts/{account_id}/transactions.
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	txs, err := h.accountSvc.ListTransactions(accountID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	result := make([]transactionResponse, len(txs))
	for i, t := range txs {
		result[i] = transactionResponse{
			TransactionID: t.TransactionID,
			Type:          string(t.Type),
			Amount:        domain.FormatMoney(t.Amount),
			Symbol:        t.Symbol,
			Quantity:      t.Quantity,
			Timestamp:     t.Timestamp.UTC().Format(timestampLayout),
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"account_id":   accountID,
		"transactions": result,
	})
}

// ListOrders handles GET /accounts/{account_id}/orders.
func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	// Parse query params.
	var statusFilter *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.OrderStatus(s)
		statusFilter = &status
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	orders, total, err := h.orderSvc.ListOrders(accountID, statusFilter, page, limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	summaries := make([]orderResponse, len(orders))
	for i, o := range orders {
		summaries[i] = buildOrderResponse(o)
	}

	WriteJSON(w, http.StatusOK, orderListResponse{
		Orders: summaries,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}
