package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/service"
)

// StockHandler handles HTTP requests for stock and price-feed endpoints.
type StockHandler struct {
	marketSvc *service.MarketDataService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(marketSvc *service.MarketDataService) *StockHandler {
	return &StockHandler{marketSvc: marketSvc}
}

// addStockRequest is the JSON request body for POST /stocks.
type addStockRequest struct {
	Symbol       string `json:"symbol"`
	CompanyName  string `json:"company_name"`
	InitialPrice string `json:"initial_price"`
}

// stockResponse is the JSON representation of a stock.
type stockResponse struct {
	Symbol       string `json:"symbol"`
	CompanyName  string `json:"company_name"`
	CurrentPrice string `json:"current_price"`
	LastUpdated  string `json:"last_updated"`
}

// updatePriceRequest is the JSON request body for PUT /stocks/{symbol}/price.
type updatePriceRequest struct {
	Price string `json:"price"`
}

// priceUpdateResponse reports the tick outcome including fills it caused.
type priceUpdateResponse struct {
	Stock        stockResponse `json:"stock"`
	OrdersFilled int           `json:"orders_filled"`
}

// quoteResponse is the JSON response for GET /stocks/{symbol}/quote.
type quoteResponse struct {
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	Quantity       int64  `json:"quantity"`
	CurrentPrice   string `json:"current_price"`
	EstimatedTotal string `json:"estimated_total"`
	QuotedAt       string `json:"quoted_at"`
}

// AddStock handles POST /stocks.
func (h *StockHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req addStockRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	st, err := h.marketSvc.AddStock(service.AddStockRequest{
		Symbol:       req.Symbol,
		CompanyName:  req.CompanyName,
		InitialPrice: req.InitialPrice,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildStockResponse(st))
}

// GetStock handles GET /stocks/{symbol}.
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	st, err := h.marketSvc.GetStock(symbol)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildStockResponse(st))
}

// UpdatePrice handles PUT /stocks/{symbol}/price. This is the price-feed
// tick: it stores the new price and re-triggers resting orders.
func (h *StockHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var req updatePriceRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.marketSvc.UpdatePrice(symbol, req.Price)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, priceUpdateResponse{
		Stock:        buildStockResponse(result.Stock),
		OrdersFilled: len(result.FilledOrders),
	})
}

// GetQuote handles GET /stocks/{symbol}/quote.
func (h *StockHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	side := domain.OrderSide(r.URL.Query().Get("side"))

	quantity, err := strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "quantity must be a valid integer")
		return
	}

	quote, err := h.marketSvc.Quote(symbol, side, quantity)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, quoteResponse{
		Symbol:         quote.Symbol,
		Side:           string(quote.Side),
		Quantity:       quote.Quantity,
		CurrentPrice:   domain.FormatMoney(quote.CurrentPrice),
		EstimatedTotal: domain.FormatMoney(quote.EstimatedTotal),
		QuotedAt:       quote.QuotedAt.UTC().Format(timestampLayout),
	})
}

// buildStockResponse converts a domain stock to its JSON representation.
func buildStockResponse(st domain.Stock) stockResponse {
	return stockResponse{
		Symbol:       st.Symbol,
		CompanyName:  st.CompanyName,
		CurrentPrice: domain.FormatMoney(st.CurrentPrice),
		LastUpdated:  st.LastUpdated.UTC().Format(timestampLayout),
	}
}
