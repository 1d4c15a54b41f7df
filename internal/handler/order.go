package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/service"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// placeOrderRequest is the JSON request body for POST /orders.
type placeOrderRequest struct {
	AccountID  string  `json:"account_id"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Side       string  `json:"side"`
	Quantity   int64   `json:"quantity"`
	LimitPrice *string `json:"limit_price"`
	ExpiresAt  *string `json:"expires_at"`
}

// orderResponse is the JSON representation of an order. Nullable fields
// use pointers: limit_price is null for market orders, reject_reason is
// null unless the order was rejected.
type orderResponse struct {
	OrderID           string  `json:"order_id"`
	AccountID         string  `json:"account_id"`
	Symbol            string  `json:"symbol"`
	Type              string  `json:"type"`
	Side              string  `json:"side"`
	Quantity          int64   `json:"quantity"`
	LimitPrice        *string `json:"limit_price"`
	FilledQuantity    int64   `json:"filled_quantity"`
	RemainingQuantity int64   `json:"remaining_quantity"`
	Status            string  `json:"status"`
	RejectReason      *string `json:"reject_reason"`
	ExpiresAt         *string `json:"expires_at"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	CancelledAt       *string `json:"cancelled_at"`
}

// PlaceOrder handles POST /orders.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	// Parse expires_at if provided.
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "expires_at must be a valid RFC 3339 timestamp")
			return
		}
		expiresAt = &t
	}

	order, err := h.orderSvc.PlaceOrder(service.PlaceOrderRequest{
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		Type:       domain.OrderType(req.Type),
		Side:       domain.OrderSide(req.Side),
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.GetOrder(orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelOrder handles DELETE /orders/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.CancelOrder(orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// buildOrderResponse converts a domain order to its JSON representation.
func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:           o.OrderID,
		AccountID:         o.AccountID,
		Symbol:            o.Symbol,
		Type:              string(o.Type),
		Side:              string(o.Side),
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity(),
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:         o.UpdatedAt.UTC().Format(timestampLayout),
	}

	if o.Type == domain.OrderTypeLimit {
		p := domain.FormatMoney(o.LimitPrice)
		resp.LimitPrice = &p
	}
	if o.RejectReason != "" {
		reason := o.RejectReason
		resp.RejectReason = &reason
	}
	if o.ExpiresAt != nil {
		s := o.ExpiresAt.UTC().Format(timestampLayout)
		resp.ExpiresAt = &s
	}
	if o.CancelledAt != nil {
		s := o.CancelledAt.UTC().Format(timestampLayout)
		resp.CancelledAt = &s
	}

	return resp
}

// mapDomainError maps domain errors to HTTP responses. Shared by all
// handlers since they draw on the same error taxonomy.
func mapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		WriteError(w, http.StatusConflict, "account_already_exists", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		WriteError(w, http.StatusConflict, "order_not_cancellable", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrInsufficientShares):
		WriteError(w, http.StatusConflict, "insufficient_shares", err.Error())
	case errors.Is(err, domain.ErrSymbolNotFound):
		WriteError(w, http.StatusNotFound, "symbol_not_found", err.Error())
	case errors.Is(err, domain.ErrStockAlreadyExists):
		WriteError(w, http.StatusConflict, "stock_already_exists", err.Error())
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, "webhook_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
