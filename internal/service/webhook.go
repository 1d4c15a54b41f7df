package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"order.filled":         true,
	"order.cancelled":      true,
	"transaction.recorded": true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	AccountID string
	URL       string
	Events    []string
}

// WebhookService handles webhook CRUD and event dispatch. Dispatch is
// fire-and-forget and always happens outside engine locks.
type WebhookService struct {
	store    *store.WebhookStore
	accounts *store.AccountStore
	client   *http.Client
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	accounts *store.AccountStore,
	timeout time.Duration,
) *WebhookService {
	return &WebhookService{
		store:    webhookStore,
		accounts: accounts,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// Returns the resulting webhooks, whether any new subscriptions were created,
// and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if !s.accounts.Exists(req.AccountID) {
		return nil, false, domain.ErrAccountNotFound
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: order.filled, order.cancelled, transaction.recorded",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	// Upsert each (account_id, event) pair.
	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			AccountID: req.AccountID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			// Fetch the existing webhook to return it.
			existing := s.store.GetByAccountEvent(req.AccountID, event)
			if existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List validates the account exists and returns all webhook subscriptions.
func (s *WebhookService) List(accountID string) ([]*domain.Webhook, error) {
	if !s.accounts.Exists(accountID) {
		return nil, domain.ErrAccountNotFound
	}
	return s.store.ListByAccount(accountID), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// orderEventPayload is the JSON payload for order.filled and
// order.cancelled webhooks.
type orderEventPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      orderEventData `json:"data"`
}

type orderEventData struct {
	AccountID         string  `json:"account_id"`
	OrderID           string  `json:"order_id"`
	Symbol            string  `json:"symbol"`
	Type              string  `json:"type"`
	Side              string  `json:"side"`
	LimitPrice        *string `json:"limit_price"`
	Quantity          int64   `json:"quantity"`
	FilledQuantity    int64   `json:"filled_quantity"`
	RemainingQuantity int64   `json:"remaining_quantity"`
	Status            string  `json:"status"`
}

// transactionPayload is the JSON payload for transaction.recorded webhooks.
type transactionPayload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      transactionData `json:"data"`
}

type transactionData struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Symbol        string `json:"symbol,omitempty"`
	Quantity      int64  `json:"quantity,omitempty"`
}

// DispatchOrderFilled dispatches an order.filled webhook notification
// to the order's account. Fire-and-forget — errors are silently ignored.
func (s *WebhookService) DispatchOrderFilled(order *domain.Order) {
	wh := s.store.GetByAccountEvent(order.AccountID, "order.filled")
	if wh == nil {
		return
	}

	payload := buildOrderEventPayload("order.filled", order)
	go s.deliver(wh, "order.filled", payload)
}

// DispatchOrderCancelled dispatches an order.cancelled webhook notification
// to the order's account. Fire-and-forget.
func (s *WebhookService) DispatchOrderCancelled(order *domain.Order) {
	wh := s.store.GetByAccountEvent(order.AccountID, "order.cancelled")
	if wh == nil {
		return
	}

	payload := buildOrderEventPayload("order.cancelled", order)
	go s.deliver(wh, "order.cancelled", payload)
}

// DispatchTransactionRecorded dispatches a transaction.recorded webhook
// notification to the fact's account. Fire-and-forget.
func (s *WebhookService) DispatchTransactionRecorded(t *domain.Transaction) {
	wh := s.store.GetByAccountEvent(t.AccountID, "transaction.recorded")
	if wh == nil {
		return
	}

	payload := transactionPayload{
		Event:     "transaction.recorded",
		Timestamp: t.Timestamp.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: transactionData{
			TransactionID: t.TransactionID,
			AccountID:     t.AccountID,
			Type:          string(t.Type),
			Amount:        domain.FormatMoney(t.Amount),
			Symbol:        t.Symbol,
			Quantity:      t.Quantity,
		},
	}

	go s.deliver(wh, "transaction.recorded", payload)
}

// buildOrderEventPayload creates the JSON payload for order lifecycle events.
func buildOrderEventPayload(event string, order *domain.Order) orderEventPayload {
	var limitPrice *string
	if order.Type == domain.OrderTypeLimit {
		p := domain.FormatMoney(order.LimitPrice)
		limitPrice = &p
	}

	return orderEventPayload{
		Event:     event,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: orderEventData{
			AccountID:         order.AccountID,
			OrderID:           order.OrderID,
			Symbol:            order.Symbol,
			Type:              string(order.Type),
			Side:              string(order.Side),
			LimitPrice:        limitPrice,
			Quantity:          order.Quantity,
			FilledQuantity:    order.FilledQuantity,
			RemainingQuantity: order.RemainingQuantity(),
			Status:            string(order.Status),
		},
	}
}

// deliver sends the webhook payload via HTTP POST with the required headers.
// Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
