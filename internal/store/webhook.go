package store

import (
	"sync"

	"github.com/OliverLengLLL/brokerage/internal/domain"
)

// WebhookStore is a thread-safe in-memory store for webhooks.
// Primary index: webhook_id → webhook.
// Secondary index: account_id → event → webhook.
type WebhookStore struct {
	mu        sync.RWMutex
	webhooks  map[string]*domain.Webhook            // webhook_id → webhook
	byAccount map[string]map[string]*domain.Webhook // account_id → event → webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		webhooks:  make(map[string]*domain.Webhook),
		byAccount: make(map[string]map[string]*domain.Webhook),
	}
}

// Upsert inserts or updates a webhook subscription keyed by (account_id,
// event). If a subscription already exists for that pair, the URL and
// UpdatedAt are updated (the webhook_id remains stable). Returns true if
// a new subscription was created.
func (s *WebhookStore) Upsert(w *domain.Webhook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if events, ok := s.byAccount[w.AccountID]; ok {
		if existing, ok := events[w.Event]; ok {
			if existing.URL != w.URL {
				existing.URL = w.URL
				existing.UpdatedAt = w.UpdatedAt
			}
			return false
		}
	}

	// New subscription — add to both indexes.
	s.webhooks[w.WebhookID] = w

	if s.byAccount[w.AccountID] == nil {
		s.byAccount[w.AccountID] = make(map[string]*domain.Webhook)
	}
	s.byAccount[w.AccountID][w.Event] = w

	return true
}

// Get retrieves a webhook by ID. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Get(id string) (*domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.webhooks[id]
	if !ok {
		return nil, domain.ErrWebhookNotFound
	}
	return w, nil
}

// ListByAccount returns all webhooks for an account.
// Returns an empty slice if the account has no subscriptions.
func (s *WebhookStore) ListByAccount(accountID string) []*domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byAccount[accountID]
	if len(events) == 0 {
		return []*domain.Webhook{}
	}

	result := make([]*domain.Webhook, 0, len(events))
	for _, w := range events {
		result = append(result, w)
	}
	return result
}

// Delete removes a webhook by ID. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
// Both the primary and secondary indexes are cleaned up.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}

	delete(s.webhooks, id)

	if events, ok := s.byAccount[w.AccountID]; ok {
		delete(events, w.Event)
		if len(events) == 0 {
			delete(s.byAccount, w.AccountID)
		}
	}

	return nil
}

// GetByAccountEvent returns the webhook for a specific account+event pair,
// or nil if no subscription exists.
func (s *WebhookStore) GetByAccountEvent(accountID, event string) *domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byAccount[accountID]
	if events == nil {
		return nil
	}
	return events[event]
}
