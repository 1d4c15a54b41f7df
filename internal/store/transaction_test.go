package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/OliverLengLLL/brokerage/internal/domain"
)

func TestTransactionStore_AppendAndList(t *testing.T) {
	s := NewTransactionStore()
	base := time.Now()
	for i := 0; i < 3; i++ {
		s.Append(&domain.Transaction{
			TransactionID: fmt.Sprintf("tx-%d", i),
			AccountID:     "acct-1",
			Type:          domain.TransactionTypeDeposit,
			Amount:        dec("100.00"),
			Timestamp:     base.Add(time.Duration(i) * time.Second),
		})
	}

	got := s.ListByAccount("acct-1")
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	// Chronological order preserved.
	for i := 0; i < 3; i++ {
		if got[i].TransactionID != fmt.Sprintf("tx-%d", i) {
			t.Errorf("position %d: expected tx-%d, got %s", i, i, got[i].TransactionID)
		}
	}
}

func TestTransactionStore_ListEmptyAccount(t *testing.T) {
	s := NewTransactionStore()
	got := s.ListByAccount("acct-1")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestTransactionStore_ListReturnsCopy(t *testing.T) {
	s := NewTransactionStore()
	s.Append(&domain.Transaction{TransactionID: "tx-1", AccountID: "acct-1"})

	got := s.ListByAccount("acct-1")
	got[0] = nil

	fresh := s.ListByAccount("acct-1")
	if fresh[0] == nil || fresh[0].TransactionID != "tx-1" {
		t.Error("mutating a returned slice must not affect the store")
	}
}

func TestTransactionStore_IsolatedPerAccount(t *testing.T) {
	s := NewTransactionStore()
	s.Append(&domain.Transaction{TransactionID: "tx-1", AccountID: "acct-1"})
	s.Append(&domain.Transaction{TransactionID: "tx-2", AccountID: "acct-2"})

	if got := s.ListByAccount("acct-1"); len(got) != 1 || got[0].TransactionID != "tx-1" {
		t.Errorf("unexpected transactions for acct-1: %v", got)
	}
}
