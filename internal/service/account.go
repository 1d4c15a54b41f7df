package service

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/OliverLengLLL/brokerage/internal/domain"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

var (
	ownerNameRegex  = regexp.MustCompile(`^[\pL\pN .'-]{1,64}$`)
	ownerEmailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// OpenAccountRequest represents the input for account registration.
type OpenAccountRequest struct {
	OwnerName      string
	OwnerEmail     string
	InitialBalance *string // decimal string, optional
}

// BalanceResponse represents the response for the account balance endpoint.
type BalanceResponse struct {
	AccountID  string
	OwnerName  string
	OwnerEmail string
	Balance    decimal.Decimal
	CreatedAt  time.Time
}

// AccountService handles account registration, deposits, withdrawals, and
// balance queries. Every committed cash movement emits an audit fact.
type AccountService struct {
	accounts   *store.AccountStore
	portfolios *store.PortfolioStore
	audit      *store.TransactionStore
	webhookSvc *WebhookService
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accounts *store.AccountStore,
	portfolios *store.PortfolioStore,
	audit *store.TransactionStore,
	webhookSvc *WebhookService,
) *AccountService {
	return &AccountService{
		accounts:   accounts,
		portfolios: portfolios,
		audit:      audit,
		webhookSvc: webhookSvc,
	}
}

// Open validates the request, creates the account with its portfolio, and
// records the initial deposit if any.
func (s *AccountService) Open(req OpenAccountRequest) (*domain.Account, error) {
	if !ownerNameRegex.MatchString(req.OwnerName) {
		return nil, &domain.ValidationError{
			Message: "owner_name must be 1-64 characters",
		}
	}
	if !ownerEmailRegex.MatchString(req.OwnerEmail) {
		return nil, &domain.ValidationError{
			Message: "owner_email must be a valid email address",
		}
	}

	balance := decimal.Zero
	if req.InitialBalance != nil {
		d, err := domain.ParseMoney(*req.InitialBalance)
		if err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		if d.IsNegative() {
			return nil, &domain.ValidationError{
				Message: "initial_balance must be >= 0",
			}
		}
		balance = d
	}

	now := time.Now()
	acct := &domain.Account{
		AccountID:  uuid.New().String(),
		OwnerName:  req.OwnerName,
		OwnerEmail: req.OwnerEmail,
		Balance:    balance,
		CreatedAt:  now,
	}

	if err := s.accounts.Create(acct); err != nil {
		return nil, err
	}
	s.portfolios.Create(domain.NewPortfolio(acct.AccountID))

	if balance.IsPositive() {
		s.recordCashFact(acct.AccountID, domain.TransactionTypeDeposit, balance, now)
	}

	return acct, nil
}

// Deposit atomically credits the account balance and records the fact.
func (s *AccountService) Deposit(accountID, amount string) (*BalanceResponse, error) {
	d, err := s.parsePositiveAmount(amount)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	acct.Balance = acct.Balance.Add(d)
	resp := s.balanceResponse(acct)
	acct.Mu.Unlock()

	s.recordCashFact(accountID, domain.TransactionTypeDeposit, d, time.Now())
	return resp, nil
}

// Withdraw atomically debits the account balance and records the fact.
// The sufficiency check and the debit happen under the same lock
// acquisition; the balance never goes negative.
func (s *AccountService) Withdraw(accountID, amount string) (*BalanceResponse, error) {
	d, err := s.parsePositiveAmount(amount)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	if !acct.HasSufficientBalance(d) {
		acct.Mu.Unlock()
		return nil, domain.ErrInsufficientFunds
	}
	acct.Balance = acct.Balance.Sub(d)
	resp := s.balanceResponse(acct)
	acct.Mu.Unlock()

	s.recordCashFact(accountID, domain.TransactionTypeWithdrawal, d, time.Now())
	return resp, nil
}

// GetBalance retrieves the account's current balance and owner info.
func (s *AccountService) GetBalance(accountID string) (*BalanceResponse, error) {
	acct, err := s.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()
	return s.balanceResponse(acct), nil
}

// ListTransactions returns the account's append-only audit trail.
func (s *AccountService) ListTransactions(accountID string) ([]*domain.Transaction, error) {
	if !s.accounts.Exists(accountID) {
		return nil, domain.ErrAccountNotFound
	}
	return s.audit.ListByAccount(accountID), nil
}

func (s *AccountService) parsePositiveAmount(amount string) (decimal.Decimal, error) {
	d, err := domain.ParseMoney(amount)
	if err != nil {
		return decimal.Zero, &domain.ValidationError{Message: err.Error()}
	}
	if !d.IsPositive() {
		return decimal.Zero, &domain.ValidationError{
			Message: "amount must be greater than 0",
		}
	}
	return d, nil
}

// balanceResponse builds a response snapshot. The caller must hold the
// account lock.
func (s *AccountService) balanceResponse(acct *domain.Account) *BalanceResponse {
	return &BalanceResponse{
		AccountID:  acct.AccountID,
		OwnerName:  acct.OwnerName,
		OwnerEmail: acct.OwnerEmail,
		Balance:    acct.Balance,
		CreatedAt:  acct.CreatedAt,
	}
}

// recordCashFact appends a DEPOSIT/WITHDRAWAL fact and dispatches the
// transaction.recorded webhook.
func (s *AccountService) recordCashFact(accountID string, t domain.TransactionType, amount decimal.Decimal, now time.Time) {
	fact := &domain.Transaction{
		TransactionID: uuid.New().String(),
		AccountID:     accountID,
		Type:          t,
		Amount:        amount,
		Timestamp:     now,
	}
	s.audit.Append(fact)

	if s.webhookSvc != nil {
		s.webhookSvc.DispatchTransactionRecorded(fact)
	}
}
