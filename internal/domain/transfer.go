package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Transaction statuses and types.
const (
	TransactionStatusCompleted = "completed"
	TransactionTypeTransfer    = "transfer"
)

// Transaction records one completed funds movement. Created exactly once
// per successful decision and immutable thereafter.
type Transaction struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Currency      string
	Status        string
	Type          string
	CreatedAt     time.Time
}

// TransferRequest is the input to the decision engine. Amounts are in
// minor currency units. Currency, when set, constrains both accounts.
type TransferRequest struct {
	FromAccount *Account
	ToAccount   *Account
	Amount      int64
	Currency    string
}

// TransferResult is the success payload of a transfer decision: both
// account snapshots with adjusted balances and the new transaction.
type TransferResult struct {
	UpdatedFrom *Account
	UpdatedTo   *Account
	Transaction *Transaction
}

// TransferFunds decides whether a transfer is legal and, if so, returns
// the updated snapshots plus a new transaction. Guards run in order and
// the first failure wins. The function performs no I/O and is safe for
// concurrent use; all arithmetic is integer, never floating point.
func TransferFunds(req TransferRequest) (*TransferResult, error) {
	if req.FromAccount == nil || req.ToAccount == nil {
		return nil, reject(KindInvalidAccount, "both accounts are required")
	}

	if !req.FromAccount.IsActive() {
		return nil, reject(KindInactiveAccount, "source account is not active")
	}

	if !req.ToAccount.IsActive() {
		return nil, reject(KindInactiveAccount, "destination account is not active")
	}

	if req.Amount <= 0 {
		return nil, reject(KindInvalidAmount, "amount must be positive")
	}

	if req.FromAccount.Balance < req.Amount {
		return nil, reject(KindInsufficientFunds, "insufficient funds")
	}

	if req.Currency != "" &&
		(req.FromAccount.Currency != req.Currency || req.ToAccount.Currency != req.Currency) {
		return nil, reject(KindCurrencyMismatch, "currency mismatch")
	}

	now := time.Now().UTC()

	updatedFrom := *req.FromAccount
	updatedFrom.Balance -= req.Amount
	updatedFrom.UpdatedAt = now

	updatedTo := *req.ToAccount
	updatedTo.Balance += req.Amount
	updatedTo.UpdatedAt = now

	currency := req.Currency
	if currency == "" {
		currency = req.FromAccount.Currency
	}

	transaction := &Transaction{
		ID:            ulid.Make().String(),
		FromAccountID: req.FromAccount.ID,
		ToAccountID:   req.ToAccount.ID,
		Amount:        req.Amount,
		Currency:      currency,
		Status:        TransactionStatusCompleted,
		Type:          TransactionTypeTransfer,
		CreatedAt:     now,
	}

	return &TransferResult{
		UpdatedFrom: &updatedFrom,
		UpdatedTo:   &updatedTo,
		Transaction: transaction,
	}, nil
}
