package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// TransferUseCase executes a decided transfer against the ledger:
// both balance updates and the transaction row commit in one database
// transaction, then a money-transferred event is emitted.
type TransferUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	publisher       EventPublisher
	logger          zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	publisher EventPublisher,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
		logger:          logger,
	}
}

// ExecuteTransferInput represents input for executing a transfer.
type ExecuteTransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Currency      string
}

// Execute locks both accounts, runs the decision engine on their
// snapshots, and persists the outcome atomically. Rejections surface
// as *domain.Rejection without touching the ledger.
func (uc *TransferUseCase) Execute(ctx context.Context, input ExecuteTransferInput) (*domain.Transaction, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	// Lock accounts in sorted order (deadlock prevention).
	accountIDs := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(accountIDs)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	var from, to *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case input.FromAccountID:
			from = a
		case input.ToAccountID:
			to = a
		}
	}
	if from == nil || to == nil {
		return nil, domain.ErrAccountNotFound
	}

	result, err := domain.TransferFunds(domain.TransferRequest{
		FromAccount: from,
		ToAccount:   to,
		Amount:      input.Amount,
		Currency:    input.Currency,
	})
	if err != nil {
		return nil, err
	}

	now := result.Transaction.CreatedAt

	if err := uc.accountRepo.UpdateBalance(ctx, tx, from.ID, result.UpdatedFrom.Balance, now); err != nil {
		return nil, err
	}
	if err := uc.accountRepo.UpdateBalance(ctx, tx, to.ID, result.UpdatedTo.Balance, now); err != nil {
		return nil, err
	}
	if err := uc.transactionRepo.Create(ctx, tx, result.Transaction); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.publishEvent(ctx, result.Transaction)

	return result.Transaction, nil
}

// publishEvent emits the money-transferred event. Publish failures are
// logged and never roll back the committed transfer.
func (uc *TransferUseCase) publishEvent(ctx context.Context, transaction *domain.Transaction) {
	if uc.publisher == nil {
		return
	}

	event := &domain.TransferEvent{
		FromAccountID: transaction.FromAccountID,
		ToAccountID:   transaction.ToAccountID,
		Amount:        float64(transaction.Amount),
		TransactionID: transaction.ID,
		Timestamp:     transaction.CreatedAt.Format(time.RFC3339),
	}

	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error().Err(err).
			Str("transaction_id", transaction.ID).
			Msg("failed to publish money-transferred event")
		return
	}

	uc.logger.Info().
		Str("transaction_id", transaction.ID).
		Msg("money-transferred event published")
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransferUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}
