package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/michaelwybraniec/bankly/internal/domain"
	"github.com/michaelwybraniec/bankly/internal/usecase"
	"github.com/michaelwybraniec/bankly/internal/usecase/mocks"
)

type transferFixture struct {
	txManager       *mocks.MockTransactionManager
	accountRepo     *mocks.MockAccountRepository
	transactionRepo *mocks.MockTransactionRepository
	publisher       *mocks.MockEventPublisher
	uc              *usecase.TransferUseCase
}

func newTransferFixture() *transferFixture {
	f := &transferFixture{
		txManager:       mocks.NewMockTransactionManager(),
		accountRepo:     mocks.NewMockAccountRepository(),
		transactionRepo: mocks.NewMockTransactionRepository(),
		publisher:       mocks.NewMockEventPublisher(),
	}
	f.uc = usecase.NewTransferUseCase(
		f.txManager,
		f.accountRepo,
		f.transactionRepo,
		f.publisher,
		zerolog.Nop(),
	)

	f.accountRepo.Put(&domain.Account{
		ID: "acc-1", OwnerName: "Alice", Balance: 1000,
		Currency: "USD", Status: domain.AccountStatusActive,
	})
	f.accountRepo.Put(&domain.Account{
		ID: "acc-2", OwnerName: "Bob", Balance: 1000,
		Currency: "USD", Status: domain.AccountStatusActive,
	})
	return f
}

func TestTransferUseCase_ExecuteSuccess(t *testing.T) {
	f := newTransferFixture()

	transaction, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if transaction.Amount != 200 {
		t.Errorf("expected amount 200, got %d", transaction.Amount)
	}
	if got := f.accountRepo.Get("acc-1").Balance; got != 800 {
		t.Errorf("expected sender balance 800, got %d", got)
	}
	if got := f.accountRepo.Get("acc-2").Balance; got != 1200 {
		t.Errorf("expected receiver balance 1200, got %d", got)
	}
	if !f.txManager.Last.Committed {
		t.Error("expected transaction to commit")
	}
	if len(f.publisher.Events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(f.publisher.Events))
	}
	event := f.publisher.Events[0]
	if event.TransactionID != transaction.ID || event.Amount != 200 {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestTransferUseCase_RejectionRollsBack(t *testing.T) {
	f := newTransferFixture()

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        5000,
	})

	kind, ok := domain.RejectionKindOf(err)
	if !ok || kind != domain.KindInsufficientFunds {
		t.Fatalf("expected insufficient funds rejection, got %v", err)
	}
	if !f.txManager.Last.RolledBack {
		t.Error("expected transaction to roll back")
	}
	if got := f.accountRepo.Get("acc-1").Balance; got != 1000 {
		t.Errorf("expected untouched sender balance, got %d", got)
	}
	if len(f.publisher.Events) != 0 {
		t.Errorf("expected no event on rejection, got %d", len(f.publisher.Events))
	}
}

func TestTransferUseCase_InactiveAccountRejected(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Put(&domain.Account{
		ID: "acc-3", OwnerName: "Carol", Balance: 1000,
		Currency: "USD", Status: domain.AccountStatusSuspended,
	})

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-3",
		ToAccountID:   "acc-2",
		Amount:        100,
	})

	kind, ok := domain.RejectionKindOf(err)
	if !ok || kind != domain.KindInactiveAccount {
		t.Fatalf("expected inactive account rejection, got %v", err)
	}
}

func TestTransferUseCase_SameAccountRejected(t *testing.T) {
	f := newTransferFixture()

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-1",
		Amount:        100,
	})

	if !errors.Is(err, domain.ErrSameAccount) {
		t.Fatalf("expected same account error, got %v", err)
	}
	if f.txManager.Last != nil {
		t.Error("expected no transaction to be started")
	}
	if got := f.accountRepo.Get("acc-1").Balance; got != 1000 {
		t.Errorf("expected untouched balance, got %d", got)
	}
}

func TestTransferUseCase_UnknownAccount(t *testing.T) {
	f := newTransferFixture()

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "ghost",
		Amount:        100,
	})

	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
	if !f.txManager.Last.RolledBack {
		t.Error("expected transaction to roll back")
	}
}

func TestTransferUseCase_PublishFailureDoesNotFailTransfer(t *testing.T) {
	f := newTransferFixture()
	f.publisher.PublishFunc = func(ctx context.Context, event *domain.TransferEvent) error {
		return errors.New("broker away")
	}

	transaction, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        200,
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the transfer: %v", err)
	}
	if transaction == nil || !f.txManager.Last.Committed {
		t.Fatal("expected committed transfer despite publish failure")
	}
}

func TestTransferUseCase_StoreErrorSurfaced(t *testing.T) {
	f := newTransferFixture()
	storeErr := errors.New("write failed")
	f.transactionRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
		return storeErr
	}

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        200,
	})

	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if f.txManager.Last.Committed {
		t.Error("expected no commit after store error")
	}
}
