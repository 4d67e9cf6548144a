package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/michaelwybraniec/bankly/internal/domain"
	"github.com/michaelwybraniec/bankly/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts an account, ignoring an existing row with the same ID.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, owner_name, balance, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`,
		account.ID,
		account.OwnerName,
		account.Balance,
		account.Currency,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return err
}

// GetByIDsForUpdate locks and returns the given accounts within tx.
// Callers pass IDs sorted to keep the lock order stable.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT id, owner_name, balance, currency, status, created_at, updated_at
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID,
			&a.OwnerName,
			&a.Balance,
			&a.Currency,
			&a.Status,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}

	return accounts, rows.Err()
}

// UpdateBalance sets an account balance within tx.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
		balance, updatedAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a completed transaction within tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (
			id, from_account_id, to_account_id, amount,
			currency, status, type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := pgxTx.Exec(ctx, query,
		transaction.ID,
		transaction.FromAccountID,
		transaction.ToAccountID,
		transaction.Amount,
		transaction.Currency,
		transaction.Status,
		transaction.Type,
		transaction.CreatedAt,
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount,
		       currency, status, type, created_at
		FROM transactions
		WHERE id = $1
	`

	var tx domain.Transaction
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tx.ID,
		&tx.FromAccountID,
		&tx.ToAccountID,
		&tx.Amount,
		&tx.Currency,
		&tx.Status,
		&tx.Type,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, pgx.ErrNoRows)
		}
		return nil, err
	}

	return &tx, nil
}
