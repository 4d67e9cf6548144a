package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// AuditRepository implements usecase.AuditRepository on PostgreSQL.
// The unique index on transaction_id is the idempotency boundary.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// UpsertIfAbsent inserts the record unless the transaction ID is
// already present. An identical existing row is a duplicate; a
// different one is a conflict and the stored row is left untouched.
func (r *AuditRepository) UpsertIfAbsent(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_events (
			id, transaction_id, from_account_id, to_account_id,
			amount, event_timestamp, raw, ingested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (transaction_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		record.ID,
		record.TransactionID,
		record.FromAccountID,
		record.ToAccountID,
		record.Amount,
		record.Timestamp,
		record.Raw,
		record.IngestedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert audit event: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return domain.WriteInserted, nil
	}

	existing, err := r.GetByTransactionID(ctx, record.TransactionID)
	if err != nil {
		return "", err
	}

	if existing.ContentEquals(record) {
		return domain.WriteDuplicate, nil
	}

	return domain.WriteConflict, nil
}

// GetByTransactionID returns the latest audit record for a transaction.
func (r *AuditRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.AuditRecord, error) {
	query := `
		SELECT id, transaction_id, from_account_id, to_account_id,
		       amount, event_timestamp, raw, ingested_at
		FROM audit_events
		WHERE transaction_id = $1
		ORDER BY ingested_at DESC
		LIMIT 1
	`

	var record domain.AuditRecord
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(
		&record.ID,
		&record.TransactionID,
		&record.FromAccountID,
		&record.ToAccountID,
		&record.Amount,
		&record.Timestamp,
		&record.Raw,
		&record.IngestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuditRecordNotFound
		}
		return nil, err
	}

	return &record, nil
}

// DeleteByTransactionID removes a record. Intended for operator
// cleanup of synthetic test events only.
func (r *AuditRepository) DeleteByTransactionID(ctx context.Context, transactionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM audit_events WHERE transaction_id = $1`, transactionID)
	return err
}
