package usecase

import (
	"context"
	"time"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// AuditRepository defines data access for audit records.
type AuditRepository interface {
	// UpsertIfAbsent inserts the record unless a row with the same
	// transaction ID exists. An existing identical row yields
	// WriteDuplicate; an existing row with different content yields
	// WriteConflict and the stored content is kept.
	UpsertIfAbsent(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.AuditRecord, error)
	DeleteByTransactionID(ctx context.Context, transactionID string) error
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
}

// TransactionRepository defines data access for completed transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// EventPublisher emits money-transferred events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.TransferEvent) error
}

// AuditLogWriter appends events to the local append-only audit log.
type AuditLogWriter interface {
	Append(record *domain.AuditRecord) error
}

// DedupeCache remembers durably persisted transaction IDs so repeated
// deliveries of identical content can skip the store. The store's
// uniqueness constraint remains authoritative; cache errors are safe
// to ignore and entries are written only after the store accepts the
// record, so a failed write is never remembered as done.
type DedupeCache interface {
	// Seen reports whether the transaction ID was persisted with this
	// exact content hash. A same-ID entry with a different hash
	// reports false so the store can detect the conflict.
	Seen(ctx context.Context, transactionID, contentHash string) (bool, error)
	// MarkSeen records the content hash for a persisted transaction.
	MarkSeen(ctx context.Context, transactionID, contentHash string, ttl time.Duration) error
}

// Retrier retries transient persistence failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// AuditCounters tracks pipeline outcomes for the metrics exposition.
type AuditCounters interface {
	IncAudited()
	IncErrors()
}
