package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// AuditUseCase persists validated transfer events. Writes are
// idempotent per transaction ID: the durable store enforces uniqueness
// and the redis cache only short-circuits repeated deliveries.
type AuditUseCase struct {
	auditRepo AuditRepository
	logWriter AuditLogWriter
	dedupe    DedupeCache
	retrier   Retrier
	counters  AuditCounters
	logger    zerolog.Logger
	dedupeTTL time.Duration
}

// AuditConfig holds dependencies for AuditUseCase.
type AuditConfig struct {
	AuditRepo AuditRepository
	LogWriter AuditLogWriter
	Dedupe    DedupeCache
	Retrier   Retrier
	Counters  AuditCounters
	Logger    zerolog.Logger
	DedupeTTL time.Duration
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(cfg AuditConfig) *AuditUseCase {
	if cfg.DedupeTTL == 0 {
		cfg.DedupeTTL = 24 * time.Hour
	}

	return &AuditUseCase{
		auditRepo: cfg.AuditRepo,
		logWriter: cfg.LogWriter,
		dedupe:    cfg.Dedupe,
		retrier:   cfg.Retrier,
		counters:  cfg.Counters,
		logger:    cfg.Logger,
		dedupeTTL: cfg.DedupeTTL,
	}
}

// Record writes the event to the audit store and the append-only log.
// Duplicate deliveries of the same transaction ID succeed without a
// second row. A same-ID event with different content returns
// domain.ErrConflictingAuditRecord and keeps the first-accepted row.
func (uc *AuditUseCase) Record(ctx context.Context, event *domain.TransferEvent, raw []byte) (domain.WriteOutcome, error) {
	record := domain.RecordFromEvent(event, raw, time.Now().UTC())
	contentHash := record.ContentHash()

	// The cache only short-circuits redeliveries whose content hash
	// matches a record the store has already accepted. A same-ID event
	// with different content falls through so the store surfaces the
	// conflict, and nothing is cached before the durable write.
	if uc.dedupe != nil {
		seen, err := uc.dedupe.Seen(ctx, event.TransactionID, contentHash)
		if err != nil {
			// The store's uniqueness constraint still protects us.
			uc.logger.Warn().Err(err).Msg("dedupe cache unavailable")
		} else if seen {
			uc.logger.Debug().
				Str("transaction_id", event.TransactionID).
				Msg("duplicate event short-circuited by cache")
			uc.counters.IncAudited()
			return domain.WriteDuplicate, nil
		}
	}

	var outcome domain.WriteOutcome
	write := func() error {
		var err error
		outcome, err = uc.auditRepo.UpsertIfAbsent(ctx, record)
		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, write)
	} else {
		err = write()
	}
	if err != nil {
		uc.counters.IncErrors()
		uc.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Msg("failed to persist audit record")
		return "", err
	}

	switch outcome {
	case domain.WriteConflict:
		uc.counters.IncErrors()
		uc.logger.Error().
			Str("transaction_id", event.TransactionID).
			RawJSON("payload", raw).
			Msg("conflicting audit record, keeping first-accepted content")
		return outcome, domain.ErrConflictingAuditRecord
	case domain.WriteDuplicate:
		uc.logger.Debug().
			Str("transaction_id", event.TransactionID).
			Msg("audit record already present")
	default:
		uc.logger.Info().
			Str("transaction_id", event.TransactionID).
			Str("from", event.FromAccountID).
			Str("to", event.ToAccountID).
			Float64("amount", event.Amount).
			Msg("audit record persisted")
	}

	// Cache only what the store accepted.
	if uc.dedupe != nil {
		if err := uc.dedupe.MarkSeen(ctx, event.TransactionID, contentHash, uc.dedupeTTL); err != nil {
			uc.logger.Warn().Err(err).
				Str("transaction_id", event.TransactionID).
				Msg("failed to mark transaction in dedupe cache")
		}
	}

	// The local log is best effort: a failed append never fails the write.
	if uc.logWriter != nil {
		if err := uc.logWriter.Append(record); err != nil {
			uc.logger.Warn().Err(err).
				Str("transaction_id", event.TransactionID).
				Msg("failed to append to local audit log")
		}
	}

	uc.counters.IncAudited()
	return outcome, nil
}

// Lookup fetches the latest audit record for a transaction ID.
func (uc *AuditUseCase) Lookup(ctx context.Context, transactionID string) (*domain.AuditRecord, error) {
	return uc.auditRepo.GetByTransactionID(ctx, transactionID)
}
