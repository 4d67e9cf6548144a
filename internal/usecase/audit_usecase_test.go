package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/michaelwybraniec/bankly/internal/domain"
	"github.com/michaelwybraniec/bankly/internal/usecase"
	"github.com/michaelwybraniec/bankly/internal/usecase/mocks"
)

func newAuditEvent() *domain.TransferEvent {
	return &domain.TransferEvent{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        200,
		TransactionID: "tx-1",
		Timestamp:     "2025-01-15T10:30:00Z",
	}
}

func TestAuditUseCase_RecordInsertsOnce(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	logWriter := mocks.NewMockAuditLogWriter()
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		LogWriter: logWriter,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	raw := []byte(`{"transactionId":"tx-1"}`)
	outcome, err := uc.Record(context.Background(), newAuditEvent(), raw)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.WriteInserted {
		t.Fatalf("expected inserted outcome, got %v", outcome)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected 1 stored row, got %d", repo.Count())
	}
	if len(logWriter.Records) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(logWriter.Records))
	}
	if counters.Audited != 1 || counters.Errors != 0 {
		t.Fatalf("unexpected counters: audited=%d errors=%d", counters.Audited, counters.Errors)
	}
}

func TestAuditUseCase_RecordIsIdempotent(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	raw := []byte(`{"transactionId":"tx-1"}`)
	if _, err := uc.Record(context.Background(), newAuditEvent(), raw); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	outcome, err := uc.Record(context.Background(), newAuditEvent(), raw)
	if err != nil {
		t.Fatalf("redelivery must succeed: %v", err)
	}
	if outcome != domain.WriteDuplicate {
		t.Fatalf("expected duplicate outcome, got %v", outcome)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected 1 stored row after redelivery, got %d", repo.Count())
	}
	if counters.Audited != 2 {
		t.Fatalf("expected success counter 2, got %d", counters.Audited)
	}
}

func TestAuditUseCase_ConflictKeepsFirstWrite(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	if _, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	tampered := newAuditEvent()
	tampered.Amount = 9999

	outcome, err := uc.Record(context.Background(), tampered, []byte(`{}`))
	if !errors.Is(err, domain.ErrConflictingAuditRecord) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if outcome != domain.WriteConflict {
		t.Fatalf("expected conflict outcome, got %v", outcome)
	}

	stored, err := uc.Lookup(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Amount != 200 {
		t.Fatalf("expected first-accepted amount 200, got %v", stored.Amount)
	}
	if counters.Errors != 1 {
		t.Fatalf("expected conflict counted as error, got %d", counters.Errors)
	}
}

func TestAuditUseCase_DedupeCacheShortCircuits(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	dedupe := mocks.NewMockDedupeCache()
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Dedupe:    dedupe,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	if _, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	storeCalls := 0
	repo.UpsertIfAbsentFunc = func(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error) {
		storeCalls++
		return domain.WriteDuplicate, nil
	}

	outcome, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`))
	if err != nil {
		t.Fatalf("redelivery must succeed: %v", err)
	}
	if outcome != domain.WriteDuplicate {
		t.Fatalf("expected duplicate outcome, got %v", outcome)
	}
	if storeCalls != 0 {
		t.Fatalf("expected cached duplicate to skip the store, got %d calls", storeCalls)
	}
	if counters.Audited != 2 {
		t.Fatalf("expected success counter 2, got %d", counters.Audited)
	}
}

func TestAuditUseCase_DedupeCacheFailureFallsBackToStore(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	dedupe := mocks.NewMockDedupeCache()
	dedupe.SeenFunc = func(ctx context.Context, transactionID, contentHash string) (bool, error) {
		return false, errors.New("redis away")
	}

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Dedupe:    dedupe,
		Counters:  mocks.NewMockCounters(),
		Logger:    zerolog.Nop(),
	})

	outcome, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`))
	if err != nil {
		t.Fatalf("cache outage must not fail the write: %v", err)
	}
	if outcome != domain.WriteInserted {
		t.Fatalf("expected inserted outcome, got %v", outcome)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected the store to take the write, got %d rows", repo.Count())
	}
}

func TestAuditUseCase_StoreFailureIsNotCached(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	dedupe := mocks.NewMockDedupeCache()
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Dedupe:    dedupe,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	storeErr := errors.New("store down")
	repo.UpsertIfAbsentFunc = func(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error) {
		return "", storeErr
	}

	if _, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`)); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, marked := dedupe.Marked("tx-1"); marked {
		t.Fatal("failed write must not be remembered as done")
	}

	// Store recovers; the broker redelivers the same event.
	repo.UpsertIfAbsentFunc = nil

	outcome, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`))
	if err != nil {
		t.Fatalf("redelivery after recovery must succeed: %v", err)
	}
	if outcome != domain.WriteInserted {
		t.Fatalf("expected inserted outcome after recovery, got %v", outcome)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected 1 stored row after recovery, got %d", repo.Count())
	}
	if counters.Audited != 1 || counters.Errors != 1 {
		t.Fatalf("unexpected counters: audited=%d errors=%d", counters.Audited, counters.Errors)
	}
}

func TestAuditUseCase_ConflictDetectedThroughCache(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	dedupe := mocks.NewMockDedupeCache()
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Dedupe:    dedupe,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	if _, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	// Redelivery of the same ID with tampered content must reach the
	// store and surface the conflict, not short-circuit as duplicate.
	tampered := newAuditEvent()
	tampered.Amount = 9999

	outcome, err := uc.Record(context.Background(), tampered, []byte(`{}`))
	if !errors.Is(err, domain.ErrConflictingAuditRecord) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if outcome != domain.WriteConflict {
		t.Fatalf("expected conflict outcome, got %v", outcome)
	}
	if counters.Errors != 1 {
		t.Fatalf("expected conflict counted as error, got %d", counters.Errors)
	}

	stored, err := uc.Lookup(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Amount != 200 {
		t.Fatalf("expected first-accepted amount 200, got %v", stored.Amount)
	}

	// The cache still holds the first-accepted content hash.
	hash, marked := dedupe.Marked("tx-1")
	if !marked || hash != domain.RecordFromEvent(newAuditEvent(), nil, time.Time{}).ContentHash() {
		t.Fatalf("expected cache to keep first-accepted hash, got %q (marked=%v)", hash, marked)
	}
}

func TestAuditUseCase_StoreErrorIsCounted(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	storeErr := errors.New("connection refused")
	repo.UpsertIfAbsentFunc = func(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error) {
		return "", storeErr
	}
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	_, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
	if counters.Errors != 1 || counters.Audited != 0 {
		t.Fatalf("unexpected counters: audited=%d errors=%d", counters.Audited, counters.Errors)
	}
}

func TestAuditUseCase_LogAppendFailureIsNotFatal(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	logWriter := mocks.NewMockAuditLogWriter()
	logWriter.AppendFunc = func(record *domain.AuditRecord) error {
		return errors.New("disk full")
	}
	counters := mocks.NewMockCounters()

	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: repo,
		LogWriter: logWriter,
		Counters:  counters,
		Logger:    zerolog.Nop(),
	})

	outcome, err := uc.Record(context.Background(), newAuditEvent(), []byte(`{}`))
	if err != nil {
		t.Fatalf("log failure must not fail the write: %v", err)
	}
	if outcome != domain.WriteInserted {
		t.Fatalf("expected inserted outcome, got %v", outcome)
	}
	if counters.Audited != 1 {
		t.Fatalf("expected success counter 1, got %d", counters.Audited)
	}
}

func TestAuditUseCase_LookupMissing(t *testing.T) {
	uc := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: mocks.NewMockAuditRepository(),
		Counters:  mocks.NewMockCounters(),
		Logger:    zerolog.Nop(),
	})

	_, err := uc.Lookup(context.Background(), "nope")
	if !errors.Is(err, domain.ErrAuditRecordNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
