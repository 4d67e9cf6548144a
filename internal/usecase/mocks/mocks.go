package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/michaelwybraniec/bankly/internal/domain"
	"github.com/michaelwybraniec/bankly/internal/usecase"
)

// MockAuditRepository is a mock implementation of AuditRepository.
// By default it behaves like the real store: one row per transaction
// ID, identical rewrites are duplicates, different content conflicts.
type MockAuditRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.AuditRecord

	UpsertIfAbsentFunc     func(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error)
	GetByTransactionIDFunc func(ctx context.Context, transactionID string) (*domain.AuditRecord, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{
		records: make(map[string]*domain.AuditRecord),
	}
}

func (m *MockAuditRepository) UpsertIfAbsent(ctx context.Context, record *domain.AuditRecord) (domain.WriteOutcome, error) {
	if m.UpsertIfAbsentFunc != nil {
		return m.UpsertIfAbsentFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[record.TransactionID]; ok {
		if existing.ContentEquals(record) {
			return domain.WriteDuplicate, nil
		}
		return domain.WriteConflict, nil
	}
	m.records[record.TransactionID] = record
	return domain.WriteInserted, nil
}

func (m *MockAuditRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.AuditRecord, error) {
	if m.GetByTransactionIDFunc != nil {
		return m.GetByTransactionIDFunc(ctx, transactionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if record, ok := m.records[transactionID]; ok {
		return record, nil
	}
	return nil, domain.ErrAuditRecordNotFound
}

func (m *MockAuditRepository) DeleteByTransactionID(ctx context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, transactionID)
	return nil
}

// Count returns the number of stored rows.
func (m *MockAuditRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Put seeds an account.
func (m *MockAccountRepository) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

// Get returns a seeded account.
func (m *MockAccountRepository) Get(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[id]
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok {
			copied := *a
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.Balance = balance
		a.UpdatedAt = updatedAt
	}
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[transaction.ID] = transaction
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.transactions[id]; ok {
		return tx, nil
	}
	return nil, domain.ErrAccountNotFound
}

// MockTransaction is a mock database transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	Last      *MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.Last = &MockTransaction{}
	return m.Last, nil
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*domain.TransferEvent

	PublishFunc func(ctx context.Context, event *domain.TransferEvent) error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.TransferEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// MockAuditLogWriter records appended audit records.
type MockAuditLogWriter struct {
	mu      sync.Mutex
	Records []*domain.AuditRecord

	AppendFunc func(record *domain.AuditRecord) error
}

func NewMockAuditLogWriter() *MockAuditLogWriter {
	return &MockAuditLogWriter{}
}

func (m *MockAuditLogWriter) Append(record *domain.AuditRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return nil
}

// MockDedupeCache is an in-memory DedupeCache keyed by transaction ID
// with the stored content hash as value.
type MockDedupeCache struct {
	mu     sync.Mutex
	hashes map[string]string

	SeenFunc     func(ctx context.Context, transactionID, contentHash string) (bool, error)
	MarkSeenFunc func(ctx context.Context, transactionID, contentHash string, ttl time.Duration) error
}

func NewMockDedupeCache() *MockDedupeCache {
	return &MockDedupeCache{hashes: make(map[string]string)}
}

func (m *MockDedupeCache) Seen(ctx context.Context, transactionID, contentHash string) (bool, error) {
	if m.SeenFunc != nil {
		return m.SeenFunc(ctx, transactionID, contentHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.hashes[transactionID]
	return ok && stored == contentHash, nil
}

func (m *MockDedupeCache) MarkSeen(ctx context.Context, transactionID, contentHash string, ttl time.Duration) error {
	if m.MarkSeenFunc != nil {
		return m.MarkSeenFunc(ctx, transactionID, contentHash, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[transactionID] = contentHash
	return nil
}

// Marked returns the cached hash for a transaction ID, if any.
func (m *MockDedupeCache) Marked(transactionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.hashes[transactionID]
	return stored, ok
}

// MockCounters counts audit outcomes.
type MockCounters struct {
	mu      sync.Mutex
	Audited int
	Errors  int
}

func NewMockCounters() *MockCounters {
	return &MockCounters{}
}

func (c *MockCounters) IncAudited() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Audited++
}

func (c *MockCounters) IncErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Errors++
}
