package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// Writer appends audit records to a local JSON-lines file. The file is
// a tailing/debugging aid, not the source of truth: callers treat
// append failures as non-fatal.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// entry is the serialized line format.
type entry struct {
	TransactionID string          `json:"transactionId"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        float64         `json:"amount"`
	Timestamp     string          `json:"timestamp"`
	IngestedAt    time.Time       `json:"ingestedAt"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// Open opens (or creates) the append-only log at path.
func Open(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &Writer{file: file}, nil
}

// Append writes one record as a single JSON line.
func (w *Writer) Append(record *domain.AuditRecord) error {
	line, err := json.Marshal(entry{
		TransactionID: record.TransactionID,
		FromAccountID: record.FromAccountID,
		ToAccountID:   record.ToAccountID,
		Amount:        record.Amount,
		Timestamp:     record.Timestamp,
		IngestedAt:    record.IngestedAt,
		Raw:           json.RawMessage(record.Raw),
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append audit log line: %w", err)
	}

	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
