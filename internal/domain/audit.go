package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// AuditRecord is the persisted projection of a TransferEvent plus the
// ingestion timestamp and raw payload. Keyed by TransactionID and
// append-only: never updated after creation.
type AuditRecord struct {
	ID            string
	TransactionID string
	FromAccountID string
	ToAccountID   string
	Amount        float64
	Timestamp     string
	Raw           []byte
	IngestedAt    time.Time
}

// WriteOutcome reports how the audit store handled a record.
type WriteOutcome string

const (
	// WriteInserted means a new row was created.
	WriteInserted WriteOutcome = "inserted"
	// WriteDuplicate means an identical row already existed.
	WriteDuplicate WriteOutcome = "duplicate"
	// WriteConflict means a row with the same transaction ID but
	// different content exists. The first-accepted content is kept.
	WriteConflict WriteOutcome = "conflict"
)

// RecordFromEvent builds the audit projection of a transfer event.
func RecordFromEvent(event *TransferEvent, raw []byte, ingestedAt time.Time) *AuditRecord {
	return &AuditRecord{
		TransactionID: event.TransactionID,
		FromAccountID: event.FromAccountID,
		ToAccountID:   event.ToAccountID,
		Amount:        event.Amount,
		Timestamp:     event.Timestamp,
		Raw:           raw,
		IngestedAt:    ingestedAt,
	}
}

// ContentEquals reports whether two records carry the same event
// content, ignoring row identity and ingestion time.
func (r *AuditRecord) ContentEquals(other *AuditRecord) bool {
	return r.TransactionID == other.TransactionID &&
		r.FromAccountID == other.FromAccountID &&
		r.ToAccountID == other.ToAccountID &&
		r.Amount == other.Amount &&
		r.Timestamp == other.Timestamp
}

// ContentHash digests the same fields ContentEquals compares. Two
// records are content-equal exactly when their hashes match.
func (r *AuditRecord) ContentHash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%g\x00%s",
		r.TransactionID, r.FromAccountID, r.ToAccountID, r.Amount, r.Timestamp)))
	return hex.EncodeToString(sum[:])
}
