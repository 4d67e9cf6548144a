package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

func TestWriterAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open writer: %v", err)
	}
	defer w.Close()

	records := []*domain.AuditRecord{
		{
			TransactionID: "tx-1",
			FromAccountID: "a1",
			ToAccountID:   "a2",
			Amount:        100,
			Timestamp:     "2025-01-01T00:00:00Z",
			Raw:           []byte(`{"amount":100}`),
			IngestedAt:    time.Now().UTC(),
		},
		{
			TransactionID: "tx-2",
			FromAccountID: "a2",
			ToAccountID:   "a3",
			Amount:        50,
			Timestamp:     "2025-01-01T00:01:00Z",
			Raw:           []byte(`{"amount":50}`),
			IngestedAt:    time.Now().UTC(),
		},
	}

	for _, r := range records {
		if err := w.Append(r); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer file.Close()

	var lines []entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		lines = append(lines, e)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].TransactionID != "tx-1" || lines[1].TransactionID != "tx-2" {
		t.Fatalf("unexpected line order: %+v", lines)
	}
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open writer: %v", err)
	}
	if err := w.Append(&domain.AuditRecord{TransactionID: "tx-1"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	w.Close()

	w, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen writer: %v", err)
	}
	if err := w.Append(&domain.AuditRecord{TransactionID: "tx-2"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	count := 0
	for _, b := range data {
		if b == '\n' {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 lines after reopen, got %d", count)
	}
}
