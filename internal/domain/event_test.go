package domain

import (
	"errors"
	"testing"
	"time"
)

func testTime() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestValidateTransferEvent(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expectField string
		expectError bool
	}{
		{
			name: "valid event",
			raw:  `{"fromAccountId":"a1","toAccountId":"a2","amount":123,"transactionId":"tx-1","timestamp":"2025-01-01T00:00:00Z"}`,
		},
		{
			name:        "empty payload",
			raw:         "",
			expectError: true,
		},
		{
			name:        "malformed json",
			raw:         `{"fromAccountId":`,
			expectError: true,
		},
		{
			name:        "missing amount",
			raw:         `{"fromAccountId":"a1","toAccountId":"a2","transactionId":"tx-1","timestamp":"2025-01-01T00:00:00Z"}`,
			expectField: "amount",
			expectError: true,
		},
		{
			name:        "amount wrong type",
			raw:         `{"fromAccountId":"a1","toAccountId":"a2","amount":"123","transactionId":"tx-1","timestamp":"2025-01-01T00:00:00Z"}`,
			expectField: "amount",
			expectError: true,
		},
		{
			name:        "empty transaction id",
			raw:         `{"fromAccountId":"a1","toAccountId":"a2","amount":1,"transactionId":"","timestamp":"2025-01-01T00:00:00Z"}`,
			expectField: "transactionId",
			expectError: true,
		},
		{
			name:        "missing from account",
			raw:         `{"toAccountId":"a2","amount":1,"transactionId":"tx-1","timestamp":"2025-01-01T00:00:00Z"}`,
			expectField: "fromAccountId",
			expectError: true,
		},
		{
			name:        "timestamp wrong type",
			raw:         `{"fromAccountId":"a1","toAccountId":"a2","amount":1,"transactionId":"tx-1","timestamp":1735689600}`,
			expectField: "timestamp",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ValidateTransferEvent([]byte(tt.raw))

			if !tt.expectError {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if event.TransactionID != "tx-1" {
					t.Errorf("expected transaction ID tx-1, got %s", event.TransactionID)
				}
				return
			}

			if err == nil {
				t.Fatal("expected a schema violation")
			}

			var sv *SchemaViolationError
			if !errors.As(err, &sv) {
				t.Fatalf("expected SchemaViolationError, got %T", err)
			}
			if tt.expectField != "" && sv.Field != tt.expectField {
				t.Errorf("expected offending field %s, got %s", tt.expectField, sv.Field)
			}
		})
	}
}

func TestValidateTransferEvent_ExtraFieldsIgnored(t *testing.T) {
	raw := `{"fromAccountId":"a1","toAccountId":"a2","amount":5,"transactionId":"tx-9","timestamp":"t","note":"ignored"}`

	event, err := ValidateTransferEvent([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Amount != 5 {
		t.Errorf("expected amount 5, got %v", event.Amount)
	}
}

func TestAuditRecord_ContentEquals(t *testing.T) {
	event := &TransferEvent{
		FromAccountID: "a1",
		ToAccountID:   "a2",
		Amount:        10,
		TransactionID: "tx-1",
		Timestamp:     "2025-01-01T00:00:00Z",
	}

	a := RecordFromEvent(event, []byte("{}"), testTime())
	b := RecordFromEvent(event, []byte(`{"different":"raw"}`), testTime().Add(1))

	if !a.ContentEquals(b) {
		t.Error("records with identical event content should be equal")
	}

	changed := *event
	changed.Amount = 11
	c := RecordFromEvent(&changed, []byte("{}"), testTime())
	if a.ContentEquals(c) {
		t.Error("records with different amounts should not be equal")
	}
}
