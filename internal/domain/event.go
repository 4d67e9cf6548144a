package domain

import (
	"encoding/json"
	"math"
)

// TransferEvent is the wire payload consumed by the audit pipeline.
// TransactionID is the natural idempotency key for audit persistence.
type TransferEvent struct {
	FromAccountID string  `json:"fromAccountId"`
	ToAccountID   string  `json:"toAccountId"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
	Timestamp     string  `json:"timestamp"`
}

// ValidateTransferEvent decodes and validates a raw transfer event.
// It checks shape only: all five fields present with the right types.
// Business rules such as amount positivity are not enforced here; the
// event is recorded as reported.
func ValidateTransferEvent(raw []byte) (*TransferEvent, error) {
	if len(raw) == 0 {
		return nil, &SchemaViolationError{Reason: "empty payload"}
	}

	// Decode into a map first so missing fields can be told apart
	// from zero values.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &SchemaViolationError{Reason: err.Error()}
	}

	event := &TransferEvent{}

	if err := requireString(fields, "fromAccountId", &event.FromAccountID); err != nil {
		return nil, err
	}
	if err := requireString(fields, "toAccountId", &event.ToAccountID); err != nil {
		return nil, err
	}
	if err := requireNumber(fields, "amount", &event.Amount); err != nil {
		return nil, err
	}
	if err := requireString(fields, "transactionId", &event.TransactionID); err != nil {
		return nil, err
	}

	ts, ok := fields["timestamp"]
	if !ok {
		return nil, &SchemaViolationError{Field: "timestamp", Reason: "missing"}
	}
	if err := json.Unmarshal(ts, &event.Timestamp); err != nil {
		return nil, &SchemaViolationError{Field: "timestamp", Reason: "must be a string"}
	}

	return event, nil
}

func requireString(fields map[string]json.RawMessage, name string, dst *string) error {
	raw, ok := fields[name]
	if !ok {
		return &SchemaViolationError{Field: name, Reason: "missing"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &SchemaViolationError{Field: name, Reason: "must be a string"}
	}
	if *dst == "" {
		return &SchemaViolationError{Field: name, Reason: "must not be empty"}
	}
	return nil
}

func requireNumber(fields map[string]json.RawMessage, name string, dst *float64) error {
	raw, ok := fields[name]
	if !ok {
		return &SchemaViolationError{Field: name, Reason: "missing"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &SchemaViolationError{Field: name, Reason: "must be a number"}
	}
	if math.IsNaN(*dst) || math.IsInf(*dst, 0) {
		return &SchemaViolationError{Field: name, Reason: "must be finite"}
	}
	return nil
}
