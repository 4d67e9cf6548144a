package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrSameAccount     = errors.New("cannot transfer to same account")

	// Audit errors
	ErrAuditRecordNotFound    = errors.New("audit record not found")
	ErrConflictingAuditRecord = errors.New("conflicting audit record for transaction")
)

// RejectionKind classifies why a transfer was refused.
type RejectionKind string

const (
	KindInvalidAccount    RejectionKind = "InvalidAccount"
	KindInactiveAccount   RejectionKind = "InactiveAccount"
	KindInvalidAmount     RejectionKind = "InvalidAmount"
	KindInsufficientFunds RejectionKind = "InsufficientFunds"
	KindCurrencyMismatch  RejectionKind = "CurrencyMismatch"
)

// Rejection is a typed refusal returned by the transfer decision engine.
// Callers branch on Kind rather than parsing Message.
type Rejection struct {
	Kind    RejectionKind
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// reject builds a Rejection error.
func reject(kind RejectionKind, message string) error {
	return &Rejection{Kind: kind, Message: message}
}

// RejectionKindOf extracts the rejection kind from an error, if any.
func RejectionKindOf(err error) (RejectionKind, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind, true
	}
	return "", false
}

// SchemaViolationError reports a malformed transfer event payload.
// Field names the offending field; for decode failures it is empty
// and Reason carries the decoder error.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema violation: %s", e.Reason)
	}
	return fmt.Sprintf("schema violation: field %q: %s", e.Field, e.Reason)
}

// IsSchemaViolation reports whether err is a SchemaViolationError.
func IsSchemaViolation(err error) bool {
	var sv *SchemaViolationError
	return errors.As(err, &sv)
}
