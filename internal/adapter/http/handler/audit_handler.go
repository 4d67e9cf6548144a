package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/michaelwybraniec/bankly/internal/usecase"
)

// AuditHandler serves audit record lookups.
type AuditHandler struct {
	auditUC *usecase.AuditUseCase
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditUC *usecase.AuditUseCase) *AuditHandler {
	return &AuditHandler{auditUC: auditUC}
}

// auditRecordResponse is the lookup response payload.
type auditRecordResponse struct {
	TransactionID string          `json:"transactionId"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        float64         `json:"amount"`
	Timestamp     string          `json:"timestamp"`
	IngestedAt    time.Time       `json:"ingestedAt"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// Get returns the latest audit record for a transaction ID.
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "transaction ID is required")
		return
	}

	record, err := h.auditUC.Lookup(r.Context(), transactionID)
	if err != nil {
		writeError(w, mapDomainError(err), "audit record lookup failed", "no record for the given transaction ID")
		return
	}

	writeJSON(w, http.StatusOK, auditRecordResponse{
		TransactionID: record.TransactionID,
		FromAccountID: record.FromAccountID,
		ToAccountID:   record.ToAccountID,
		Amount:        record.Amount,
		Timestamp:     record.Timestamp,
		IngestedAt:    record.IngestedAt,
		Raw:           json.RawMessage(record.Raw),
	})
}
