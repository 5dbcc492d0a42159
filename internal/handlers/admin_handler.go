package handlers

import (
	"errors"
	"net/http"

	"classcoins/internal/service"
)

// AdminHandler serves manual ledger adjustments
type AdminHandler struct {
	ledger *service.LedgerService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(ledger *service.LedgerService) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

type adjustRequest struct {
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

// Adjust appends a manual coin correction to a student's log. The
// adjustment lands in the log like any other entry, so reconciliation
// and balance folds see it without special cases.
func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	txn, err := h.ledger.AdminAdjust(r.PathValue("id"), req.Amount, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusCreated, txn)
}
