package handlers

import (
	"errors"
	"io"
	"net/http"

	"classcoins/internal/models"
	"classcoins/internal/service"
)

// GradingHandler serves homework submission and review
type GradingHandler struct {
	grading *service.GradingService
	quotas  *service.QuotaService
}

// NewGradingHandler creates a new grading handler
func NewGradingHandler(grading *service.GradingService, quotas *service.QuotaService) *GradingHandler {
	return &GradingHandler{grading: grading, quotas: quotas}
}

type submitRequest struct {
	Note string `json:"note"`
}

// Submit records a homework hand-in for the calling student. Homework
// submission counts against the daily homework quota.
func (h *GradingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.StudentID == "" {
		respondWithError(w, http.StatusForbidden, "Only students submit homework", nil)
		return
	}

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := h.quotas.RecordPlay(claims.StudentID, models.FeatureHomework); err != nil {
		if errors.Is(err, service.ErrQuotaExhausted) {
			respondWithError(w, http.StatusTooManyRequests, "Daily homework limit reached", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to record quota", err)
		return
	}

	txn, err := h.grading.Submit(claims.StudentID, req.Note)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to submit homework", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, txn)
}

type gradeRequest struct {
	Score int `json:"score"`
	Coins int `json:"coins"`
}

// Grade settles a submitted homework with a score and coin award.
func (h *GradingHandler) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	txn, err := h.grading.Grade(r.Context(), r.PathValue("id"), req.Score, req.Coins)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			respondWithError(w, http.StatusNotFound, "Transaction not found", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusOK, txn)
}

// Reject settles a submitted homework without coins.
func (h *GradingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Score int `json:"score"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	txn, err := h.grading.Reject(r.PathValue("id"), req.Score)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			respondWithError(w, http.StatusNotFound, "Transaction not found", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusOK, txn)
}

// RetrySideEffects re-runs unfinished grading side effects.
func (h *GradingHandler) RetrySideEffects(w http.ResponseWriter, r *http.Request) {
	if err := h.grading.RetrySideEffects(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			respondWithError(w, http.StatusNotFound, "Transaction not found", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}
