package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"classcoins/internal/models"
	"classcoins/internal/service"
	"classcoins/internal/validation"
)

// GameHandler serves game play quota checks and game result rewards
type GameHandler struct {
	ledger *service.LedgerService
	quotas *service.QuotaService
}

// NewGameHandler creates a new game handler
func NewGameHandler(ledger *service.LedgerService, quotas *service.QuotaService) *GameHandler {
	return &GameHandler{ledger: ledger, quotas: quotas}
}

// CanPlay reports whether the calling student has plays remaining today.
func (h *GameHandler) CanPlay(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	feature := models.Feature(r.PathValue("feature"))
	if err := validation.ValidateFeature(feature); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if studentID == "" && claims != nil {
		studentID = claims.StudentID
	}
	if !canActFor(claims, studentID) {
		respondWithError(w, http.StatusForbidden, "Access denied", nil)
		return
	}

	remaining, err := h.quotas.Remaining(studentID, feature)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check quota", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"feature":   feature,
		"remaining": remaining,
		"can_play":  remaining > 0,
	})
}

type gameResultRequest struct {
	Feature models.Feature `json:"feature"`
	Won     bool           `json:"won"`
	Coins   int            `json:"coins"`
}

// RecordResult consumes a play from the daily quota and, on a win,
// appends a coin award to the student's log.
func (h *GameHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.StudentID == "" {
		respondWithError(w, http.StatusForbidden, "Only students record game results", nil)
		return
	}

	var req gameResultRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validation.ValidateFeature(req.Feature); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if _, err := h.quotas.RecordPlay(claims.StudentID, req.Feature); err != nil {
		if errors.Is(err, service.ErrQuotaExhausted) {
			respondWithError(w, http.StatusTooManyRequests, "Daily play limit reached", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to record play", err)
		return
	}

	if !req.Won {
		respondWithJSON(w, http.StatusOK, map[string]any{"won": false})
		return
	}

	txn, err := h.ledger.AwardGameWin(claims.StudentID, req.Coins, fmt.Sprintf("Won %s", req.Feature))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusCreated, txn)
}

type lessonCompleteRequest struct {
	Lesson string `json:"lesson"`
	Coins  int    `json:"coins"`
}

// CompleteLesson consumes a lesson play and awards completion coins.
func (h *GameHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.StudentID == "" {
		respondWithError(w, http.StatusForbidden, "Only students complete lessons", nil)
		return
	}

	var req lessonCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := h.quotas.RecordPlay(claims.StudentID, models.FeatureLesson); err != nil {
		if errors.Is(err, service.ErrQuotaExhausted) {
			respondWithError(w, http.StatusTooManyRequests, "Daily lesson limit reached", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to record play", err)
		return
	}

	txn, err := h.ledger.AwardLesson(claims.StudentID, req.Coins, fmt.Sprintf("Completed lesson %s", req.Lesson))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusCreated, txn)
}
