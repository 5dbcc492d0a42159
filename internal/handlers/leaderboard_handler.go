package handlers

import (
	"errors"
	"net/http"

	"classcoins/internal/service"
)

// LeaderboardHandler serves rankings and rank trends
type LeaderboardHandler struct {
	ranking *service.RankingService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(ranking *service.RankingService) *LeaderboardHandler {
	return &LeaderboardHandler{ranking: ranking}
}

// List returns the ranked board, optionally scoped to a group.
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ranking.Leaderboard(r.URL.Query().Get("group_id"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build leaderboard", err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// Trend returns the rank movement classification for one student.
func (h *LeaderboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	studentID := r.PathValue("id")
	if !canActFor(claims, studentID) {
		respondWithError(w, http.StatusForbidden, "Access denied", nil)
		return
	}

	trend, err := h.ranking.Trend(studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to compute trend", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"student_id": studentID, "trend": trend})
}
