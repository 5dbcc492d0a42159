package handlers

import (
	"errors"
	"net/http"

	"classcoins/internal/models"
	"classcoins/internal/service"
)

// StudentHandler serves the roster and per-student ledger state
type StudentHandler struct {
	roster  *service.RosterService
	ledger  *service.LedgerService
	quotas  *service.QuotaService
	rewards *service.RewardService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(roster *service.RosterService, ledger *service.LedgerService, quotas *service.QuotaService, rewards *service.RewardService) *StudentHandler {
	return &StudentHandler{roster: roster, ledger: ledger, quotas: quotas, rewards: rewards}
}

type studentView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	GroupID    string      `json:"group_id"`
	Role       models.Role `json:"role"`
	Coins      int         `json:"coins"`
	TotalScore int         `json:"total_score"`
}

func viewOf(s *models.Student) studentView {
	return studentView{
		ID:         s.ID,
		Name:       s.Name,
		GroupID:    s.GroupID,
		Role:       s.Role,
		Coins:      s.DisplayCoins(),
		TotalScore: s.TotalScore,
	}
}

// List returns the active roster, optionally filtered by group.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.roster.ListStudents(r.URL.Query().Get("group_id"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	views := make([]studentView, 0, len(students))
	for i := range students {
		views = append(views, viewOf(&students[i]))
	}
	respondWithJSON(w, http.StatusOK, views)
}

// Get returns one student.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	student, err := h.roster.GetStudent(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load student", err)
		return
	}
	respondWithJSON(w, http.StatusOK, viewOf(student))
}

type createStudentRequest struct {
	Name    string `json:"name"`
	GroupID string `json:"group_id"`
}

// Create adds a student to the roster.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	student, err := h.roster.CreateStudent(req.Name, req.GroupID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			respondWithError(w, http.StatusNotFound, "Group not found", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusCreated, viewOf(student))
}

// Update applies a partial identity update.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.StudentPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	student, err := h.roster.UpdateStudent(r.PathValue("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
		case errors.Is(err, service.ErrGroupNotFound):
			respondWithError(w, http.StatusNotFound, "Group not found", nil)
		default:
			respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}
	respondWithJSON(w, http.StatusOK, viewOf(student))
}

// Delete soft-deletes a student.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.DeleteStudent(r.PathValue("id")); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete student", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// Balance returns the displayed (clamped) balance for a student.
func (h *StudentHandler) Balance(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if !canActFor(ClaimsFromContext(r.Context()), studentID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions", nil)
		return
	}

	balance, err := h.ledger.DisplayBalance(studentID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"coins": balance})
}

// History returns a student's transaction log.
func (h *StudentHandler) History(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if !canActFor(ClaimsFromContext(r.Context()), studentID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions", nil)
		return
	}

	history, err := h.ledger.History(studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

// Quota returns today's play counts for a student.
func (h *StudentHandler) Quota(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if !canActFor(ClaimsFromContext(r.Context()), studentID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions", nil)
		return
	}

	usage, err := h.quotas.Usage(studentID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load quota usage", err)
		return
	}
	respondWithJSON(w, http.StatusOK, usage)
}

// PendingReward returns the student's unacknowledged reward, or 204.
func (h *StudentHandler) PendingReward(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if !canActFor(ClaimsFromContext(r.Context()), studentID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions", nil)
		return
	}

	pending, err := h.rewards.Pending(studentID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load pending reward", err)
		return
	}
	if pending == nil {
		respondWithJSON(w, http.StatusNoContent, nil)
		return
	}
	respondWithJSON(w, http.StatusOK, pending)
}

// AcknowledgeReward clears the pending reward after the UI has shown
// it. Acknowledging an empty queue is fine.
func (h *StudentHandler) AcknowledgeReward(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if !canActFor(ClaimsFromContext(r.Context()), studentID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions", nil)
		return
	}

	if err := h.rewards.Acknowledge(r.Context(), studentID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to acknowledge reward", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}
