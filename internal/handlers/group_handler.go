package handlers

import (
	"errors"
	"net/http"

	"classcoins/internal/service"
)

// GroupHandler serves group management
type GroupHandler struct {
	roster *service.RosterService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(roster *service.RosterService) *GroupHandler {
	return &GroupHandler{roster: roster}
}

// List returns all groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.roster.ListGroups()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list groups", err)
		return
	}
	respondWithJSON(w, http.StatusOK, groups)
}

type groupRequest struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
}

// Create adds a group.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	group, err := h.roster.CreateGroup(req.Name, req.Schedule)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusCreated, group)
}

// Update renames a group or changes its schedule.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	group, err := h.roster.UpdateGroup(r.PathValue("id"), req.Name, req.Schedule)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			respondWithError(w, http.StatusNotFound, "Group not found", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondWithJSON(w, http.StatusOK, group)
}

// Delete removes a group; refused while member students exist.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.roster.DeleteGroup(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			respondWithError(w, http.StatusNotFound, "Group not found", nil)
		case errors.Is(err, service.ErrGroupHasMembers):
			respondWithError(w, http.StatusConflict, "Group still has member students", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to delete group", err)
		}
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}
