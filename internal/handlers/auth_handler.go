package handlers

import (
	"errors"
	"io"
	"net/http"

	"classcoins/internal/models"
	"classcoins/internal/service"
)

// AuthHandler serves login and account management
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	StudentID string      `json:"student_id,omitempty"`
}

// Login exchanges a username and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, account, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		Role:      account.Role,
		StudentID: account.StudentID,
	})
}

type createAccountRequest struct {
	Username      string      `json:"username"`
	Password      string      `json:"password"`
	Role          models.Role `json:"role"`
	StudentID     string      `json:"student_id"`
	GuardianEmail string      `json:"guardian_email"`
}

// CreateAccount creates a staff or student account with explicit
// credentials. Admin only.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, err := h.auth.CreateAccount(req.Username, req.Password, req.Role, req.StudentID, req.GuardianEmail)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			respondWithError(w, http.StatusConflict, "Username already taken", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"id":       account.ID,
		"username": account.Username,
		"role":     account.Role,
	})
}

type provisionResponse struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProvisionStudentAccount generates login credentials for a student.
// The plaintext password appears in this response only.
func (h *AuthHandler) ProvisionStudentAccount(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")

	var req struct {
		GuardianEmail string `json:"guardian_email"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, password, err := h.auth.ProvisionStudentAccount(studentID, req.GuardianEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			respondWithError(w, http.StatusNotFound, "Student not found", nil)
		case errors.Is(err, service.ErrUsernameTaken):
			respondWithError(w, http.StatusConflict, "Student already has an account", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to provision account", err)
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, provisionResponse{
		Username: account.Username,
		Password: password,
	})
}
