package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classcoins/internal/models"
	"classcoins/internal/security"
)

func newTestMiddleware(t *testing.T) (*Middleware, *security.TokenIssuer) {
	t.Helper()
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	limiter := security.NewRateLimiter(100, time.Minute)
	return NewMiddleware(tokens, limiter), tokens
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	m, _ := newTestMiddleware(t)
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/students", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler(recorder, req)

			if recorder.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", recorder.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireAuthPutsClaimsOnContext(t *testing.T) {
	m, tokens := newTestMiddleware(t)
	token, err := tokens.Issue(7, "s1", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var got *security.Claims
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/students", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	handler(recorder, req)

	if got == nil {
		t.Fatal("claims missing from context")
	}
	if got.AccountID != 7 || got.StudentID != "s1" || got.Role != models.RoleStudent {
		t.Errorf("claims = %+v, want account 7 student s1 role student", got)
	}
}

func TestRequireRole(t *testing.T) {
	m, tokens := newTestMiddleware(t)
	staffOnly := m.RequireRole(models.RoleTeacher, models.RoleAdmin)

	tests := []struct {
		name       string
		role       models.Role
		wantStatus int
	}{
		{name: "teacher allowed", role: models.RoleTeacher, wantStatus: http.StatusOK},
		{name: "admin allowed", role: models.RoleAdmin, wantStatus: http.StatusOK},
		{name: "student denied", role: models.RoleStudent, wantStatus: http.StatusForbidden},
		{name: "parent denied", role: models.RoleParent, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tokens.Issue(1, "", tt.role)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}

			handler := staffOnly(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/api/groups", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			recorder := httptest.NewRecorder()

			handler(recorder, req)

			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
		})
	}
}

func TestCanActFor(t *testing.T) {
	tests := []struct {
		name      string
		claims    *security.Claims
		studentID string
		want      bool
	}{
		{name: "nil claims", claims: nil, studentID: "s1", want: false},
		{name: "teacher sees anyone", claims: &security.Claims{Role: models.RoleTeacher}, studentID: "s1", want: true},
		{name: "parent sees anyone", claims: &security.Claims{Role: models.RoleParent}, studentID: "s1", want: true},
		{name: "student sees self", claims: &security.Claims{Role: models.RoleStudent, StudentID: "s1"}, studentID: "s1", want: true},
		{name: "student blocked from others", claims: &security.Claims{Role: models.RoleStudent, StudentID: "s1"}, studentID: "s2", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canActFor(tt.claims, tt.studentID); got != tt.want {
				t.Errorf("canActFor() = %v, want %v", got, tt.want)
			}
		})
	}
}
