package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"classcoins/internal/models"
	"classcoins/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenIssuer
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenIssuer, limiter *security.RateLimiter) *Middleware {
	return &Middleware{tokens: tokens, limiter: limiter}
}

// RequireAuth validates the bearer token and puts its claims on the
// request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole wraps RequireAuth and additionally checks the caller's
// role against an allow list.
func (m *Middleware) RequireRole(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			for _, role := range roles {
				if claims.Role == role {
					next(w, r)
					return
				}
			}
			respondWithError(w, http.StatusForbidden, "Insufficient permissions", nil)
		})
	}
}

// RateLimit applies the per-IP limiter; used on the login endpoint.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}
		next(w, r)
	}
}

// Logging logs every request with its duration
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// ClaimsFromContext retrieves the verified token claims from the
// request context, or nil outside RequireAuth.
func ClaimsFromContext(ctx context.Context) *security.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	if !ok {
		return nil
	}
	return claims
}

// canActFor reports whether the caller may read state belonging to
// studentID. Staff roles see everyone; students only themselves.
func canActFor(claims *security.Claims, studentID string) bool {
	if claims == nil {
		return false
	}
	switch claims.Role {
	case models.RoleTeacher, models.RoleAdmin, models.RoleParent:
		return true
	}
	return claims.StudentID == studentID
}
