package security

import (
	"testing"
	"time"

	"classcoins/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(7, "s1", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.AccountID != 7 {
		t.Errorf("AccountID = %d, want 7", claims.AccountID)
	}
	if claims.StudentID != "s1" {
		t.Errorf("StudentID = %q, want s1", claims.StudentID)
	}
	if claims.Role != models.RoleStudent {
		t.Errorf("Role = %q, want student", claims.Role)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	tests := []struct {
		name  string
		token func() string
	}{
		{
			name:  "garbage token",
			token: func() string { return "not.a.token" },
		},
		{
			name: "wrong secret",
			token: func() string {
				tok, _ := other.Issue(1, "", models.RoleAdmin)
				return tok
			},
		},
		{
			name: "expired token",
			token: func() string {
				expired := NewTokenIssuer("test-secret", -time.Minute)
				tok, _ := expired.Issue(1, "", models.RoleTeacher)
				return tok
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.token()); err == nil {
				t.Error("Verify() accepted an invalid token")
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "correct horse battery"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == password {
		t.Error("HashPassword() returned unhashed password")
	}
	if !CheckPassword(hash, password) {
		t.Error("CheckPassword() rejected correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() accepted wrong password")
	}
}
