package validation

import (
	"fmt"
	"regexp"
	"strings"

	"classcoins/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateName checks a student or group display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if len(name) > 100 {
		return ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}
	return nil
}

// ValidateUsername checks a login username.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if len(username) < 3 {
		return ValidationError{Field: "username", Message: "username must be at least 3 characters"}
	}
	return nil
}

// ValidatePassword checks password requirements for new accounts.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateEmail checks a guardian email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateScore checks a homework or lesson score.
func ValidateScore(score int) error {
	if score < 0 || score > 100 {
		return ValidationError{Field: "score", Message: "score must be between 0 and 100"}
	}
	return nil
}

// ValidateRewardAmount checks a coin amount that must be positive.
func ValidateRewardAmount(amount int) error {
	if amount <= 0 {
		return ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}

// ValidateFeature checks a quota feature name.
func ValidateFeature(feature models.Feature) error {
	if !feature.Valid() {
		return ValidationError{Field: "feature", Message: fmt.Sprintf("unknown feature %q", feature)}
	}
	return nil
}

// ValidateRole checks an account role.
func ValidateRole(role models.Role) error {
	if !role.Valid() {
		return ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	return nil
}
