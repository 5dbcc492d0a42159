package service

import (
	"errors"
	"fmt"

	"classcoins/internal/credentials"
	"classcoins/internal/models"
	"classcoins/internal/security"
	"classcoins/internal/validation"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService handles login and account provisioning.
type AuthService struct {
	accounts AccountStore
	students StudentStore
	tokens   *security.TokenIssuer
}

// NewAuthService creates an auth service.
func NewAuthService(accounts AccountStore, students StudentStore, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{
		accounts: accounts,
		students: students,
		tokens:   tokens,
	}
}

// Login verifies a username and password and returns a signed access
// token plus the account it belongs to.
func (s *AuthService) Login(username, password string) (string, *models.Account, error) {
	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(account.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.StudentID, account.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, account, nil
}

// CreateAccount creates a login account with explicit credentials.
// Teacher, parent and admin accounts are created this way.
func (s *AuthService) CreateAccount(username, password string, role models.Role, studentID, guardianEmail string) (*models.Account, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateRole(role); err != nil {
		return nil, err
	}
	if guardianEmail != "" {
		if err := validation.ValidateEmail(guardianEmail); err != nil {
			return nil, err
		}
	}

	existing, err := s.accounts.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:      username,
		PasswordHash:  hash,
		Role:          role,
		StudentID:     studentID,
		GuardianEmail: guardianEmail,
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// ProvisionStudentAccount creates a student login with generated
// credentials. The plaintext password is returned once so a teacher can
// hand it out; only the hash is stored.
func (s *AuthService) ProvisionStudentAccount(studentID, guardianEmail string) (*models.Account, string, error) {
	student, err := s.students.GetByID(studentID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, "", ErrStudentNotFound
	}

	existing, err := s.accounts.GetByStudentID(studentID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, "", ErrUsernameTaken
	}

	var username string
	for attempt := 0; attempt < 10; attempt++ {
		candidate, err := credentials.GenerateStudentUsername()
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate username: %w", err)
		}
		taken, err := s.accounts.GetByUsername(candidate)
		if err != nil {
			return nil, "", fmt.Errorf("failed to check username: %w", err)
		}
		if taken == nil {
			username = candidate
			break
		}
	}
	if username == "" {
		return nil, "", fmt.Errorf("could not find a free username")
	}

	password, err := credentials.GenerateStudentPassword()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate password: %w", err)
	}

	account, err := s.CreateAccount(username, password, models.RoleStudent, studentID, guardianEmail)
	if err != nil {
		return nil, "", err
	}
	return account, password, nil
}
