package repository

import (
	"database/sql"
	"fmt"
	"time"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// AccountRepository handles database operations for login accounts
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = "id, username, password_hash, role, student_id, guardian_email, created_at, updated_at"

func scanAccount(scan func(dest ...interface{}) error) (*models.Account, error) {
	a := &models.Account{}
	var role string
	err := scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.StudentID, &a.GuardianEmail, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	return a, nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(username string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM cc_accounts WHERE username = ?"
	a, err := scanAccount(r.db.QueryRow(query, username).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// GetByStudentID retrieves the account linked to a student record
func (r *AccountRepository) GetByStudentID(studentID string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM cc_accounts WHERE student_id = ?"
	a, err := scanAccount(r.db.QueryRow(query, studentID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by student: %w", err)
	}
	return a, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(a *models.Account) error {
	now := time.Now()
	query := `
		INSERT INTO cc_accounts (username, password_hash, role, student_id, guardian_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, a.Username, a.PasswordHash, string(a.Role), a.StudentID, a.GuardianEmail, now, now)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}
