package repository

import (
	"database/sql"
	"fmt"
	"time"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// StudentRepository handles database operations for the cached student records
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, name, group_id, role, coins, total_score, last_reward_id, deleted, created_at, updated_at"

func scanStudent(scan func(dest ...interface{}) error) (*models.Student, error) {
	s := &models.Student{}
	var role string
	err := scan(
		&s.ID,
		&s.Name,
		&s.GroupID,
		&role,
		&s.Coins,
		&s.TotalScore,
		&s.LastRewardID,
		&s.Deleted,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Role = models.Role(role)
	return s, nil
}

// GetByID retrieves a student by ID, including soft-deleted ones
func (r *StudentRepository) GetByID(id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM cc_students WHERE id = ?"
	s, err := scanStudent(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// List retrieves all non-deleted students ordered by id
func (r *StudentRepository) List() ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM cc_students WHERE deleted = ? ORDER BY id ASC"
	return r.queryStudents(query, false)
}

// ListByGroup retrieves all non-deleted students in a group
func (r *StudentRepository) ListByGroup(groupID string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM cc_students WHERE deleted = ? AND group_id = ? ORDER BY id ASC"
	return r.queryStudents(query, false, groupID)
}

func (r *StudentRepository) queryStudents(query string, args ...interface{}) ([]models.Student, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		s, err := scanStudent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Upsert inserts the student or replaces an existing row with the same id.
// The reconciliation loop uses this to republish merged records.
func (r *StudentRepository) Upsert(s *models.Student) error {
	existing, err := r.GetByID(s.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing == nil {
		query := `
			INSERT INTO cc_students (id, name, group_id, role, coins, total_score, last_reward_id, deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.Exec(query, s.ID, s.Name, s.GroupID, string(s.Role), s.Coins, s.TotalScore, s.LastRewardID, s.Deleted, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert student: %w", err)
		}
		return nil
	}

	query := `
		UPDATE cc_students
		SET name = ?, group_id = ?, role = ?, coins = ?, total_score = ?, last_reward_id = ?, deleted = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, s.Name, s.GroupID, string(s.Role), s.Coins, s.TotalScore, s.LastRewardID, s.Deleted, now, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// SetCoins updates only the cached derived balance
func (r *StudentRepository) SetCoins(id string, coins int) error {
	query := "UPDATE cc_students SET coins = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, coins, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set coins: %w", err)
	}
	return nil
}

// SetLastRewardID records which remote reward descriptor has been mirrored
func (r *StudentRepository) SetLastRewardID(id, rewardID string) error {
	query := "UPDATE cc_students SET last_reward_id = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, rewardID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set last reward id: %w", err)
	}
	return nil
}

// SoftDelete marks a student deleted without removing the row; transactions
// keep referencing it.
func (r *StudentRepository) SoftDelete(id string) error {
	query := "UPDATE cc_students SET deleted = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, true, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete student: %w", err)
	}
	return nil
}

// CountByGroup counts non-deleted students referencing a group
func (r *StudentRepository) CountByGroup(groupID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM cc_students WHERE deleted = ? AND group_id = ?"
	err := r.db.QueryRow(query, false, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group members: %w", err)
	}
	return count, nil
}
