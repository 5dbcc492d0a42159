package repository

import (
	"database/sql"
	"fmt"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// QuotaRepository handles database operations for daily play counters.
// One row exists per (student, feature); the date column marks which
// calendar day the count belongs to.
type QuotaRepository struct {
	db *database.DB
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *database.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Get retrieves the counter for a (student, feature) pair, whatever day it
// is from. Staleness is the service layer's concern.
func (r *QuotaRepository) Get(studentID string, feature models.Feature) (*models.QuotaRecord, error) {
	query := "SELECT student_id, feature, date, plays FROM cc_quota_records WHERE student_id = ? AND feature = ?"
	q := &models.QuotaRecord{}
	var feat string
	err := r.db.QueryRow(query, studentID, string(feature)).Scan(&q.StudentID, &feat, &q.Date, &q.Plays)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota record: %w", err)
	}
	q.Feature = models.Feature(feat)
	return q, nil
}

// Upsert writes the counter, replacing a stale row from a previous day
func (r *QuotaRepository) Upsert(q *models.QuotaRecord) error {
	existing, err := r.Get(q.StudentID, q.Feature)
	if err != nil {
		return err
	}

	if existing == nil {
		query := "INSERT INTO cc_quota_records (student_id, feature, date, plays) VALUES (?, ?, ?, ?)"
		_, err := r.db.Exec(query, q.StudentID, string(q.Feature), q.Date, q.Plays)
		if err != nil {
			return fmt.Errorf("failed to insert quota record: %w", err)
		}
		return nil
	}

	query := "UPDATE cc_quota_records SET date = ?, plays = ? WHERE student_id = ? AND feature = ?"
	_, err = r.db.Exec(query, q.Date, q.Plays, q.StudentID, string(q.Feature))
	if err != nil {
		return fmt.Errorf("failed to update quota record: %w", err)
	}
	return nil
}

// ListByStudent retrieves all counters for a student
func (r *QuotaRepository) ListByStudent(studentID string) ([]models.QuotaRecord, error) {
	query := "SELECT student_id, feature, date, plays FROM cc_quota_records WHERE student_id = ? ORDER BY feature ASC"
	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota records: %w", err)
	}
	defer rows.Close()

	var records []models.QuotaRecord
	for rows.Next() {
		var q models.QuotaRecord
		var feat string
		if err := rows.Scan(&q.StudentID, &feat, &q.Date, &q.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan quota record: %w", err)
		}
		q.Feature = models.Feature(feat)
		records = append(records, q)
	}
	return records, rows.Err()
}
