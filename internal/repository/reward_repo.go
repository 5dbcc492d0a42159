package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// RewardRepository handles database operations for the pending-reward queue
type RewardRepository struct {
	db *database.DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *database.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Get retrieves a student's pending reward aggregate, nil when none is staged
func (r *RewardRepository) Get(studentID string) (*models.PendingReward, error) {
	query := "SELECT student_id, amount, reasons, updated_at FROM cc_pending_rewards WHERE student_id = ?"
	p := &models.PendingReward{}
	var reasonsJSON string
	err := r.db.QueryRow(query, studentID).Scan(&p.StudentID, &p.Amount, &reasonsJSON, &p.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reward: %w", err)
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &p.Reasons); err != nil {
		return nil, fmt.Errorf("failed to decode reward reasons: %w", err)
	}
	return p, nil
}

// Upsert writes the aggregate for a student
func (r *RewardRepository) Upsert(p *models.PendingReward) error {
	reasonsJSON, err := json.Marshal(p.Reasons)
	if err != nil {
		return fmt.Errorf("failed to encode reward reasons: %w", err)
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	existing, err := r.Get(p.StudentID)
	if err != nil {
		return err
	}

	if existing == nil {
		query := "INSERT INTO cc_pending_rewards (student_id, amount, reasons, updated_at) VALUES (?, ?, ?, ?)"
		_, err := r.db.Exec(query, p.StudentID, p.Amount, string(reasonsJSON), p.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert pending reward: %w", err)
		}
		return nil
	}

	query := "UPDATE cc_pending_rewards SET amount = ?, reasons = ?, updated_at = ? WHERE student_id = ?"
	_, err = r.db.Exec(query, p.Amount, string(reasonsJSON), p.Timestamp, p.StudentID)
	if err != nil {
		return fmt.Errorf("failed to update pending reward: %w", err)
	}
	return nil
}

// Delete removes a student's aggregate. Deleting a missing row is fine,
// which makes a duplicate acknowledge a no-op.
func (r *RewardRepository) Delete(studentID string) error {
	query := "DELETE FROM cc_pending_rewards WHERE student_id = ?"
	_, err := r.db.Exec(query, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete pending reward: %w", err)
	}
	return nil
}
