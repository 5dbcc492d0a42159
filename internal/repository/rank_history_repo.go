package repository

import (
	"database/sql"
	"fmt"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// RankHistoryRepository handles database operations for the rolling
// rank-history series used by trend detection.
type RankHistoryRepository struct {
	db *database.DB
}

// NewRankHistoryRepository creates a new rank history repository
func NewRankHistoryRepository(db *database.DB) *RankHistoryRepository {
	return &RankHistoryRepository{db: db}
}

// ListByStudent retrieves a student's snapshots ordered oldest first
func (r *RankHistoryRepository) ListByStudent(studentID string) ([]models.RankSnapshot, error) {
	query := "SELECT student_id, date, standing, coins, total_score FROM cc_rank_snapshots WHERE student_id = ? ORDER BY date ASC"
	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rank snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.RankSnapshot
	for rows.Next() {
		var s models.RankSnapshot
		if err := rows.Scan(&s.StudentID, &s.Date, &s.Rank, &s.Coins, &s.TotalScore); err != nil {
			return nil, fmt.Errorf("failed to scan rank snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// Record writes one sample per (student, date) and prunes the series to
// the last RankHistoryCap days.
func (r *RankHistoryRepository) Record(snap models.RankSnapshot) error {
	var existing string
	query := "SELECT date FROM cc_rank_snapshots WHERE student_id = ? AND date = ?"
	err := r.db.QueryRow(query, snap.StudentID, snap.Date).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		insert := "INSERT INTO cc_rank_snapshots (student_id, date, standing, coins, total_score) VALUES (?, ?, ?, ?, ?)"
		if _, err := r.db.Exec(insert, snap.StudentID, snap.Date, snap.Rank, snap.Coins, snap.TotalScore); err != nil {
			return fmt.Errorf("failed to insert rank snapshot: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check rank snapshot: %w", err)
	default:
		update := "UPDATE cc_rank_snapshots SET standing = ?, coins = ?, total_score = ? WHERE student_id = ? AND date = ?"
		if _, err := r.db.Exec(update, snap.Rank, snap.Coins, snap.TotalScore, snap.StudentID, snap.Date); err != nil {
			return fmt.Errorf("failed to update rank snapshot: %w", err)
		}
	}

	return r.prune(snap.StudentID)
}

// prune drops samples older than the newest RankHistoryCap days (FIFO)
func (r *RankHistoryRepository) prune(studentID string) error {
	var cutoff string
	query := "SELECT date FROM cc_rank_snapshots WHERE student_id = ? ORDER BY date DESC LIMIT 1 OFFSET ?"
	err := r.db.QueryRow(query, studentID, models.RankHistoryCap-1).Scan(&cutoff)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find rank history cutoff: %w", err)
	}

	del := "DELETE FROM cc_rank_snapshots WHERE student_id = ? AND date < ?"
	if _, err := r.db.Exec(del, studentID, cutoff); err != nil {
		return fmt.Errorf("failed to prune rank history: %w", err)
	}
	return nil
}
