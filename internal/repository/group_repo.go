package repository

import (
	"database/sql"
	"fmt"
	"time"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// GroupRepository handles database operations for groups
type GroupRepository struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// GetByID retrieves a group by ID
func (r *GroupRepository) GetByID(id string) (*models.Group, error) {
	query := "SELECT id, name, schedule, created_at, updated_at FROM cc_groups WHERE id = ?"
	g := &models.Group{}
	err := r.db.QueryRow(query, id).Scan(&g.ID, &g.Name, &g.Schedule, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// List retrieves all groups ordered by name
func (r *GroupRepository) List() ([]models.Group, error) {
	query := "SELECT id, name, schedule, created_at, updated_at FROM cc_groups ORDER BY name ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Schedule, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Create inserts a new group
func (r *GroupRepository) Create(g *models.Group) error {
	now := time.Now()
	query := "INSERT INTO cc_groups (id, name, schedule, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.Exec(query, g.ID, g.Name, g.Schedule, now, now)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

// Update updates a group's information
func (r *GroupRepository) Update(g *models.Group) error {
	query := "UPDATE cc_groups SET name = ?, schedule = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, g.Name, g.Schedule, time.Now(), g.ID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// Delete removes a group. The member guard lives in the service layer.
func (r *GroupRepository) Delete(id string) error {
	query := "DELETE FROM cc_groups WHERE id = ?"
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}
