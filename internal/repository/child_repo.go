package repository

import (
	"database/sql"
	"fmt"
	"time"

	"bookmatch/internal/database"
	"bookmatch/internal/models"
)

// ChildRepository handles database operations for children
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild creates a new reader profile
func (r *ChildRepository) CreateChild(name string, age int) (*models.Child, error) {
	return r.insert(r.db, name, age, "", time.Now().UTC())
}

// RestoreChild inserts a child carrying an existing profile and creation time
func (r *ChildRepository) RestoreChild(tx database.DBTX, child models.Child) (*models.Child, error) {
	return r.insert(tx, child.Name, child.Age, child.Profile, child.CreatedAt.UTC())
}

func (r *ChildRepository) insert(q database.DBTX, name string, age int, profile string, now time.Time) (*models.Child, error) {
	query := "INSERT INTO children (name, age, profile, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	childID, err := q.ExecReturningID(query, name, age, profile, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return &models.Child{
		ID:        childID,
		Name:      name,
		Age:       age,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetChildByID retrieves a child by ID, or nil when there is none
func (r *ChildRepository) GetChildByID(childID int64) (*models.Child, error) {
	query := "SELECT id, name, age, profile, created_at, updated_at FROM children WHERE id = ?"
	child := &models.Child{}
	err := r.db.QueryRow(query, childID).Scan(
		&child.ID,
		&child.Name,
		&child.Age,
		&child.Profile,
		&child.CreatedAt,
		&child.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}

	return child, nil
}

// GetAllChildren lists every child, oldest first
func (r *ChildRepository) GetAllChildren() ([]models.Child, error) {
	query := `
		SELECT id, name, age, profile, created_at, updated_at
		FROM children
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var child models.Child
		if err := rows.Scan(
			&child.ID,
			&child.Name,
			&child.Age,
			&child.Profile,
			&child.CreatedAt,
			&child.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}

	return children, rows.Err()
}

// UpdateChild changes a child's name and age
func (r *ChildRepository) UpdateChild(childID int64, name string, age int) error {
	query := "UPDATE children SET name = ?, age = ?, updated_at = ? WHERE id = ?"
	return r.execOne(query, "update child", name, age, time.Now().UTC(), childID)
}

// UpdateProfile stores the latest preference profile JSON for a child
func (r *ChildRepository) UpdateProfile(childID int64, profile string) error {
	query := "UPDATE children SET profile = ?, updated_at = ? WHERE id = ?"
	return r.execOne(query, "update profile", profile, time.Now().UTC(), childID)
}

// DeleteChild removes a child and, through cascades, their history
func (r *ChildRepository) DeleteChild(childID int64) error {
	return r.execOne("DELETE FROM children WHERE id = ?", "delete child", childID)
}

// execOne runs a statement that must touch exactly one child row
func (r *ChildRepository) execOne(query, action string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
