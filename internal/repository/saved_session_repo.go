package repository

import (
	"database/sql"
	"fmt"

	"bookmatch/internal/database"
	"bookmatch/internal/models"
)

// SavedSessionRepository stores recommendation snapshots
type SavedSessionRepository struct {
	db *database.DB
}

// NewSavedSessionRepository creates a new saved session repository
func NewSavedSessionRepository(db *database.DB) *SavedSessionRepository {
	return &SavedSessionRepository{db: db}
}

// SaveSession stores s and then drops everything but the keep most recent snapshots
func (r *SavedSessionRepository) SaveSession(s *models.SavedSession, keep int) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		if err := r.InsertSession(tx, s); err != nil {
			return err
		}
		return prune(tx, keep)
	})
}

// InsertSession stores s without pruning
func (r *SavedSessionRepository) InsertSession(q database.DBTX, s *models.SavedSession) error {
	query := `
		INSERT INTO saved_sessions (id, kind, child_id, label, recommendations, reading_history_count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var childID interface{}
	if s.ChildID != nil {
		childID = *s.ChildID
	}
	if _, err := q.Exec(query, s.ID, s.Kind, childID, s.Label, s.Recommendations, s.ReadingHistoryCount, s.SavedAt.UTC()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// prune deletes snapshots beyond the keep newest. MySQL rejects LIMIT inside
// IN subqueries, so the surplus IDs are collected first.
func prune(q database.DBTX, keep int) error {
	rows, err := q.Query("SELECT id FROM saved_sessions ORDER BY saved_at DESC, id DESC")
	if err != nil {
		return fmt.Errorf("failed to list saved sessions: %w", err)
	}

	var surplus []string
	for i := 0; rows.Next(); i++ {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan saved session id: %w", err)
		}
		if i >= keep {
			surplus = append(surplus, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list saved sessions: %w", err)
	}

	for _, id := range surplus {
		if _, err := q.Exec("DELETE FROM saved_sessions WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to prune saved session %s: %w", id, err)
		}
	}
	return nil
}

// GetSessions lists snapshots, newest first
func (r *SavedSessionRepository) GetSessions() ([]models.SavedSession, error) {
	query := `
		SELECT id, kind, child_id, label, recommendations, reading_history_count, saved_at
		FROM saved_sessions
		ORDER BY saved_at DESC, id DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SavedSession
	for rows.Next() {
		s, err := scanSavedSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

// GetSession retrieves one snapshot, or nil when there is none
func (r *SavedSessionRepository) GetSession(id string) (*models.SavedSession, error) {
	query := `
		SELECT id, kind, child_id, label, recommendations, reading_history_count, saved_at
		FROM saved_sessions
		WHERE id = ?
	`
	s, err := scanSavedSession(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// DeleteSession removes one snapshot
func (r *SavedSessionRepository) DeleteSession(id string) error {
	result, err := r.db.Exec("DELETE FROM saved_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete saved session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSavedSession(row scanner) (*models.SavedSession, error) {
	var s models.SavedSession
	var childID sql.NullInt64
	err := row.Scan(&s.ID, &s.Kind, &childID, &s.Label, &s.Recommendations, &s.ReadingHistoryCount, &s.SavedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan saved session: %w", err)
	}
	if childID.Valid {
		id := childID.Int64
		s.ChildID = &id
	}
	return &s, nil
}
