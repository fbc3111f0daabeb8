package repository

import (
	"fmt"

	"github.com/goccy/go-json"

	"bookmatch/internal/database"
	"bookmatch/internal/models"
)

// GameRepository stores completed preference games
type GameRepository struct {
	db *database.DB
}

// NewGameRepository creates a new game history repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{db: db}
}

// RecordGame stores a completed game and sets its ID
func (r *GameRepository) RecordGame(rec *models.GameRecord) error {
	return r.InsertGame(r.db, rec)
}

// InsertGame stores rec using q
func (r *GameRepository) InsertGame(q database.DBTX, rec *models.GameRecord) error {
	selected, err := json.Marshal(rec.SelectedBooks)
	if err != nil {
		return fmt.Errorf("failed to encode selected books: %w", err)
	}

	query := `
		INSERT INTO game_records (session_id, child_id, mode, elapsed_ms, efficiency, selected_books, profile, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		rec.SessionID, rec.ChildID, rec.Mode, rec.ElapsedMs, rec.Efficiency,
		string(selected), rec.Profile, rec.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record game: %w", err)
	}
	rec.ID = id
	return nil
}

// GetChildGames returns a child's games, newest first. limit <= 0 returns all.
func (r *GameRepository) GetChildGames(childID int64, limit int) ([]models.GameRecord, error) {
	query := `
		SELECT id, session_id, child_id, mode, elapsed_ms, efficiency, selected_books, profile, completed_at
		FROM game_records
		WHERE child_id = ?
		ORDER BY completed_at DESC, id DESC
	`
	args := []interface{}{childID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []models.GameRecord
	for rows.Next() {
		var g models.GameRecord
		var selected string
		if err := rows.Scan(
			&g.ID,
			&g.SessionID,
			&g.ChildID,
			&g.Mode,
			&g.ElapsedMs,
			&g.Efficiency,
			&selected,
			&g.Profile,
			&g.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		if err := json.Unmarshal([]byte(selected), &g.SelectedBooks); err != nil {
			return nil, fmt.Errorf("failed to decode selected books: %w", err)
		}
		games = append(games, g)
	}

	return games, rows.Err()
}
