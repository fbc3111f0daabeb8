package repository

import (
	"database/sql"
	"fmt"
	"time"

	"bookmatch/internal/database"
	"bookmatch/internal/models"
)

// ReadingRepository handles a child's reading history
type ReadingRepository struct {
	db *database.DB
}

// NewReadingRepository creates a new reading history repository
func NewReadingRepository(db *database.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// ReplaceHistory swaps a child's whole reading history for records in one transaction
func (r *ReadingRepository) ReplaceHistory(childID int64, records []models.ReadingRecord) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("DELETE FROM reading_records WHERE child_id = ?", childID); err != nil {
			return fmt.Errorf("failed to clear reading history: %w", err)
		}
		return r.InsertRecords(tx, childID, records)
	})
}

// InsertRecords appends records to a child's history using q
func (r *ReadingRepository) InsertRecords(q database.DBTX, childID int64, records []models.ReadingRecord) error {
	query := `
		INSERT INTO reading_records (child_id, title, author, genre, borrow_date, rating, rated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, rec := range records {
		var ratedAt interface{}
		if rec.RatedAt != nil {
			ratedAt = rec.RatedAt.UTC()
		}
		if _, err := q.Exec(query, childID, rec.Title, rec.Author, rec.Genre, rec.BorrowDate, rec.Rating, ratedAt); err != nil {
			return fmt.Errorf("failed to insert reading record %q: %w", rec.Title, err)
		}
	}
	return nil
}

// GetHistory returns a child's reading history in import order
func (r *ReadingRepository) GetHistory(childID int64) ([]models.ReadingRecord, error) {
	query := `
		SELECT id, child_id, title, author, genre, borrow_date, rating, rated_at
		FROM reading_records
		WHERE child_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading history: %w", err)
	}
	defer rows.Close()

	var records []models.ReadingRecord
	for rows.Next() {
		var rec models.ReadingRecord
		var ratedAt sql.NullTime
		if err := rows.Scan(
			&rec.ID,
			&rec.ChildID,
			&rec.Title,
			&rec.Author,
			&rec.Genre,
			&rec.BorrowDate,
			&rec.Rating,
			&ratedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading record: %w", err)
		}
		if ratedAt.Valid {
			t := ratedAt.Time
			rec.RatedAt = &t
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountHistory returns how many books a child has in their history
func (r *ReadingRepository) CountHistory(childID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM reading_records WHERE child_id = ?", childID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reading history: %w", err)
	}
	return count, nil
}

// SaveRatings writes ratings keyed by record ID. A zero rating clears the record's rating.
func (r *ReadingRepository) SaveRatings(childID int64, ratings map[int64]int, ratedAt time.Time) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		query := "UPDATE reading_records SET rating = ?, rated_at = ? WHERE id = ? AND child_id = ?"
		for recordID, rating := range ratings {
			var at interface{}
			if rating > 0 {
				at = ratedAt.UTC()
			}
			if _, err := tx.Exec(query, rating, at, recordID, childID); err != nil {
				return fmt.Errorf("failed to save rating for record %d: %w", recordID, err)
			}
		}
		return nil
	})
}
