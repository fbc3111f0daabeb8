package models

import "time"

// Child represents a reader profile in the system
type Child struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Profile   string    `json:"profile,omitempty"` // JSON-encoded latest preference profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasProfile reports whether a preference game has been completed for the child
func (c Child) HasProfile() bool {
	return c.Profile != ""
}

// ReadingRecord is one book from a child's borrowing or reading history
type ReadingRecord struct {
	ID         int64      `json:"id,omitempty"`
	ChildID    int64      `json:"childId,omitempty"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Genre      string     `json:"genre"`
	BorrowDate string     `json:"borrowDate,omitempty"`
	Rating     int        `json:"rating,omitempty"`
	RatedAt    *time.Time `json:"ratedAt,omitempty"`
}

// IsRated reports whether the record carries a 1-5 rating
func (r ReadingRecord) IsRated() bool {
	return r.Rating >= 1 && r.Rating <= 5
}
