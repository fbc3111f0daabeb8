package models

import "time"

// GameRecord is a completed preference game as stored in a child's game history
type GameRecord struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"sessionId"`
	ChildID       int64     `json:"childId"`
	Mode          string    `json:"mode"`
	ElapsedMs     int64     `json:"elapsedMs"`
	Efficiency    string    `json:"efficiency"`
	SelectedBooks []int64   `json:"selectedBooks"`
	Profile       string    `json:"profile"` // JSON-encoded preference profile
	CompletedAt   time.Time `json:"completedAt"`
}

// Saved session kinds
const (
	SessionKindIndividual = "individual"
	SessionKindShared     = "shared"
)

// SavedSession is a snapshot of recommendations the family chose to keep
type SavedSession struct {
	ID                  string    `json:"id"`
	Kind                string    `json:"kind"`
	ChildID             *int64    `json:"childId,omitempty"`
	Label               string    `json:"label"`
	Recommendations     string    `json:"recommendations"` // JSON-encoded recommendation list
	ReadingHistoryCount int       `json:"readingHistoryCount"`
	SavedAt             time.Time `json:"savedAt"`
}
