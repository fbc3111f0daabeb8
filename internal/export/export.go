// Package export writes recommendation snapshots and rating files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"bookmatch/internal/models"
	"bookmatch/internal/recommend"
)

// SharedChild marks a snapshot made for two children reading together
const SharedChild = "both"

// SharedName is the display name of shared snapshots
const SharedName = "Shared recommendations"

// Item is one exported recommendation
type Item struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// ChildProfile is the child section of an individual snapshot
type ChildProfile struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Age     int             `json:"age"`
	Profile json.RawMessage `json:"preferences,omitempty"`
}

// Snapshot is the downloadable record of a set of recommendations
type Snapshot struct {
	Timestamp           time.Time     `json:"timestamp"`
	Child               string        `json:"child"`
	ChildName           string        `json:"childName"`
	ReadingHistoryCount int           `json:"readingHistoryCount"`
	Recommendations     []Item        `json:"recommendations"`
	ChildProfile        *ChildProfile `json:"childProfile"`
}

// Items converts scored recommendations to export rows
func Items(recs []recommend.Recommendation) []Item {
	items := make([]Item, len(recs))
	for i, r := range recs {
		items[i] = Item{
			Title:  r.Title,
			Author: r.Author,
			Genre:  r.Genre,
			Score:  r.RoundedScore(),
			Reason: r.Reason,
		}
	}
	return items
}

// ForChild builds an individual snapshot
func ForChild(child models.Child, historyCount int, recs []recommend.Recommendation, at time.Time) Snapshot {
	profile := &ChildProfile{ID: child.ID, Name: child.Name, Age: child.Age}
	if child.HasProfile() {
		profile.Profile = json.RawMessage(child.Profile)
	}
	return Snapshot{
		Timestamp:           at.UTC(),
		Child:               strconv.FormatInt(child.ID, 10),
		ChildName:           child.Name,
		ReadingHistoryCount: historyCount,
		Recommendations:     Items(recs),
		ChildProfile:        profile,
	}
}

// Shared builds a snapshot for two children
func Shared(historyCount int, recs []recommend.Recommendation, at time.Time) Snapshot {
	return Snapshot{
		Timestamp:           at.UTC(),
		Child:               SharedChild,
		ChildName:           SharedName,
		ReadingHistoryCount: historyCount,
		Recommendations:     Items(recs),
	}
}

// Filename suggests a download name such as book-recommendations-3-2024-05-01.json
func (s Snapshot) Filename() string {
	return fmt.Sprintf("book-recommendations-%s-%s.json", s.Child, s.Timestamp.Format(time.DateOnly))
}

// WriteJSON writes the snapshot as indented JSON
func WriteJSON(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// GoodreadsHeader is the column layout Goodreads accepts for imports
var GoodreadsHeader = []string{"Title", "Author", "My Rating", "Date Read"}

// WriteGoodreadsCSV writes rated records as a Goodreads import file.
// Records without a rating are left out; a missing rating date falls back to today.
func WriteGoodreadsCSV(w io.Writer, records []models.ReadingRecord, today time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GoodreadsHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		if !r.IsRated() {
			continue
		}
		read := today
		if r.RatedAt != nil {
			read = *r.RatedAt
		}
		row := []string{r.Title, r.Author, strconv.Itoa(r.Rating), read.UTC().Format(time.DateOnly)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
