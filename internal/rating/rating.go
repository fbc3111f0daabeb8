// Package rating walks a child through their unrated reading history one book at a time.
package rating

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"bookmatch/internal/models"
)

// Description explains what a star rating means to a child
type Description struct {
	Stars int    `json:"stars"`
	Emoji string `json:"emoji"`
	Title string `json:"title"`
	Text  string `json:"description"`
}

// Descriptions indexed by star count
var Descriptions = map[int]Description{
	5: {Stars: 5, Emoji: "🌟", Title: "Time flew by", Text: "Couldn't put it down, read it all in one go"},
	4: {Stars: 4, Emoji: "📚", Title: "Really enjoyed it", Text: "Had a great time reading it"},
	3: {Stars: 3, Emoji: "⏰", Title: "Steady read", Text: "Finished it and it was fine"},
	2: {Stars: 2, Emoji: "😴", Title: "Made me sleepy", Text: "Had to push to keep reading"},
	1: {Stars: 1, Emoji: "🚫", Title: "Gave up", Text: "Stopped before the end, too boring"},
}

// streakWarning is the run of identical ratings that triggers a hint
const streakWarning = 3

var (
	// ErrNothingToRate is returned when every record already has a rating
	ErrNothingToRate = errors.New("all books in the reading history are already rated")
	// ErrFinished is returned when acting on a session past its last book
	ErrFinished = errors.New("rating session is finished")
	// ErrInvalidRating is returned for ratings outside 1-5
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Entry is one recorded rating
type Entry struct {
	Rating int       `json:"rating"`
	At     time.Time `json:"ratedAt"`
}

// Session rates unrated reading records in order
type Session struct {
	mu      sync.Mutex
	now     func() time.Time
	books   []models.ReadingRecord
	index   int
	ratings map[int64]Entry
	last    int
	streak  int
}

// NewSession starts a session over the records that carry no rating yet
func NewSession(records []models.ReadingRecord, now func() time.Time) (*Session, error) {
	var unrated []models.ReadingRecord
	for _, r := range records {
		if !r.IsRated() {
			unrated = append(unrated, r)
		}
	}
	if len(unrated) == 0 {
		return nil, ErrNothingToRate
	}
	return &Session{
		now:     now,
		books:   unrated,
		ratings: make(map[int64]Entry),
	}, nil
}

// Current returns the book being rated; false once the session is finished
func (s *Session) Current() (models.ReadingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.books) {
		return models.ReadingRecord{}, false
	}
	return s.books[s.index], true
}

// Rate records stars for the current book and moves to the next one
func (s *Session) Rate(stars int) (Description, error) {
	if stars < 1 || stars > 5 {
		return Description{}, ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.books) {
		return Description{}, ErrFinished
	}

	s.ratings[s.books[s.index].ID] = Entry{Rating: stars, At: s.now()}
	if stars == s.last {
		s.streak++
	} else {
		s.streak = 1
	}
	s.last = stars
	s.index++

	return Descriptions[stars], nil
}

// Skip moves past the current book without rating it
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.books) {
		return ErrFinished
	}
	s.index++
	return nil
}

// Previous steps back one book and discards its rating. It reports false at the first book.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return false
	}
	s.index--
	delete(s.ratings, s.books[s.index].ID)
	return true
}

// Hint warns when the last several ratings were all the same
func (s *Session) Hint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streak < streakWarning || s.last == 0 {
		return ""
	}
	return fmt.Sprintf("You have rated %d books in a row as %q. Think about whether each one really felt the same.",
		s.streak, Descriptions[s.last].Title)
}

// Done reports whether every book has been rated or skipped
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.books)
}

// Position returns the zero-based index of the current book and the total
func (s *Session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, len(s.books)
}

// Ratings returns a copy of the recorded ratings keyed by record ID
func (s *Session) Ratings() map[int64]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]Entry, len(s.ratings))
	for id, e := range s.ratings {
		out[id] = e
	}
	return out
}

// Distribution counts recorded ratings per star value, 1 through 5
func (s *Session) Distribution() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, e := range s.ratings {
		dist[e.Rating]++
	}
	return dist
}

// Apply copies ratings onto matching records and returns the updated slice
func Apply(records []models.ReadingRecord, ratings map[int64]Entry) []models.ReadingRecord {
	out := make([]models.ReadingRecord, len(records))
	copy(out, records)
	for i := range out {
		if e, ok := ratings[out[i].ID]; ok {
			at := e.At
			out[i].Rating = e.Rating
			out[i].RatedAt = &at
		}
	}
	return out
}
