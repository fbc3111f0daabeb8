package service

import (
	"fmt"
	"io"
	"sync"
	"time"

	"bookmatch/internal/export"
	"bookmatch/internal/models"
	"bookmatch/internal/rating"
	"bookmatch/internal/repository"
)

// RatingStatus is where a child is in their rating session
type RatingStatus struct {
	Current      *models.ReadingRecord `json:"current,omitempty"`
	Position     int                   `json:"position"`
	Total        int                   `json:"total"`
	Done         bool                  `json:"done"`
	Hint         string                `json:"hint,omitempty"`
	Last         *rating.Description   `json:"last,omitempty"`
	Distribution map[int]int           `json:"distribution"`
}

// RatingService runs one rating session per child and saves the results
type RatingService struct {
	mu       sync.Mutex
	sessions map[int64]*rating.Session

	children *repository.ChildRepository
	readings *repository.ReadingRepository
	now      func() time.Time
}

// NewRatingService creates a rating service
func NewRatingService(children *repository.ChildRepository, readings *repository.ReadingRepository) *RatingService {
	return &RatingService{
		sessions: make(map[int64]*rating.Session),
		children: children,
		readings: readings,
		now:      time.Now,
	}
}

// Start opens a session over the child's unrated books, replacing any open one
func (s *RatingService) Start(childID int64) (*RatingStatus, error) {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}

	records, err := s.readings.GetHistory(childID)
	if err != nil {
		return nil, err
	}
	sess, err := rating.NewSession(records, s.now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[childID] = sess
	s.mu.Unlock()

	return status(sess, nil), nil
}

func (s *RatingService) session(childID int64) (*rating.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[childID]
	if !ok {
		return nil, ErrNoRatingSession
	}
	return sess, nil
}

// Status reports the open session's position
func (s *RatingService) Status(childID int64) (*RatingStatus, error) {
	sess, err := s.session(childID)
	if err != nil {
		return nil, err
	}
	return status(sess, nil), nil
}

// Rate gives the current book a star rating and moves on
func (s *RatingService) Rate(childID int64, stars int) (*RatingStatus, error) {
	sess, err := s.session(childID)
	if err != nil {
		return nil, err
	}
	desc, err := sess.Rate(stars)
	if err != nil {
		return nil, err
	}
	return status(sess, &desc), nil
}

// Skip leaves the current book unrated
func (s *RatingService) Skip(childID int64) (*RatingStatus, error) {
	sess, err := s.session(childID)
	if err != nil {
		return nil, err
	}
	if err := sess.Skip(); err != nil {
		return nil, err
	}
	return status(sess, nil), nil
}

// Previous goes back one book, discarding its rating
func (s *RatingService) Previous(childID int64) (*RatingStatus, error) {
	sess, err := s.session(childID)
	if err != nil {
		return nil, err
	}
	sess.Previous()
	return status(sess, nil), nil
}

// Complete writes the session's ratings to the reading history, closes the
// session and returns how many books were rated
func (s *RatingService) Complete(childID int64) (int, error) {
	sess, err := s.session(childID)
	if err != nil {
		return 0, err
	}

	entries := sess.Ratings()
	ratings := make(map[int64]int, len(entries))
	for id, e := range entries {
		ratings[id] = e.Rating
	}
	if err := s.readings.SaveRatings(childID, ratings, s.now()); err != nil {
		return 0, fmt.Errorf("failed to save ratings: %w", err)
	}

	s.mu.Lock()
	delete(s.sessions, childID)
	s.mu.Unlock()
	return len(ratings), nil
}

// Discard drops the child's open session without saving it
func (s *RatingService) Discard(childID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[childID]
	delete(s.sessions, childID)
	return ok
}

// ExportCSV writes the child's rated books as a Goodreads import file
func (s *RatingService) ExportCSV(childID int64, w io.Writer) error {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return err
	}
	if child == nil {
		return ErrChildNotFound
	}
	records, err := s.readings.GetHistory(childID)
	if err != nil {
		return err
	}
	return export.WriteGoodreadsCSV(w, records, s.now())
}

func status(sess *rating.Session, last *rating.Description) *RatingStatus {
	pos, total := sess.Position()
	st := &RatingStatus{
		Position:     pos,
		Total:        total,
		Done:         sess.Done(),
		Hint:         sess.Hint(),
		Last:         last,
		Distribution: sess.Distribution(),
	}
	if cur, ok := sess.Current(); ok {
		st.Current = &cur
	}
	return st
}
