package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"bookmatch/internal/export"
	"bookmatch/internal/models"
	"bookmatch/internal/repository"
	"bookmatch/internal/validation"
)

// SaveSessionRequest names the child to snapshot. SharedWith makes it a two-child snapshot.
type SaveSessionRequest struct {
	ChildID    int64  `json:"childId" validate:"required,gt=0"`
	SharedWith int64  `json:"sharedWith,omitempty" validate:"gte=0"`
	Label      string `json:"label,omitempty" validate:"max=100"`
}

// SavedSessionDetail is a stored snapshot with its recommendations decoded
type SavedSessionDetail struct {
	models.SavedSession
	Items []export.Item `json:"items"`
}

// SavedSessionService saves and reloads recommendation snapshots
type SavedSessionService struct {
	sessions        *repository.SavedSessionRepository
	recommendations *RecommendationService
	validator       *validation.Validator
	keep            int
	now             func() time.Time
	newID           func() string
}

// NewSavedSessionService creates the service; only the keep newest snapshots survive a save
func NewSavedSessionService(sessions *repository.SavedSessionRepository, recommendations *RecommendationService, keep int) *SavedSessionService {
	return &SavedSessionService{
		sessions:        sessions,
		recommendations: recommendations,
		validator:       validation.New(),
		keep:            keep,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// Save computes fresh recommendations and stores them
func (s *SavedSessionService) Save(req SaveSessionRequest) (*SavedSessionDetail, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	kind := models.SessionKindIndividual
	childID := &req.ChildID

	var snap export.Snapshot
	var err error
	if req.SharedWith != 0 {
		snap, err = s.recommendations.SharedSnapshot(req.ChildID, req.SharedWith)
		kind = models.SessionKindShared
		childID = nil
	} else {
		snap, err = s.recommendations.Snapshot(req.ChildID)
	}
	if err != nil {
		return nil, err
	}
	if len(snap.Recommendations) == 0 {
		return nil, ErrNothingToExport
	}

	items, err := json.Marshal(snap.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendations: %w", err)
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = fmt.Sprintf("%s, %s", snap.ChildName, snap.Timestamp.Local().Format("2006-01-02 15:04"))
	}

	saved := models.SavedSession{
		ID:                  s.newID(),
		Kind:                kind,
		ChildID:             childID,
		Label:               label,
		Recommendations:     string(items),
		ReadingHistoryCount: snap.ReadingHistoryCount,
		SavedAt:             s.now().UTC(),
	}
	if err := s.sessions.SaveSession(&saved, s.keep); err != nil {
		return nil, err
	}
	return &SavedSessionDetail{SavedSession: saved, Items: snap.Recommendations}, nil
}

// List returns stored snapshots, newest first
func (s *SavedSessionService) List() ([]models.SavedSession, error) {
	sessions, err := s.sessions.GetSessions()
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []models.SavedSession{}
	}
	return sessions, nil
}

// Get loads one snapshot
func (s *SavedSessionService) Get(id string) (*SavedSessionDetail, error) {
	saved, err := s.sessions.GetSession(id)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrSessionNotFound
	}

	detail := &SavedSessionDetail{SavedSession: *saved}
	if err := json.Unmarshal([]byte(saved.Recommendations), &detail.Items); err != nil {
		return nil, fmt.Errorf("failed to decode saved recommendations: %w", err)
	}
	return detail, nil
}

// Delete removes one snapshot
func (s *SavedSessionService) Delete(id string) error {
	if err := s.sessions.DeleteSession(id); err != nil {
		if err == repository.ErrNotFound {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
