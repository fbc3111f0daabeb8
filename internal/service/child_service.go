package service

import (
	"fmt"
	"io"
	"time"

	"bookmatch/internal/catalog"
	"bookmatch/internal/history"
	"bookmatch/internal/models"
	"bookmatch/internal/repository"
	"bookmatch/internal/validation"
)

// CreateChildRequest is the payload for adding a reader
type CreateChildRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Age  int    `json:"age" validate:"gte=3,lte=16"`
}

// ChildStats is a child's reading overview
type ChildStats struct {
	Child       models.Child        `json:"child"`
	Analysis    history.Analysis    `json:"analysis"`
	RecentGames []models.GameRecord `json:"recentGames"`
}

// ChildSessions is in-memory per-child state that goes away with the child
type ChildSessions interface {
	Discard(childID int64) bool
}

// ChildService handles children and their reading history
type ChildService struct {
	sessions  []ChildSessions
	children  *repository.ChildRepository
	readings  *repository.ReadingRepository
	games     *repository.GameRepository
	catalog   *catalog.Catalog
	validator *validation.Validator
	parser    *history.Parser
}

// NewChildService creates a new child service
func NewChildService(children *repository.ChildRepository, readings *repository.ReadingRepository, games *repository.GameRepository, cat *catalog.Catalog) *ChildService {
	return &ChildService{
		children:  children,
		readings:  readings,
		games:     games,
		catalog:   cat,
		validator: validation.New(),
		parser:    history.NewParser(time.Now),
	}
}

// TrackSessions registers live per-child state to discard when a child is deleted
func (s *ChildService) TrackSessions(owners ...ChildSessions) {
	s.sessions = append(s.sessions, owners...)
}

// CreateChild validates and stores a new child
func (s *ChildService) CreateChild(req CreateChildRequest) (*models.Child, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.children.CreateChild(req.Name, req.Age)
}

// GetChild returns a child or ErrChildNotFound
func (s *ChildService) GetChild(childID int64) (*models.Child, error) {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// ListChildren returns every child
func (s *ChildService) ListChildren() ([]models.Child, error) {
	children, err := s.children.GetAllChildren()
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []models.Child{}
	}
	return children, nil
}

// DeleteChild removes a child and their history and ends any game or rating
// session they still have open
func (s *ChildService) DeleteChild(childID int64) error {
	if err := s.children.DeleteChild(childID); err != nil {
		if err == repository.ErrNotFound {
			return ErrChildNotFound
		}
		return err
	}
	for _, owner := range s.sessions {
		owner.Discard(childID)
	}
	return nil
}

// ImportHistory parses a history file, replaces the child's history with it and
// returns the new analysis. name picks the format by extension.
func (s *ChildService) ImportHistory(childID int64, name string, r io.Reader) (*history.Analysis, error) {
	if _, err := s.GetChild(childID); err != nil {
		return nil, err
	}

	records, err := s.parser.Parse(name, r)
	if err != nil {
		return nil, err
	}
	return s.replaceHistory(childID, records)
}

// LoadSampleHistory replaces the child's history with the demo history
func (s *ChildService) LoadSampleHistory(childID int64) (*history.Analysis, error) {
	if _, err := s.GetChild(childID); err != nil {
		return nil, err
	}
	return s.replaceHistory(childID, history.Sample())
}

func (s *ChildService) replaceHistory(childID int64, records []models.ReadingRecord) (*history.Analysis, error) {
	if err := s.readings.ReplaceHistory(childID, records); err != nil {
		return nil, fmt.Errorf("failed to store reading history: %w", err)
	}
	analysis := history.Analyze(records, s.catalog)
	return &analysis, nil
}

// GetHistory returns the child's reading history
func (s *ChildService) GetHistory(childID int64) ([]models.ReadingRecord, error) {
	if _, err := s.GetChild(childID); err != nil {
		return nil, err
	}
	records, err := s.readings.GetHistory(childID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ReadingRecord{}
	}
	return records, nil
}

// Stats analyses the child's history and lists their last five games
func (s *ChildService) Stats(childID int64) (*ChildStats, error) {
	child, err := s.GetChild(childID)
	if err != nil {
		return nil, err
	}
	records, err := s.readings.GetHistory(childID)
	if err != nil {
		return nil, err
	}
	games, err := s.games.GetChildGames(childID, 5)
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []models.GameRecord{}
	}

	return &ChildStats{
		Child:       *child,
		Analysis:    history.Analyze(records, s.catalog),
		RecentGames: games,
	}, nil
}
