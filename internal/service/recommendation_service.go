package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"bookmatch/internal/catalog"
	"bookmatch/internal/export"
	"bookmatch/internal/game"
	"bookmatch/internal/history"
	"bookmatch/internal/metrics"
	"bookmatch/internal/models"
	"bookmatch/internal/recommend"
	"bookmatch/internal/repository"
)

// ChildRecommendations is the ranked list for one child with the inputs behind it
type ChildRecommendations struct {
	Child           models.Child               `json:"child"`
	Analysis        history.Analysis           `json:"analysis"`
	Profile         *game.Profile              `json:"profile,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// SharedRecommendations is the list for two children reading together
type SharedRecommendations struct {
	Children        []models.Child             `json:"children"`
	HistoryCount    int                        `json:"readingHistoryCount"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// RecommendationService ranks catalog books for children
type RecommendationService struct {
	children  *repository.ChildRepository
	readings  *repository.ReadingRepository
	catalog   *catalog.Catalog
	tolerance int
	now       func() time.Time

	// the scorer's random source is not safe for concurrent use
	mu     sync.Mutex
	scorer *recommend.Scorer
}

// NewRecommendationService creates a recommendation service
func NewRecommendationService(children *repository.ChildRepository, readings *repository.ReadingRepository, cat *catalog.Catalog, scorer *recommend.Scorer, ageTolerance int) *RecommendationService {
	return &RecommendationService{
		children:  children,
		readings:  readings,
		catalog:   cat,
		scorer:    scorer,
		tolerance: ageTolerance,
		now:       time.Now,
	}
}

func (s *RecommendationService) child(childID int64) (*models.Child, error) {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// ForChild scores age-appropriate books the child has not read yet against
// their reading history and latest game profile
func (s *RecommendationService) ForChild(childID int64) (*ChildRecommendations, error) {
	child, err := s.child(childID)
	if err != nil {
		return nil, err
	}

	records, err := s.readings.GetHistory(childID)
	if err != nil {
		return nil, err
	}
	analysis := history.Analyze(records, s.catalog)

	profile, err := decodeProfile(child.Profile)
	if err != nil {
		return nil, err
	}

	read := history.ReadTitles(records)
	var candidates []models.Book
	for _, b := range s.catalog.ByAge(child.Age, s.tolerance) {
		if !read.Has(b.Title) {
			candidates = append(candidates, b)
		}
	}

	s.mu.Lock()
	recs := s.scorer.Recommend(candidates, recommend.Target{Name: child.Name, Age: child.Age}, analysis.Preferences, profile)
	s.mu.Unlock()
	metrics.Recommendations.WithLabelValues(models.SessionKindIndividual).Inc()

	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return &ChildRecommendations{
		Child:           *child,
		Analysis:        analysis,
		Profile:         profile,
		Recommendations: recs,
	}, nil
}

// Shared scores books that suit both children's ages
func (s *RecommendationService) Shared(childA, childB int64) (*SharedRecommendations, error) {
	if childA == childB {
		return nil, ErrSameChild
	}

	out := &SharedRecommendations{}
	for _, id := range []int64{childA, childB} {
		child, err := s.child(id)
		if err != nil {
			return nil, err
		}
		count, err := s.readings.CountHistory(id)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, *child)
		out.HistoryCount += count
	}

	candidates := s.catalog.ForBothChildren(out.Children[0].Age, out.Children[1].Age)

	s.mu.Lock()
	out.Recommendations = s.scorer.RecommendShared(candidates)
	s.mu.Unlock()
	metrics.Recommendations.WithLabelValues(models.SessionKindShared).Inc()

	if out.Recommendations == nil {
		out.Recommendations = []recommend.Recommendation{}
	}
	return out, nil
}

// Snapshot builds the export document for one child
func (s *RecommendationService) Snapshot(childID int64) (export.Snapshot, error) {
	recs, err := s.ForChild(childID)
	if err != nil {
		return export.Snapshot{}, err
	}
	return export.ForChild(recs.Child, recs.Analysis.TotalBooks, recs.Recommendations, s.now()), nil
}

// SharedSnapshot builds the export document for two children
func (s *RecommendationService) SharedSnapshot(childA, childB int64) (export.Snapshot, error) {
	recs, err := s.Shared(childA, childB)
	if err != nil {
		return export.Snapshot{}, err
	}
	return export.Shared(recs.HistoryCount, recs.Recommendations, s.now()), nil
}

// decodeProfile parses a stored profile; an empty string means no game yet
func decodeProfile(raw string) (*game.Profile, error) {
	if raw == "" {
		return nil, nil
	}
	var p game.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &p, nil
}
