// Package recommend ranks catalog books for a child from reading history and game preferences.
package recommend

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"bookmatch/internal/game"
	"bookmatch/internal/models"
)

// HistoryPreferences are the genres a child reads most, derived from reading history
type HistoryPreferences struct {
	PrimaryGenres   []string `json:"primaryGenres"`
	SecondaryGenres []string `json:"secondaryGenres"`
}

func (h HistoryPreferences) isPrimary(genre string) bool {
	return contains(h.PrimaryGenres, genre)
}

func (h HistoryPreferences) isSecondary(genre string) bool {
	return contains(h.SecondaryGenres, genre)
}

// Target is the child recommendations are made for
type Target struct {
	Name string
	Age  int
}

// Recommendation is a scored book with a short justification
type Recommendation struct {
	models.Book
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// RoundedScore is the integer score shown in exports
func (r Recommendation) RoundedScore() int {
	return int(math.Round(r.Score))
}

// Config holds scoring weights
type Config struct {
	Base             float64
	PrimaryBonus     float64
	SecondaryBonus   float64
	GenreWeightBonus float64
	AgeFitMax        float64
	ComplexityFitMax float64
	MinScore         float64
	MaxScore         float64
	Limit            int
	SharedBase       float64
	SharedSpread     float64
}

// DefaultConfig returns the standard weights
func DefaultConfig() Config {
	return Config{
		Base:             50,
		PrimaryBonus:     20,
		SecondaryBonus:   10,
		GenreWeightBonus: 15,
		AgeFitMax:        10,
		ComplexityFitMax: 5,
		MinScore:         30,
		MaxScore:         95,
		Limit:            10,
		SharedBase:       70,
		SharedSpread:     20,
	}
}

const sharedReason = "A book both children can enjoy together, good for family reading time"

// Scorer computes recommendation scores
type Scorer struct {
	cfg Config
	rng *rand.Rand
}

// NewScorer creates a scorer. rng drives the shared recommendation scores.
func NewScorer(cfg Config, rng *rand.Rand) *Scorer {
	return &Scorer{cfg: cfg, rng: rng}
}

// Score rates one book for a child. profile may be nil when no game was played.
func (s *Scorer) Score(book models.Book, age int, history HistoryPreferences, profile *game.Profile) float64 {
	score := s.cfg.Base

	if history.isPrimary(book.Genre) {
		score += s.cfg.PrimaryBonus
	}
	if history.isSecondary(book.Genre) {
		score += s.cfg.SecondaryBonus
	}

	if profile != nil {
		if w := profile.GenreWeight(book.Genre); w > 0 {
			score += s.cfg.GenreWeightBonus * float64(w)
		}
	}

	score += math.Max(0, s.cfg.AgeFitMax-math.Abs(float64(age)-book.AgeMidpoint()))

	if profile != nil && profile.AverageComplexity > 0 {
		score += math.Max(0, s.cfg.ComplexityFitMax-math.Abs(float64(book.Complexity)-profile.AverageComplexity))
	}

	return math.Min(s.cfg.MaxScore, math.Max(s.cfg.MinScore, score))
}

// Reason explains a recommendation, preferring game evidence over history
func (s *Scorer) Reason(book models.Book, childName string, history HistoryPreferences, profile *game.Profile) string {
	label := genreLabel(book.Genre)
	switch {
	case profile != nil && profile.GenreWeight(book.Genre) > 0:
		return fmt.Sprintf("%s picked %s in the preference game, so this one should be a hit", childName, label)
	case history.isPrimary(book.Genre):
		return fmt.Sprintf("%s reads a lot of %s and this continues that interest", childName, label)
	default:
		return fmt.Sprintf("A quality pick suited to %s's age and reading level", childName)
	}
}

// Recommend scores candidates and returns the best ones, highest first.
// Books with equal scores keep their candidate order.
func (s *Scorer) Recommend(candidates []models.Book, child Target, history HistoryPreferences, profile *game.Profile) []Recommendation {
	recs := make([]Recommendation, 0, len(candidates))
	for _, b := range candidates {
		recs = append(recs, Recommendation{
			Book:   b,
			Score:  s.Score(b, child.Age, history, profile),
			Reason: s.Reason(b, child.Name, history, profile),
		})
	}
	return s.top(recs)
}

// RecommendShared scores books suitable for two children at once
func (s *Scorer) RecommendShared(candidates []models.Book) []Recommendation {
	recs := make([]Recommendation, 0, len(candidates))
	for _, b := range candidates {
		recs = append(recs, Recommendation{
			Book:   b,
			Score:  s.cfg.SharedBase + s.rng.Float64()*s.cfg.SharedSpread,
			Reason: sharedReason,
		})
	}
	return s.top(recs)
}

func (s *Scorer) top(recs []Recommendation) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > s.cfg.Limit {
		recs = recs[:s.cfg.Limit]
	}
	return recs
}

func genreLabel(genre string) string {
	return strings.ReplaceAll(genre, "-", " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
