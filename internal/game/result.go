package game

import (
	"time"

	"bookmatch/internal/models"
)

// Result is the outcome of a completed session
type Result interface {
	Mode() Mode
	ChildID() int64
	SelectedBooks() []models.Book
	Preferences() Profile
	Elapsed() time.Duration
	// EfficiencyLabel is a short human-readable summary of how quickly the game was played
	EfficiencyLabel() string
}

// Summary holds the fields shared by both result variants
type Summary struct {
	SessionID string        `json:"sessionId"`
	Child     int64         `json:"childId"`
	GameMode  Mode          `json:"mode"`
	Selected  []models.Book `json:"selectedBooks"`
	Profile   Profile       `json:"preferences"`
	ElapsedMs int64         `json:"elapsedTime"`
}

func (s Summary) Mode() Mode { return s.GameMode }
func (s Summary) ChildID() int64 { return s.Child }
func (s Summary) SelectedBooks() []models.Book { return s.Selected }
func (s Summary) Preferences() Profile { return s.Profile }
func (s Summary) Elapsed() time.Duration { return time.Duration(s.ElapsedMs) * time.Millisecond }

// GridResult is the outcome of a grid session
type GridResult struct {
	Summary
	Efficiency string `json:"efficiency"`
}

func (r *GridResult) EfficiencyLabel() string { return r.Efficiency }

// ComparisonResult is the outcome of a comparison session.
// Selected holds the top-rated books in rating order.
type ComparisonResult struct {
	Summary
	Ratings     map[int64]float64 `json:"eloScores"`
	Ranking     []RatedBook       `json:"ranking"`
	Comparisons []Comparison      `json:"comparisonHistory"`
	Completed   int               `json:"comparisonsCompleted"`
	Efficiency  float64           `json:"efficiency"`
}

func (r *ComparisonResult) EfficiencyLabel() string {
	switch {
	case r.Efficiency >= 1.0:
		return "very fast"
	case r.Efficiency >= 0.8:
		return "fast"
	case r.Efficiency >= 0.6:
		return "normal"
	default:
		return "slow"
	}
}

// gridEfficiency labels a grid session by elapsed minutes
func gridEfficiency(elapsed time.Duration) string {
	minutes := elapsed.Minutes()
	switch {
	case minutes <= 2:
		return "very fast"
	case minutes <= 3:
		return "fast"
	case minutes <= 4:
		return "normal"
	case minutes <= 5:
		return "slow"
	default:
		return "needs more time"
	}
}

const idealSecondsPerComparison = 15.0

// comparisonEfficiency scores the average time per comparison against a 15 second ideal
func comparisonEfficiency(elapsed time.Duration, comparisons int) float64 {
	if comparisons <= 0 {
		return 0.4
	}
	avg := elapsed.Seconds() / float64(comparisons)
	switch {
	case avg <= idealSecondsPerComparison:
		return 1.0
	case avg <= idealSecondsPerComparison*2:
		return 0.8
	case avg <= idealSecondsPerComparison*3:
		return 0.6
	default:
		return 0.4
	}
}
