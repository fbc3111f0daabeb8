package game

import "time"

// GridConfig holds the grid-mode bounds
type GridConfig struct {
	MinSelections int           `json:"minSelections"`
	MaxSelections int           `json:"maxSelections"`
	BooksToShow   int           `json:"booksToShow"`
	TimeLimit     time.Duration `json:"timeLimit"`
}

// ComparisonConfig holds the pairwise-comparison settings
type ComparisonConfig struct {
	TotalComparisons int           `json:"totalComparisons"`
	BooksToCompare   int           `json:"booksToCompare"`
	KFactor          float64       `json:"kFactor"`
	InitialRating    float64       `json:"initialRating"`
	TimeLimit        time.Duration `json:"timeLimit"`
	// TopSelected books become the session's selection; ProfileSample books feed the profile.
	TopSelected   int `json:"topSelected"`
	ProfileSample int `json:"profileSample"`
}

// Config bundles per-mode settings with the catalog age tolerance
type Config struct {
	Grid         GridConfig
	Comparison   ComparisonConfig
	AgeTolerance int
}

// DefaultConfig returns the standard game settings
func DefaultConfig() Config {
	return Config{
		Grid: GridConfig{
			MinSelections: 3,
			MaxSelections: 5,
			BooksToShow:   12,
			TimeLimit:     5 * time.Minute,
		},
		Comparison: ComparisonConfig{
			TotalComparisons: 20,
			BooksToCompare:   16,
			KFactor:          32,
			InitialRating:    1200,
			TimeLimit:        10 * time.Minute,
			TopSelected:      5,
			ProfileSample:    8,
		},
		AgeTolerance: 1,
	}
}

// timeLimit returns the deadline for a mode
func (c Config) timeLimit(mode Mode) time.Duration {
	if mode == ModeComparison {
		return c.Comparison.TimeLimit
	}
	return c.Grid.TimeLimit
}

// targetCandidates returns how many books a session of the mode shows
func (c Config) targetCandidates(mode Mode) int {
	if mode == ModeComparison {
		return c.Comparison.BooksToCompare
	}
	return c.Grid.BooksToShow
}

// minimumCandidates returns the smallest candidate set a mode can be played with
func (c Config) minimumCandidates(mode Mode) int {
	if mode == ModeComparison {
		return 2
	}
	return c.Grid.MinSelections
}
