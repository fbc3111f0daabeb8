package history

import (
	"sort"

	"bookmatch/internal/models"
	"bookmatch/internal/recommend"
)

// Reading levels derived from catalog complexity
const (
	LevelUnknown      = "unknown"
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// TitleLookup finds catalog books by title
type TitleLookup interface {
	FindByTitle(title string) (models.Book, bool)
}

// Analysis summarizes a reading history
type Analysis struct {
	TotalBooks    int                          `json:"totalBooks"`
	UniqueAuthors int                          `json:"uniqueAuthors"`
	GenreCounts   map[string]int               `json:"genreCounts"`
	TopGenre      string                       `json:"topGenre"`
	ReadingLevel  string                       `json:"readingLevel"`
	RatedBooks    int                          `json:"ratedBooks"`
	AverageRating float64                      `json:"averageRating"`
	Preferences   recommend.HistoryPreferences `json:"preferences"`
}

// Analyze counts genres and authors and splits genres into primary (top two)
// and secondary (next two) preferences. Ties keep first-seen order.
func Analyze(records []models.ReadingRecord, lookup TitleLookup) Analysis {
	a := Analysis{
		TotalBooks:   len(records),
		GenreCounts:  make(map[string]int),
		ReadingLevel: LevelUnknown,
	}

	var order []string
	authors := make(map[string]struct{})
	var complexity, matched, ratingSum int

	for _, r := range records {
		if _, ok := a.GenreCounts[r.Genre]; !ok {
			order = append(order, r.Genre)
		}
		a.GenreCounts[r.Genre]++

		if r.Author != "" && r.Author != UnknownAuthor {
			authors[r.Author] = struct{}{}
		}
		if r.IsRated() {
			a.RatedBooks++
			ratingSum += r.Rating
		}
		if lookup != nil {
			if b, ok := lookup.FindByTitle(r.Title); ok {
				complexity += b.Complexity
				matched++
			}
		}
	}
	a.UniqueAuthors = len(authors)

	sort.SliceStable(order, func(i, j int) bool {
		return a.GenreCounts[order[i]] > a.GenreCounts[order[j]]
	})
	if len(order) > 0 {
		a.TopGenre = order[0]
	}
	a.Preferences = recommend.HistoryPreferences{
		PrimaryGenres:   window(order, 0, 2),
		SecondaryGenres: window(order, 2, 4),
	}

	if matched > 0 {
		a.ReadingLevel = readingLevel(float64(complexity) / float64(matched))
	}
	if a.RatedBooks > 0 {
		a.AverageRating = float64(ratingSum) / float64(a.RatedBooks)
	}
	return a
}

func readingLevel(avgComplexity float64) string {
	switch {
	case avgComplexity < 2.5:
		return LevelBeginner
	case avgComplexity < 3.5:
		return LevelIntermediate
	default:
		return LevelAdvanced
	}
}

func window(s []string, from, to int) []string {
	if from >= len(s) {
		return []string{}
	}
	return append([]string(nil), s[from:min(to, len(s))]...)
}

// TitleSet holds normalized titles
type TitleSet map[string]bool

// Has reports whether title is in the set, ignoring case and surrounding space
func (t TitleSet) Has(title string) bool {
	return t[normalize(title)]
}

// ReadTitles returns the set of titles already in the history
func ReadTitles(records []models.ReadingRecord) TitleSet {
	out := make(TitleSet, len(records))
	for _, r := range records {
		out[normalize(r.Title)] = true
	}
	return out
}
