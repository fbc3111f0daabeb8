package game

import (
	"math"
	"sort"

	"bookmatch/internal/models"
)

const (
	preferredGenreCount = 3
	preferredThemeCount = 3
	// defaultComplexity stands in for books that carry no complexity value
	defaultComplexity = 3
)

// RatedBook pairs a candidate with its current Elo rating
type RatedBook struct {
	models.Book
	Rating float64 `json:"eloScore"`
}

// Profile summarizes what a child gravitated toward during a game
type Profile struct {
	Mode              Mode           `json:"mode"`
	Genres            map[string]int `json:"genres"`
	Themes            map[string]int `json:"themes,omitempty"`
	AverageComplexity float64        `json:"averageComplexity"`
	PreferredGenres   []string       `json:"preferredGenres"`
	PreferredThemes   []string       `json:"preferredThemes,omitempty"`
	TopBooks          []RatedBook    `json:"topBooks,omitempty"`
	Confidence        float64        `json:"confidence,omitempty"`
}

// GenreWeight returns the count recorded for genre, zero when absent
func (p Profile) GenreWeight(genre string) int {
	return p.Genres[genre]
}

// SynthesizeGrid builds a profile from the books picked in a grid session
func SynthesizeGrid(selected []models.Book) Profile {
	genres := newTally()
	themes := newTally()
	var complexity int

	for _, b := range selected {
		genres.add(b.Genre)
		for _, theme := range b.Themes {
			themes.add(theme)
		}
		complexity += b.Complexity
	}

	p := Profile{
		Mode:            ModeGrid,
		Genres:          genres.counts,
		Themes:          themes.counts,
		PreferredGenres: genres.top(preferredGenreCount),
		PreferredThemes: themes.top(preferredThemeCount),
	}
	if len(selected) > 0 {
		p.AverageComplexity = float64(complexity) / float64(len(selected))
	}
	return p
}

// SynthesizeComparison builds a profile from ranked candidates. The first
// sampleSize books feed the genre tally and complexity, the first topSize are
// kept as representative books and confidence grows with completed comparisons.
func SynthesizeComparison(ranked []RatedBook, completed, total, sampleSize, topSize int) Profile {
	sample := ranked[:min(sampleSize, len(ranked))]

	genres := newTally()
	var complexity int
	for _, rb := range sample {
		genres.add(rb.Genre)
		c := rb.Complexity
		if c == 0 {
			c = defaultComplexity
		}
		complexity += c
	}

	p := Profile{
		Mode:            ModeComparison,
		Genres:          genres.counts,
		PreferredGenres: genres.top(preferredGenreCount),
		TopBooks:        append([]RatedBook(nil), ranked[:min(topSize, len(ranked))]...),
	}
	if len(sample) > 0 {
		p.AverageComplexity = float64(complexity) / float64(len(sample))
	}
	if total > 0 {
		p.Confidence = math.Min(0.95, float64(completed)/float64(total))
	}
	return p
}

// tally counts keys and remembers the order they first appeared in
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(key string) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// top returns up to n keys by descending count, ties broken by first occurrence
func (t *tally) top(n int) []string {
	keys := append([]string(nil), t.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return t.counts[keys[i]] > t.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
