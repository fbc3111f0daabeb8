package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bookmatch/internal/models"
)

func book(id int64, genre string, complexity int, themes ...string) models.Book {
	return models.Book{ID: id, Title: "t", Author: "a", Genre: genre, AgeRange: [2]int{7, 10}, Complexity: complexity, Themes: themes}
}

func TestSynthesizeGrid(t *testing.T) {
	selected := []models.Book{
		book(1, models.GenreMystery, 2, "puzzles", "friendship"),
		book(2, models.GenreFantasy, 3, "magic", "friendship"),
		book(3, models.GenreFantasy, 4, "magic"),
		book(4, models.GenreHumor, 1, "school"),
		book(5, models.GenreMystery, 5, "puzzles", "school"),
	}

	p := SynthesizeGrid(selected)

	assert.Equal(t, ModeGrid, p.Mode)
	assert.Equal(t, map[string]int{models.GenreMystery: 2, models.GenreFantasy: 2, models.GenreHumor: 1}, p.Genres)
	assert.ElementsMatch(t, []string{models.GenreMystery, models.GenreFantasy, models.GenreHumor}, p.PreferredGenres)
	assert.Equal(t, []string{models.GenreMystery, models.GenreFantasy, models.GenreHumor}, p.PreferredGenres, "ties keep first occurrence")

	total := 0
	for _, n := range p.Genres {
		total += n
	}
	assert.Equal(t, 5, total)

	assert.Equal(t, []string{"puzzles", "friendship", "magic"}, p.PreferredThemes)
	assert.InDelta(t, 3.0, p.AverageComplexity, 1e-9)
	assert.Zero(t, p.Confidence)
}

func TestSynthesizeGridTopThreeOnly(t *testing.T) {
	selected := []models.Book{
		book(1, models.GenreBiography, 2),
		book(2, models.GenreHumor, 2),
		book(3, models.GenreHumor, 2),
		book(4, models.GenreFantasy, 2),
		book(5, models.GenreMystery, 2),
	}

	p := SynthesizeGrid(selected)
	assert.Equal(t, []string{models.GenreHumor, models.GenreBiography, models.GenreFantasy}, p.PreferredGenres)
}

func TestSynthesizeGridEmpty(t *testing.T) {
	p := SynthesizeGrid(nil)
	assert.Empty(t, p.PreferredGenres)
	assert.Zero(t, p.AverageComplexity)
}

func TestSynthesizeComparison(t *testing.T) {
	var ranked []RatedBook
	genres := []string{models.GenreFantasy, models.GenreFantasy, models.GenreHumor, models.GenreMystery}
	for i := 0; i < 10; i++ {
		ranked = append(ranked, RatedBook{
			Book:   book(int64(i+1), genres[i%len(genres)], 2),
			Rating: float64(1400 - i*10),
		})
	}
	ranked[9].Complexity = 5 // outside the profile sample

	tests := []struct {
		name           string
		completed      int
		total          int
		wantConfidence float64
	}{
		{name: "finished", completed: 20, total: 20, wantConfidence: 0.95},
		{name: "partial", completed: 10, total: 20, wantConfidence: 0.5},
		{name: "none", completed: 0, total: 20, wantConfidence: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := SynthesizeComparison(ranked, tt.completed, tt.total, 8, 5)
			assert.Equal(t, ModeComparison, p.Mode)
			assert.InDelta(t, tt.wantConfidence, p.Confidence, 1e-9)
			assert.Equal(t, map[string]int{models.GenreFantasy: 4, models.GenreHumor: 2, models.GenreMystery: 2}, p.Genres)
			assert.InDelta(t, 2.0, p.AverageComplexity, 1e-9)
			assert.Len(t, p.TopBooks, 5)
			assert.Equal(t, int64(1), p.TopBooks[0].ID)
			assert.Equal(t, models.GenreFantasy, p.PreferredGenres[0])
		})
	}
}

func TestSynthesizeComparisonDefaultsComplexity(t *testing.T) {
	ranked := []RatedBook{
		{Book: book(1, models.GenreFantasy, 0), Rating: 1300},
		{Book: book(2, models.GenreFantasy, 5), Rating: 1200},
	}
	p := SynthesizeComparison(ranked, 1, 20, 8, 5)
	assert.InDelta(t, 4.0, p.AverageComplexity, 1e-9)
	assert.Len(t, p.TopBooks, 2)
	assert.InDelta(t, 0.05, p.Confidence, 1e-9)
}

func TestProfileGenreWeight(t *testing.T) {
	p := Profile{Genres: map[string]int{models.GenreFantasy: 2}}
	assert.Equal(t, 2, p.GenreWeight(models.GenreFantasy))
	assert.Zero(t, p.GenreWeight(models.GenreHumor))
	assert.Zero(t, Profile{}.GenreWeight(models.GenreHumor))
}
