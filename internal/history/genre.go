package history

import (
	"strings"

	"bookmatch/internal/models"
)

// genreKeywords is checked in order; the first genre with a matching keyword wins
var genreKeywords = []struct {
	genre    string
	keywords []string
}{
	{models.GenreFantasy, []string{"magic", "wizard", "witch", "dragon", "elf", "fairy", "potter", "wonderland", "narnia"}},
	{models.GenreScienceFiction, []string{"space", "robot", "future", "planet", "galaxy", "alien", "time machine", "star"}},
	{models.GenreAdventure, []string{"adventure", "treasure", "island", "quest", "voyage", "expedition", "journey"}},
	{models.GenreMystery, []string{"mystery", "detective", "secret of", "clue", "case of"}},
	{models.GenreGrowingUp, []string{"school", "growing", "friend", "summer", "girl", "boy"}},
	{models.GenreAnimalStories, []string{"animal", "dog", "cat", "horse", "bird", "pig", "mouse", "fox", "bear", "wolf", "spider"}},
	{models.GenreBiography, []string{"biography", "memoir", "diary", "who was", "life of", "story of my"}},
	{models.GenreHumor, []string{"funny", "joke", "silly", "laugh"}},
}

// GuessGenre infers a genre from title keywords, defaulting to literature
func GuessGenre(title string) string {
	t := strings.ToLower(title)
	for _, g := range genreKeywords {
		for _, kw := range g.keywords {
			if strings.Contains(t, kw) {
				return g.genre
			}
		}
	}
	return models.GenreLiterature
}
