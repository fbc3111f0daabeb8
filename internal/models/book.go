package models

// Genre tags used by the catalog and by imported reading history
const (
	GenreFantasy        = "fantasy"
	GenreScienceFiction = "science-fiction"
	GenreAdventure      = "adventure"
	GenreGrowingUp      = "growing-up"
	GenreAnimalStories  = "animal-stories"
	GenreBiography      = "biography"
	GenreMystery        = "mystery"
	GenreHumor          = "humor"
	GenrePhilosophy     = "philosophy"
	GenreLiterature     = "literature"
)

// Genres lists the genre vocabulary in display order
var Genres = []string{
	GenreFantasy,
	GenreScienceFiction,
	GenreAdventure,
	GenreGrowingUp,
	GenreAnimalStories,
	GenreBiography,
	GenreMystery,
	GenreHumor,
	GenrePhilosophy,
	GenreLiterature,
}

// Book represents a catalog entry. Books are immutable once the catalog is loaded.
type Book struct {
	ID         int64    `json:"id" validate:"required,gt=0"`
	Title      string   `json:"title" validate:"required,max=200"`
	Author     string   `json:"author" validate:"required,max=200"`
	Genre      string   `json:"genre" validate:"required,oneof=fantasy science-fiction adventure growing-up animal-stories biography mystery humor philosophy literature"`
	AgeRange   [2]int   `json:"ageRange" validate:"dive,gte=2,lte=18"`
	Complexity int      `json:"complexity" validate:"gte=1,lte=5"`
	Themes     []string `json:"themes" validate:"dive,required"`
}

// AgeMidpoint returns the middle of the book's target age range
func (b Book) AgeMidpoint() float64 {
	return float64(b.AgeRange[0]+b.AgeRange[1]) / 2
}

// FitsAge reports whether age falls inside the book's range widened by tolerance on both ends
func (b Book) FitsAge(age, tolerance int) bool {
	return age >= b.AgeRange[0]-tolerance && age <= b.AgeRange[1]+tolerance
}

// IsValidGenre reports whether genre belongs to the vocabulary
func IsValidGenre(genre string) bool {
	for _, g := range Genres {
		if g == genre {
			return true
		}
	}
	return false
}
