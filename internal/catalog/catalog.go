// Package catalog holds the read-only book catalog the preference game draws from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"bookmatch/internal/models"
	"bookmatch/internal/validation"
)

//go:embed books.json
var seedCatalog []byte

// ErrEmpty is returned when a catalog source contains no books
var ErrEmpty = errors.New("catalog contains no books")

// Catalog is an immutable, validated set of books
type Catalog struct {
	books   []models.Book
	byID    map[int64]int
	byTitle map[string]int
}

// New validates books and builds a catalog. Book IDs must be unique and every
// age range must have its lower bound at or below its upper bound.
func New(books []models.Book) (*Catalog, error) {
	if len(books) == 0 {
		return nil, ErrEmpty
	}

	v := validation.New()
	c := &Catalog{
		books:   make([]models.Book, len(books)),
		byID:    make(map[int64]int, len(books)),
		byTitle: make(map[string]int, len(books)),
	}

	for i, b := range books {
		if err := v.Validate(b); err != nil {
			return nil, fmt.Errorf("invalid book %d (%q): %w", b.ID, b.Title, err)
		}
		if b.AgeRange[0] > b.AgeRange[1] {
			return nil, fmt.Errorf("invalid book %d (%q): age range %d-%d is inverted", b.ID, b.Title, b.AgeRange[0], b.AgeRange[1])
		}
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("duplicate book id %d", b.ID)
		}

		b.Themes = append([]string(nil), b.Themes...)
		c.books[i] = b
		c.byID[b.ID] = i
		c.byTitle[normalizeTitle(b.Title)] = i
	}

	return c, nil
}

// Load decodes a JSON array of books and builds a catalog from it
func Load(r io.Reader) (*Catalog, error) {
	var books []models.Book
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(books)
}

// LoadFile loads a catalog from a JSON file on disk
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog bundled with the binary
func Default() (*Catalog, error) {
	var books []models.Book
	if err := json.Unmarshal(seedCatalog, &books); err != nil {
		return nil, fmt.Errorf("failed to decode bundled catalog: %w", err)
	}
	return New(books)
}

// Len returns the number of books in the catalog
func (c *Catalog) Len() int {
	return len(c.books)
}

// All returns every book in catalog order
func (c *Catalog) All() []models.Book {
	out := make([]models.Book, len(c.books))
	copy(out, c.books)
	return out
}

// Get looks up a book by ID
func (c *Catalog) Get(id int64) (models.Book, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Book{}, false
	}
	return c.books[i], true
}

// FindByTitle matches a title case-insensitively, ignoring surrounding whitespace
func (c *Catalog) FindByTitle(title string) (models.Book, bool) {
	i, ok := c.byTitle[normalizeTitle(title)]
	if !ok {
		return models.Book{}, false
	}
	return c.books[i], true
}

// ByAge returns the books whose age range, widened by tolerance, contains age.
// Catalog order is preserved.
func (c *Catalog) ByAge(age, tolerance int) []models.Book {
	var out []models.Book
	for _, b := range c.books {
		if b.FitsAge(age, tolerance) {
			out = append(out, b)
		}
	}
	return out
}

// ForBothChildren returns the books suitable for two children at once: each
// child's age must fit the book within a one-year tolerance.
func (c *Catalog) ForBothChildren(ageA, ageB int) []models.Book {
	var out []models.Book
	for _, b := range c.books {
		if b.FitsAge(ageA, 1) && b.FitsAge(ageB, 1) {
			out = append(out, b)
		}
	}
	return out
}

// RandomSample returns up to n books drawn without replacement. The input is not modified.
func RandomSample(books []models.Book, n int, rng *rand.Rand) []models.Book {
	if n <= 0 || len(books) == 0 {
		return nil
	}

	shuffled := make([]models.Book, len(books))
	copy(shuffled, books)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
