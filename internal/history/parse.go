// Package history imports and analyzes a child's reading history.
package history

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"bookmatch/internal/models"
)

// UnknownAuthor fills the author of records imported from plain text
const UnknownAuthor = "Unknown author"

// maxLineBytes caps one line of a plain-text history
const maxLineBytes = 1 << 20

var (
	// ErrEmptyHistory is returned when a file holds no usable records
	ErrEmptyHistory = errors.New("no books found in reading history")
	// ErrMalformed wraps every decode failure of an uploaded file
	ErrMalformed = errors.New("reading history file is malformed")
)

// Parser turns uploaded history files into reading records
type Parser struct {
	now func() time.Time
}

// NewParser creates a parser. now dates plain-text imports, which carry no dates.
func NewParser(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse reads records with the system clock
func Parse(name string, r io.Reader) ([]models.ReadingRecord, error) {
	return NewParser(time.Now).Parse(name, r)
}

// Parse picks a format from the file extension: .json, .yaml/.yml, .csv,
// otherwise one title per line. Missing genres are guessed from titles.
func (p *Parser) Parse(name string, r io.Reader) ([]models.ReadingRecord, error) {
	var (
		records []models.ReadingRecord
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		records, err = parseJSON(r)
	case ".yaml", ".yml":
		records, err = parseYAML(r)
	case ".csv":
		records, err = parseCSV(r)
	default:
		records, err = p.parseText(r)
	}
	if err != nil {
		if errors.Is(err, ErrEmptyHistory) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	out := records[:0]
	for _, rec := range records {
		rec.Title = strings.TrimSpace(rec.Title)
		if rec.Title == "" {
			continue
		}
		rec.Author = strings.TrimSpace(rec.Author)
		if rec.Author == "" {
			rec.Author = UnknownAuthor
		}
		rec.Genre = normalizeGenre(rec.Genre)
		if rec.Genre == "" {
			rec.Genre = GuessGenre(rec.Title)
		}
		if !rec.IsRated() {
			rec.Rating = 0
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, ErrEmptyHistory
	}
	return out, nil
}

func parseJSON(r io.Reader) ([]models.ReadingRecord, error) {
	var records []models.ReadingRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON history: %w", err)
	}
	return records, nil
}

type yamlRecord struct {
	Title      string `yaml:"title"`
	Author     string `yaml:"author"`
	Genre      string `yaml:"genre"`
	BorrowDate string `yaml:"borrowDate"`
	Rating     int    `yaml:"rating"`
}

func parseYAML(r io.Reader) ([]models.ReadingRecord, error) {
	var raw []yamlRecord
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode YAML history: %w", err)
	}

	records := make([]models.ReadingRecord, len(raw))
	for i, y := range raw {
		records[i] = models.ReadingRecord{
			Title:      y.Title,
			Author:     y.Author,
			Genre:      y.Genre,
			BorrowDate: y.BorrowDate,
			Rating:     y.Rating,
		}
	}
	return records, nil
}

// parseCSV maps columns by header: any header containing title, author,
// date or genre feeds that field.
func parseCSV(r io.Reader) ([]models.ReadingRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyHistory
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, field := range []string{"title", "author", "date", "genre"} {
			if _, seen := columns[field]; !seen && strings.Contains(h, field) {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("CSV history has no title column")
	}

	var records []models.ReadingRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		records = append(records, models.ReadingRecord{
			Title:      column(row, columns, "title"),
			Author:     column(row, columns, "author"),
			BorrowDate: column(row, columns, "date"),
			Genre:      column(row, columns, "genre"),
		})
	}
	return records, nil
}

func column(row []string, columns map[string]int, field string) string {
	i, ok := columns[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (p *Parser) parseText(r io.Reader) ([]models.ReadingRecord, error) {
	today := p.now().Format(time.DateOnly)

	var records []models.ReadingRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records = append(records, models.ReadingRecord{
			Title:      line,
			Author:     UnknownAuthor,
			BorrowDate: today,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// normalizeGenre lowercases a genre and maps spaces to hyphens. Unknown
// genres come back empty so the caller can guess instead.
func normalizeGenre(genre string) string {
	g := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(genre)), " ", "-")
	switch g {
	case "sci-fi", "scifi":
		g = models.GenreScienceFiction
	case "animals", "animal":
		g = models.GenreAnimalStories
	}
	if !models.IsValidGenre(g) {
		return ""
	}
	return g
}
