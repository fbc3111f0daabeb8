package history

import (
	"strings"

	"bookmatch/internal/models"
)

// Sample returns a small demo history for first-run setups
func Sample() []models.ReadingRecord {
	return []models.ReadingRecord{
		{Title: "Harry Potter and the Philosopher's Stone", Author: "J.K. Rowling", Genre: models.GenreFantasy, BorrowDate: "2024-01-15"},
		{Title: "The Little Prince", Author: "Antoine de Saint-Exupery", Genre: models.GenrePhilosophy, BorrowDate: "2024-01-20"},
		{Title: "Charlotte's Web", Author: "E.B. White", Genre: models.GenreAnimalStories, BorrowDate: "2024-02-01"},
		{Title: "Totto-chan: The Little Girl at the Window", Author: "Tetsuko Kuroyanagi", Genre: models.GenreGrowingUp, BorrowDate: "2024-02-10"},
		{Title: "The Secret Garden", Author: "Frances Hodgson Burnett", Genre: models.GenreGrowingUp, BorrowDate: "2024-02-15"},
		{Title: "The Wonderful Wizard of Oz", Author: "L. Frank Baum", Genre: models.GenreAdventure, BorrowDate: "2024-02-20"},
		{Title: "The Adventures of Tom Sawyer", Author: "Mark Twain", Genre: models.GenreAdventure, BorrowDate: "2024-03-01"},
		{Title: "Alice's Adventures in Wonderland", Author: "Lewis Carroll", Genre: models.GenreFantasy, BorrowDate: "2024-03-05"},
	}
}

func normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
