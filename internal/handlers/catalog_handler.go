package handlers

import (
	"net/http"

	"bookmatch/internal/catalog"
	"bookmatch/internal/models"
)

// CatalogHandler serves the book catalog
type CatalogHandler struct {
	catalog   *catalog.Catalog
	tolerance int
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog, ageTolerance int) *CatalogHandler {
	return &CatalogHandler{catalog: cat, tolerance: ageTolerance}
}

// ListBooks returns the whole catalog, or the books suiting ?age= when given
func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	age, err := intQuery(r, "age", 0)
	if err != nil || age < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid age", "", nil)
		return
	}
	tolerance, err := intQuery(r, "tolerance", h.tolerance)
	if err != nil || tolerance < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid tolerance", "", nil)
		return
	}

	books := h.catalog.All()
	if age > 0 {
		books = h.catalog.ByAge(age, tolerance)
	}
	if books == nil {
		books = []models.Book{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(books),
		"books": books,
	})
}
