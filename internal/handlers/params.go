package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// childIDParam parses {childID}, writing a 400 when it is not a positive integer
func childIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "childID"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChildID, "", nil)
		return 0, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter
func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
