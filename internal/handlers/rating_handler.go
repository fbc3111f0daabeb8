package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookmatch/internal/logging"
	"bookmatch/internal/service"
)

// RatingHandler walks a child through rating their reading history
type RatingHandler struct {
	ratings *service.RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// Start opens a rating session over the unrated books
func (h *RatingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "Error starting rating session", h.ratings.Start)
}

// Status returns the current book and progress
func (h *RatingHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "Error loading rating session", h.ratings.Status)
}

// Skip leaves the current book unrated
func (h *RatingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "Error skipping book", h.ratings.Skip)
}

// Previous goes back one book
func (h *RatingHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "Error going back", h.ratings.Previous)
}

// Rate records a 1-5 rating for the current book
func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.ratings.Rate(childID, req.Rating)
	if err != nil {
		respondError(w, err, "Error recording rating")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// Complete saves the ratings to the reading history
func (h *RatingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	count, err := h.ratings.Complete(childID)
	if err != nil {
		respondError(w, err, "Error saving ratings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"rated": count})
}

// ExportCSV downloads rated books in Goodreads import format
func (h *RatingHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("goodreads-import-%d-%s.csv", childID, time.Now().Format(time.DateOnly))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.ratings.ExportCSV(childID, w); err != nil {
		w.Header().Del("Content-Disposition")
		if errors.Is(err, service.ErrChildNotFound) {
			respondError(w, err, "")
			return
		}
		logging.Error().Err(err).Int64("child_id", childID).Msg("Error writing Goodreads export")
	}
}

func (h *RatingHandler) step(w http.ResponseWriter, r *http.Request, logMsg string, fn func(int64) (*service.RatingStatus, error)) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	st, err := fn(childID)
	if err != nil {
		respondError(w, err, logMsg)
		return
	}
	respondJSON(w, http.StatusOK, st)
}
