package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookmatch/internal/service"
)

// SessionHandler manages saved recommendation snapshots
type SessionHandler struct {
	sessions *service.SavedSessionService
}

// NewSessionHandler creates a new saved session handler
func NewSessionHandler(sessions *service.SavedSessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List returns saved snapshots, newest first
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List()
	if err != nil {
		respondError(w, err, "Error listing saved sessions")
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

// Save stores fresh recommendations for one child or a pair
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req service.SaveSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	saved, err := h.sessions.Save(req)
	if err != nil {
		respondError(w, err, "Error saving session")
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// Get returns one snapshot with its recommendations
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	saved, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err, "Error loading saved session")
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// Delete removes one snapshot
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, err, "Error deleting saved session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
