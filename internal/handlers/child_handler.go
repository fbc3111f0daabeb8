package handlers

import (
	"net/http"
	"strings"

	"bookmatch/internal/service"
)

// ChildHandler handles children and their reading history
type ChildHandler struct {
	children *service.ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(children *service.ChildService) *ChildHandler {
	return &ChildHandler{children: children}
}

// ListChildren returns every child
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.children.ListChildren()
	if err != nil {
		respondError(w, err, "Error listing children")
		return
	}
	respondJSON(w, http.StatusOK, children)
}

// CreateChild adds a child
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChildRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	child, err := h.children.CreateChild(req)
	if err != nil {
		respondError(w, err, "Error creating child")
		return
	}
	respondJSON(w, http.StatusCreated, child)
}

// GetChild returns one child
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	child, err := h.children.GetChild(childID)
	if err != nil {
		respondError(w, err, "Error loading child")
		return
	}
	respondJSON(w, http.StatusOK, child)
}

// DeleteChild removes a child with everything recorded for them
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if err := h.children.DeleteChild(childID); err != nil {
		respondError(w, err, "Error deleting child")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportHistory replaces the child's reading history with the request body.
// ?format= picks json, yaml, csv or txt; plain text is the default.
func (h *ChildHandler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "txt"
	}
	switch format {
	case "json", "yaml", "yml", "csv", "txt":
	default:
		respondWithError(w, http.StatusBadRequest, "Format must be json, yaml, csv or txt", "", nil)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	analysis, err := h.children.ImportHistory(childID, "history."+format, body)
	if err != nil {
		respondError(w, err, "Error importing reading history")
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// LoadSampleHistory fills the child's history with the demo books
func (h *ChildHandler) LoadSampleHistory(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	analysis, err := h.children.LoadSampleHistory(childID)
	if err != nil {
		respondError(w, err, "Error loading sample history")
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// GetHistory returns the child's reading history
func (h *ChildHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	records, err := h.children.GetHistory(childID)
	if err != nil {
		respondError(w, err, "Error loading reading history")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// Stats returns the reading analysis and recent games
func (h *ChildHandler) Stats(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	stats, err := h.children.Stats(childID)
	if err != nil {
		respondError(w, err, "Error loading child stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
