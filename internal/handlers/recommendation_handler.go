package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bookmatch/internal/export"
	"bookmatch/internal/logging"
	"bookmatch/internal/service"
	"bookmatch/internal/validation"
)

// RecommendationHandler serves recommendations and their exports
type RecommendationHandler struct {
	recommendations *service.RecommendationService
	email           *service.EmailService
	validator       *validation.Validator
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendations *service.RecommendationService, email *service.EmailService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations: recommendations,
		email:           email,
		validator:       validation.New(),
	}
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForChild returns the child's ranked recommendations
func (h *RecommendationHandler) ForChild(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	recs, err := h.recommendations.ForChild(childID)
	if err != nil {
		respondError(w, err, "Error building recommendations")
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// Shared returns books for two children, named by ?children=a,b
func (h *RecommendationHandler) Shared(w http.ResponseWriter, r *http.Request) {
	a, b, err := parseChildPair(r.URL.Query().Get("children"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	recs, err := h.recommendations.Shared(a, b)
	if err != nil {
		respondError(w, err, "Error building shared recommendations")
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// Export downloads the child's recommendations as a JSON document
func (h *RecommendationHandler) Export(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	snap, err := h.recommendations.Snapshot(childID)
	if err != nil {
		respondError(w, err, "Error exporting recommendations")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.Filename()))
	if err := export.WriteJSON(w, snap); err != nil {
		logging.Error().Err(err).Int64("child_id", childID).Msg("Error writing export")
	}
}

// EmailExport mails the child's recommendations to a parent
func (h *RecommendationHandler) EmailExport(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(req); err != nil {
		respondError(w, err, "")
		return
	}
	if !h.email.IsEnabled() {
		respondError(w, service.ErrEmailDisabled, "")
		return
	}

	snap, err := h.recommendations.Snapshot(childID)
	if err != nil {
		respondError(w, err, "Error exporting recommendations")
		return
	}
	sent, err := h.email.SendRecommendations(r.Context(), req.Email, snap)
	if err != nil {
		respondError(w, err, "Error sending recommendations email")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

// parseChildPair reads "a,b" into two child IDs
func parseChildPair(raw string) (int64, int64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("children must name exactly two child IDs")
	}
	ids := make([]int64, 2)
	for i, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return 0, 0, fmt.Errorf("invalid child ID %q", p)
		}
		ids[i] = id
	}
	return ids[0], ids[1], nil
}
