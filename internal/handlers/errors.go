package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"bookmatch/internal/game"
	"bookmatch/internal/history"
	"bookmatch/internal/logging"
	"bookmatch/internal/rating"
	"bookmatch/internal/service"
	"bookmatch/internal/validation"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Limit   int               `json:"limit,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logging.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	respondJSON(w, status, ErrorResponse{Message: userMsg})
}

// gameStatus maps a session rejection code onto a response status
func gameStatus(code game.Code) int {
	switch code {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeInvalidState, game.CodeNoPendingPair:
		return http.StatusConflict
	case game.CodeLimitExceeded, game.CodeInsufficientSelection:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors onto statuses. Anything unrecognised is
// logged with logMsg and reported as a 500.
func respondError(w http.ResponseWriter, err error, logMsg string) {
	var gerr *game.Error
	var verr *validation.Error
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &gerr):
		respondJSON(w, gameStatus(gerr.Code), ErrorResponse{Code: string(gerr.Code), Message: gerr.Message, Limit: gerr.Limit})
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_FAILED", Message: ErrValidationFailed, Fields: verr.Fields})
	case errors.As(err, &tooLarge):
		respondWithError(w, http.StatusRequestEntityTooLarge, "Upload is too large", "", nil)
	case errors.Is(err, game.ErrUnknownMode):
		respondWithError(w, http.StatusBadRequest, ErrUnknownMode, "", nil)
	case errors.Is(err, game.ErrNoCandidates):
		respondWithError(w, http.StatusUnprocessableEntity, ErrNotEnoughBooks, "", nil)
	case errors.Is(err, service.ErrChildNotFound):
		respondWithError(w, http.StatusNotFound, ErrChildNotFound, "", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, ErrSavedSessionNotFound, "", nil)
	case errors.Is(err, service.ErrNoActiveGame):
		respondWithError(w, http.StatusNotFound, ErrNoActiveGame, "", nil)
	case errors.Is(err, service.ErrNoRatingSession):
		respondWithError(w, http.StatusNotFound, ErrNoRatingSession, "", nil)
	case errors.Is(err, service.ErrEmailDisabled):
		respondWithError(w, http.StatusServiceUnavailable, ErrEmailDisabled, "", nil)
	case errors.Is(err, service.ErrSameChild),
		errors.Is(err, history.ErrEmptyHistory),
		errors.Is(err, history.ErrMalformed),
		errors.Is(err, rating.ErrInvalidRating):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrNothingToExport),
		errors.Is(err, rating.ErrNothingToRate):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error(), "", nil)
	case errors.Is(err, rating.ErrFinished):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a request body of at most maxBodyBytes into v, writing a
// 413 or 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, ErrBodyTooLarge, "", nil)
			return false
		}
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}
