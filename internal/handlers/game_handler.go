package handlers

import (
	"net/http"

	"bookmatch/internal/events"
	"bookmatch/internal/game"
	"bookmatch/internal/service"
)

// GameHandler handles the preference game HTTP requests
type GameHandler struct {
	games    *service.GameService
	children *service.ChildService
	broker   *events.Broker
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService, children *service.ChildService, broker *events.Broker) *GameHandler {
	return &GameHandler{games: games, children: children, broker: broker}
}

type startGameRequest struct {
	Mode string `json:"mode"`
}

type toggleRequest struct {
	BookID int64 `json:"bookId"`
}

type compareRequest struct {
	WinnerID int64 `json:"winnerId"`
}

// CompareResponse is the progress after one comparison. Pair is the next
// pair to judge; Result is set once the last comparison is made.
type CompareResponse struct {
	Progress game.Progress          `json:"progress"`
	Pair     *game.Pair             `json:"pair,omitempty"`
	Result   *game.ComparisonResult `json:"result,omitempty"`
}

// StartGame begins a grid or comparison game
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	var req startGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := h.games.Start(childID, req.Mode)
	if err != nil {
		respondError(w, err, "Error starting game")
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// GetGame returns the child's game state, idle when there is none
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	snap := h.games.State(childID)

	body := map[string]any{"state": snap}
	if res := h.games.Result(childID); res != nil {
		body["result"] = res
	}
	respondJSON(w, http.StatusOK, body)
}

// ToggleBook selects or deselects a grid book
func (h *GameHandler) ToggleBook(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.games.Toggle(childID, req.BookID)
	if err != nil {
		respondError(w, err, "Error toggling selection")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// FinishGame completes a grid game
func (h *GameHandler) FinishGame(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.games.Finish(childID)
	if err != nil {
		respondError(w, err, "Error finishing game")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Compare records which book of the current pair the child preferred
func (h *GameHandler) Compare(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	var req compareRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	progress, res, err := h.games.Compare(childID, req.WinnerID)
	if err != nil {
		respondError(w, err, "Error recording comparison")
		return
	}

	resp := CompareResponse{Progress: progress, Result: res}
	if res == nil {
		resp.Pair = h.games.State(childID).Pair
	}
	respondJSON(w, http.StatusOK, resp)
}

// CancelGame abandons the game in play
func (h *GameHandler) CancelGame(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	cancelled, err := h.games.Cancel(childID)
	if err != nil {
		respondError(w, err, "Error cancelling game")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// DiscardGame forgets the child's game entirely
func (h *GameHandler) DiscardGame(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if !h.games.Discard(childID) {
		respondWithError(w, http.StatusNotFound, ErrNoActiveGame, "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Events streams the child's game notifications as server-sent events
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}
	if _, err := h.children.GetChild(childID); err != nil {
		respondError(w, err, "Error loading child")
		return
	}
	h.broker.ServeStream(w, r, childID)
}
