package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmatch/internal/game"
	"bookmatch/internal/history"
	"bookmatch/internal/logging"
	"bookmatch/internal/rating"
	"bookmatch/internal/service"
	"bookmatch/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	assert.Equal(t, 418, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Teapot", body.Message)
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	original := logging.Logger()
	logging.SetLogger(zerolog.New(&buf))
	defer logging.SetLogger(original)

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "Internal server error")
	assert.Contains(t, out, "boom")
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid state", err: game.ErrInvalidState, wantStatus: http.StatusConflict, wantCode: "INVALID_STATE"},
		{name: "unknown book", err: game.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "limit exceeded", err: &game.Error{Code: game.CodeLimitExceeded, Message: "at most 5", Limit: 5}, wantStatus: http.StatusUnprocessableEntity, wantCode: "LIMIT_EXCEEDED"},
		{name: "no pending pair", err: game.ErrNoPendingPair, wantStatus: http.StatusConflict, wantCode: "NO_PENDING_PAIR"},
		{name: "validation", err: &validation.Error{Fields: map[string]string{"name": "is required"}}, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "unknown mode", err: fmt.Errorf("%w %q", game.ErrUnknownMode, "duel"), wantStatus: http.StatusBadRequest},
		{name: "no candidates", err: fmt.Errorf("%w: 0 found", game.ErrNoCandidates), wantStatus: http.StatusUnprocessableEntity},
		{name: "child not found", err: service.ErrChildNotFound, wantStatus: http.StatusNotFound},
		{name: "saved session not found", err: service.ErrSessionNotFound, wantStatus: http.StatusNotFound},
		{name: "no game", err: service.ErrNoActiveGame, wantStatus: http.StatusNotFound},
		{name: "email disabled", err: service.ErrEmailDisabled, wantStatus: http.StatusServiceUnavailable},
		{name: "same child", err: service.ErrSameChild, wantStatus: http.StatusBadRequest},
		{name: "empty history", err: history.ErrEmptyHistory, wantStatus: http.StatusBadRequest},
		{name: "malformed history", err: fmt.Errorf("%w: %w", history.ErrMalformed, errors.New("bufio.Scanner: token too long")), wantStatus: http.StatusBadRequest},
		{name: "insufficient selection", err: &game.Error{Code: game.CodeInsufficientSelection, Message: "select at least 3", Limit: 3}, wantStatus: http.StatusUnprocessableEntity, wantCode: "INSUFFICIENT_SELECTION"},
		{name: "nothing to rate", err: rating.ErrNothingToRate, wantStatus: http.StatusUnprocessableEntity},
		{name: "rating finished", err: rating.ErrFinished, wantStatus: http.StatusConflict},
		{name: "anything else", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondError(recorder, tt.err, "test")

			assert.Equal(t, tt.wantStatus, recorder.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, ErrInternalServerError, body.Message)
			}
		})
	}
}

func TestGameStatus(t *testing.T) {
	tests := []struct {
		code game.Code
		want int
	}{
		{game.CodeNotFound, http.StatusNotFound},
		{game.CodeInvalidState, http.StatusConflict},
		{game.CodeNoPendingPair, http.StatusConflict},
		{game.CodeLimitExceeded, http.StatusUnprocessableEntity},
		{game.CodeInsufficientSelection, http.StatusUnprocessableEntity},
		{game.Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := gameStatus(tt.code); got != tt.want {
			t.Errorf("gameStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", body: `{"name":"Mia"}`, wantOK: true, wantStatus: http.StatusOK},
		{name: "malformed", body: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "over the cap", body: `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var got payload
			ok := decodeJSON(recorder, req, &got)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, recorder.Code)
			if ok {
				assert.Equal(t, "Mia", got.Name)
			}
		})
	}
}

func TestParseChildPair(t *testing.T) {
	tests := []struct {
		raw     string
		a, b    int64
		wantErr bool
	}{
		{raw: "1,2", a: 1, b: 2},
		{raw: " 3 , 4 ", a: 3, b: 4},
		{raw: "1", wantErr: true},
		{raw: "1,2,3", wantErr: true},
		{raw: "1,x", wantErr: true},
		{raw: "0,2", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, b, err := parseChildPair(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.a, a)
			assert.Equal(t, tt.b, b)
		})
	}
}
