package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmatch/internal/models"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"grid", ModeGrid, false},
		{"comparison", ModeComparison, false},
		{"duel", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStartDrawsCandidates(t *testing.T) {
	genres := []string{models.GenreFantasy, models.GenreHumor, models.GenreMystery, models.GenreAdventure}
	books := makeBooks(40, genres...)

	tests := []struct {
		name string
		mode Mode
		want int
	}{
		{name: "grid shows twelve", mode: ModeGrid, want: 12},
		{name: "comparison uses sixteen", mode: ModeComparison, want: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(books, newFakeClock())
			got, err := s.Start(1, 8, tt.mode)
			require.NoError(t, err)
			require.Len(t, got, tt.want)

			seen := make(map[int64]bool)
			perGenre := make(map[string]int)
			for _, b := range got {
				assert.False(t, seen[b.ID], "duplicate candidate %d", b.ID)
				seen[b.ID] = true
				perGenre[b.Genre]++
			}
			for _, g := range genres {
				assert.GreaterOrEqual(t, perGenre[g], 2, "genre %s under-represented", g)
			}

			snap := s.State()
			assert.Equal(t, StatePlaying, snap.State)
			assert.Equal(t, tt.mode, snap.Mode)
			assert.Equal(t, int64(1), snap.ChildID)
		})
	}
}

func TestStartOnlyFromIdle(t *testing.T) {
	s := newTestSession(makeBooks(20, models.GenreFantasy), newFakeClock())
	_, err := s.Start(1, 8, ModeGrid)
	require.NoError(t, err)

	_, err = s.Start(1, 8, ModeGrid)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "session-1", s.State().SessionID, "rejected start must not replace the session")
}

func TestStartRejectsUnknownMode(t *testing.T) {
	s := newTestSession(makeBooks(20, models.GenreFantasy), newFakeClock())
	_, err := s.Start(1, 8, Mode("duel"))
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.State().State)
}

func TestStartWithoutCandidates(t *testing.T) {
	tests := []struct {
		name  string
		books []models.Book
		age   int
		mode  Mode
	}{
		{name: "no books for age", books: makeBooks(20, models.GenreFantasy), age: 15, mode: ModeGrid},
		{name: "grid below minimum", books: makeBooks(2, models.GenreFantasy), age: 8, mode: ModeGrid},
		{name: "comparison needs a pair", books: makeBooks(1, models.GenreFantasy), age: 8, mode: ModeComparison},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(tt.books, newFakeClock())
			rec := &recorder{}
			listenAll(s, rec)

			_, err := s.Start(1, tt.age, tt.mode)
			assert.ErrorIs(t, err, ErrNoCandidates)
			assert.Equal(t, StateIdle, s.State().State)
			assert.Empty(t, rec.kinds())
		})
	}
}

func TestStartEmitsStarted(t *testing.T) {
	s := newTestSession(makeBooks(20, models.GenreFantasy), newFakeClock())
	rec := &recorder{}
	listenAll(s, rec)

	books, err := s.Start(3, 8, ModeComparison)
	require.NoError(t, err)

	ev, ok := rec.last().(Started)
	require.True(t, ok)
	assert.Equal(t, "session-1", ev.SessionID)
	assert.Equal(t, int64(3), ev.ChildID)
	assert.Equal(t, books, ev.Books)
	require.NotNil(t, ev.Pair)
	require.NotNil(t, ev.Comparison)
	assert.Nil(t, ev.Grid)
	assert.Equal(t, Progress{Current: 0, Total: 20, Percentage: 0}, *ev.Progress)
}

func TestCancel(t *testing.T) {
	s := newTestSession(makeBooks(20, models.GenreFantasy), newFakeClock())
	rec := &recorder{}
	listenAll(s, rec)

	assert.False(t, s.Cancel(), "cancel from idle is a no-op")
	assert.Empty(t, rec.kinds())

	books, err := s.Start(1, 8, ModeGrid)
	require.NoError(t, err)
	_, err = s.ToggleSelection(books[0].ID)
	require.NoError(t, err)

	assert.True(t, s.Cancel())
	snap := s.State()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Selected)

	ev, ok := rec.last().(Cancelled)
	require.True(t, ok)
	assert.Equal(t, int64(1), ev.ChildID)

	// operations after cancel are rejected
	_, err = s.ToggleSelection(books[0].ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// and a new session can start
	_, err = s.Start(1, 8, ModeGrid)
	assert.NoError(t, err)
}

func TestCancelAfterCompletionIsNoop(t *testing.T) {
	s := newTestSession(makeBooks(20, models.GenreFantasy), newFakeClock())
	books, err := s.Start(1, 8, ModeGrid)
	require.NoError(t, err)
	for _, b := range books[:3] {
		_, err := s.ToggleSelection(b.ID)
		require.NoError(t, err)
	}
	_, err = s.Finish()
	require.NoError(t, err)

	assert.False(t, s.Cancel())
	assert.Equal(t, StateCompleted, s.State().State)
	assert.NotNil(t, s.Result())
}

func TestRestart(t *testing.T) {
	s := newTestSession(makeBooks(20, models.GenreFantasy), newFakeClock())
	rec := &recorder{}
	listenAll(s, rec)

	books, err := s.Restart(1, 8, ModeGrid)
	require.NoError(t, err, "restart from idle starts normally")

	_, err = s.Restart(1, 8, ModeComparison)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "session-1", s.State().SessionID, "a game in play must survive restart")

	for _, b := range books[:3] {
		_, err := s.ToggleSelection(b.ID)
		require.NoError(t, err)
	}
	_, err = s.Finish()
	require.NoError(t, err)

	_, err = s.Restart(1, 8, Mode("duel"))
	require.Error(t, err)
	assert.Equal(t, StateCompleted, s.State().State, "failed restart keeps the completed game")
	assert.NotNil(t, s.Result())

	_, err = s.Restart(1, 8, ModeComparison)
	require.NoError(t, err)
	snap := s.State()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, ModeComparison, snap.Mode)
	assert.Equal(t, "session-2", snap.SessionID)
	assert.Nil(t, s.Result())
	assert.Equal(t, EventStarted, rec.last().Kind())
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(makeBooks(20, models.GenreFantasy), clock)
	rec := &recorder{}
	listenAll(s, rec)

	_, err := s.Start(1, 8, ModeComparison)
	require.NoError(t, err)

	s.Reset()
	snap := s.State()
	assert.Equal(t, Snapshot{State: StateIdle}, snap)
	assert.Nil(t, s.Result())

	clock.Advance(time.Hour)
	assert.NotContains(t, rec.kinds(), EventTimedOut, "reset must disarm the deadline")

	// reset is valid from idle too
	s.Reset()
	assert.Equal(t, StateIdle, s.State().State)
}

func TestDeadline(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		limit time.Duration
	}{
		{name: "grid", mode: ModeGrid, limit: 5 * time.Minute},
		{name: "comparison", mode: ModeComparison, limit: 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			s := newTestSession(makeBooks(20, models.GenreFantasy), clock)
			rec := &recorder{}
			listenAll(s, rec)

			books, err := s.Start(1, 8, tt.mode)
			require.NoError(t, err)
			if tt.mode == ModeGrid {
				_, err = s.ToggleSelection(books[0].ID)
				require.NoError(t, err)
			}

			clock.Advance(tt.limit - time.Second)
			assert.NotContains(t, rec.kinds(), EventTimedOut)

			clock.Advance(time.Second)
			ev, ok := rec.last().(TimedOut)
			require.True(t, ok, "expected TimedOut, got %v", rec.kinds())
			assert.Equal(t, tt.mode, ev.Mode)
			if tt.mode == ModeGrid {
				assert.Equal(t, 1, ev.SelectedCount)
				assert.Equal(t, 3, ev.MinRequired)
			} else {
				assert.Zero(t, ev.MinRequired)
			}

			// timeout notifies only; the session keeps playing
			assert.Equal(t, StatePlaying, s.State().State)
		})
	}
}

func TestStaleDeadlineIsIgnored(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(makeBooks(20, models.GenreFantasy), clock)
	rec := &recorder{}
	listenAll(s, rec)

	_, err := s.Start(1, 8, ModeGrid)
	require.NoError(t, err)
	require.True(t, s.Cancel())
	_, err = s.Start(1, 8, ModeGrid)
	require.NoError(t, err)

	// fire the first session's callback even though it was stopped
	clock.timer(0).f()
	assert.NotContains(t, rec.kinds(), EventTimedOut)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, EventTimedOut, rec.last().Kind())
}

func TestNoDeadlineAfterCompletion(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(makeBooks(20, models.GenreFantasy), clock)
	rec := &recorder{}
	listenAll(s, rec)

	books, err := s.Start(1, 8, ModeGrid)
	require.NoError(t, err)
	for _, b := range books[:3] {
		_, err := s.ToggleSelection(b.ID)
		require.NoError(t, err)
	}
	_, err = s.Finish()
	require.NoError(t, err)

	clock.timer(0).f()
	clock.Advance(time.Hour)
	assert.Equal(t, EventCompleted, rec.last().Kind())
}

func TestStateElapsed(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(makeBooks(20, models.GenreFantasy), clock)

	assert.Zero(t, s.State().ElapsedMs)

	books, err := s.Start(1, 8, ModeGrid)
	require.NoError(t, err)
	clock.Advance(90 * time.Second)
	assert.Equal(t, int64(90_000), s.State().ElapsedMs)

	for _, b := range books[:3] {
		_, err := s.ToggleSelection(b.ID)
		require.NoError(t, err)
	}
	_, err = s.Finish()
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.Equal(t, int64(90_000), s.State().ElapsedMs, "elapsed freezes at completion")
}

func TestErrorMatching(t *testing.T) {
	err := limitExceeded(5)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.False(t, errors.Is(err, ErrNotFound))

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, 5, gerr.Limit)
	assert.Equal(t, CodeLimitExceeded, gerr.Code)
}
