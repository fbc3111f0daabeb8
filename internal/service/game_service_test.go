package service

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmatch/internal/game"
)

func TestGameServiceGridFlow(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	svc := env.gameService(newFakeClock())
	defer svc.Close()

	client, err := env.broker.Subscribe(child.ID)
	require.NoError(t, err)

	snap, err := svc.Start(child.ID, "grid")
	require.NoError(t, err)
	assert.Equal(t, game.StatePlaying, snap.State)
	assert.Equal(t, game.ModeGrid, snap.Mode)
	assert.Len(t, snap.Books, 12)

	for _, b := range snap.Books[:3] {
		_, err := svc.Toggle(child.ID, b.ID)
		require.NoError(t, err)
	}
	res, err := svc.Finish(child.ID)
	require.NoError(t, err)
	assert.Len(t, res.Selected, 3)

	assert.Equal(t, game.StateCompleted, svc.State(child.ID).State)
	assert.NotNil(t, svc.Result(child.ID))
	assert.Equal(t, []string{"started", "selectionChanged", "selectionChanged", "selectionChanged", "completed"}, drain(client))

	stored, err := env.children.GetChildByID(child.ID)
	require.NoError(t, err)
	require.True(t, stored.HasProfile())
	var profile game.Profile
	require.NoError(t, json.Unmarshal([]byte(stored.Profile), &profile))

	games, err := env.games.GetChildGames(child.ID, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "grid", games[0].Mode)
	assert.Equal(t, snap.SessionID, games[0].SessionID)
	assert.Len(t, games[0].SelectedBooks, 3)
}

func TestGameServiceComparisonFlow(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Leo", 10)
	svc := env.gameService(newFakeClock())
	defer svc.Close()

	snap, err := svc.Start(child.ID, "comparison")
	require.NoError(t, err)
	require.NotNil(t, snap.Pair)

	var result *game.ComparisonResult
	for i := 0; i < game.DefaultConfig().Comparison.TotalComparisons; i++ {
		pair := svc.State(child.ID).Pair
		require.NotNil(t, pair, "comparison %d", i+1)

		progress, res, err := svc.Compare(child.ID, pair.First.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, progress.Current)
		result = res
	}

	require.NotNil(t, result)
	assert.Len(t, result.Selected, 5)
	assert.Equal(t, game.StateCompleted, svc.State(child.ID).State)

	games, err := env.games.GetChildGames(child.ID, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "comparison", games[0].Mode)
}

func TestGameServiceRestartAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	svc := env.gameService(newFakeClock())
	defer svc.Close()

	first, err := svc.Start(child.ID, "grid")
	require.NoError(t, err)
	for _, b := range first.Books[:3] {
		_, err := svc.Toggle(child.ID, b.ID)
		require.NoError(t, err)
	}
	_, err = svc.Finish(child.ID)
	require.NoError(t, err)

	second, err := svc.Start(child.ID, "grid")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, game.StatePlaying, second.State)
	assert.Nil(t, svc.Result(child.ID))
}

func TestDeleteChildEndsLiveSessions(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	games := env.gameService(newFakeClock())
	defer games.Close()
	ratings := NewRatingService(env.children, env.readings)
	children := newChildService(env)
	children.TrackSessions(games, ratings)

	snap, err := games.Start(child.ID, "grid")
	require.NoError(t, err)
	_, err = children.LoadSampleHistory(child.ID)
	require.NoError(t, err)
	_, err = ratings.Start(child.ID)
	require.NoError(t, err)

	require.NoError(t, children.DeleteChild(child.ID))

	for _, b := range snap.Books[:3] {
		_, err := games.Toggle(child.ID, b.ID)
		assert.ErrorIs(t, err, ErrNoActiveGame)
	}
	_, err = games.Finish(child.ID)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	_, _, err = games.Compare(child.ID, snap.Books[0].ID)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	assert.Equal(t, game.StateIdle, games.State(child.ID).State)

	_, err = ratings.Status(child.ID)
	assert.ErrorIs(t, err, ErrNoRatingSession)

	_, err = games.Start(child.ID, "grid")
	assert.ErrorIs(t, err, ErrChildNotFound)
}

func TestGameServiceStartErrors(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	svc := env.gameService(newFakeClock())
	defer svc.Close()

	_, err := svc.Start(999, "grid")
	assert.ErrorIs(t, err, ErrChildNotFound)

	_, err = svc.Start(child.ID, "duel")
	assert.ErrorIs(t, err, game.ErrUnknownMode)

	_, err = svc.Start(child.ID, "grid")
	require.NoError(t, err)
	_, err = svc.Start(child.ID, "comparison")
	assert.ErrorIs(t, err, game.ErrInvalidState)

	var gerr *game.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, game.CodeInvalidState, gerr.Code)
}

func TestGameServiceWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	svc := env.gameService(newFakeClock())

	snap := svc.State(child.ID)
	assert.Equal(t, game.StateIdle, snap.State)
	assert.Equal(t, child.ID, snap.ChildID)
	assert.Nil(t, svc.Result(child.ID))

	_, err := svc.Toggle(child.ID, 1)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	_, err = svc.Finish(child.ID)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	_, _, err = svc.Compare(child.ID, 1)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	_, err = svc.Cancel(child.ID)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	assert.False(t, svc.Discard(child.ID))
}

func TestGameServiceCancel(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	svc := env.gameService(newFakeClock())
	defer svc.Close()

	client, err := env.broker.Subscribe(child.ID)
	require.NoError(t, err)

	_, err = svc.Start(child.ID, "comparison")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(child.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, game.StateIdle, svc.State(child.ID).State)

	cancelled, err = svc.Cancel(child.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	assert.Equal(t, []string{"started", "cancelled"}, drain(client))

	games, err := env.games.GetChildGames(child.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestGameServiceTimeout(t *testing.T) {
	tests := []struct {
		name      string
		selected  int
		wantState game.State
		wantGames int
	}{
		{name: "enough selections finish the game", selected: 3, wantState: game.StateCompleted, wantGames: 1},
		{name: "too few selections keep playing", selected: 1, wantState: game.StatePlaying, wantGames: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			child := env.child(t, "Mia", 8)
			clock := newFakeClock()
			svc := env.gameService(clock)
			defer svc.Close()

			client, err := env.broker.Subscribe(child.ID)
			require.NoError(t, err)

			snap, err := svc.Start(child.ID, "grid")
			require.NoError(t, err)
			for _, b := range snap.Books[:tt.selected] {
				_, err := svc.Toggle(child.ID, b.ID)
				require.NoError(t, err)
			}
			drain(client)

			clock.Advance(game.DefaultConfig().Grid.TimeLimit + time.Second)

			assert.Equal(t, tt.wantState, svc.State(child.ID).State)
			types := drain(client)
			require.NotEmpty(t, types)
			assert.Equal(t, "timedOut", types[0])

			games, err := env.games.GetChildGames(child.ID, 10)
			require.NoError(t, err)
			assert.Len(t, games, tt.wantGames)
		})
	}
}

func TestGameServiceTimeoutAfterCancelIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	child := env.child(t, "Mia", 8)
	clock := newFakeClock()
	svc := env.gameService(clock)
	defer svc.Close()

	client, err := env.broker.Subscribe(child.ID)
	require.NoError(t, err)

	_, err = svc.Start(child.ID, "grid")
	require.NoError(t, err)
	_, err = svc.Cancel(child.ID)
	require.NoError(t, err)
	drain(client)

	clock.Advance(time.Hour)
	assert.Empty(t, drain(client))
}

func TestGameServicePruneIdle(t *testing.T) {
	env := newTestEnv(t)
	mia := env.child(t, "Mia", 8)
	leo := env.child(t, "Leo", 10)
	clock := newFakeClock()
	svc := env.gameService(clock)
	defer svc.Close()

	_, err := svc.Start(mia.ID, "grid")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	_, err = svc.Start(leo.ID, "grid")
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, svc.PruneIdle(30*time.Minute))

	assert.Equal(t, game.StateIdle, svc.State(mia.ID).State)
	assert.Equal(t, game.StatePlaying, svc.State(leo.ID).State)
	assert.Equal(t, 0, svc.PruneIdle(30*time.Minute))
}
