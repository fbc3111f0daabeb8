package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"bookmatch/internal/catalog"
	"bookmatch/internal/events"
	"bookmatch/internal/game"
	"bookmatch/internal/logging"
	"bookmatch/internal/metrics"
	"bookmatch/internal/models"
	"bookmatch/internal/repository"
)

// liveGame is a child's current session and when it was last used
type liveGame struct {
	session  *game.Session
	lastUsed time.Time
}

// GameService keeps one preference game per child, persists completed games
// and forwards every notification to the event broker.
type GameService struct {
	mu       sync.Mutex
	sessions map[int64]*liveGame
	rng      *rand.Rand

	catalog  *catalog.Catalog
	children *repository.ChildRepository
	games    *repository.GameRepository
	broker   *events.Broker
	cfg      game.Config
	clock    game.Clock
	logger   zerolog.Logger
}

// NewGameService creates a game service. rng seeds each new session's random source.
func NewGameService(cat *catalog.Catalog, children *repository.ChildRepository, games *repository.GameRepository, broker *events.Broker, cfg game.Config, rng *rand.Rand) *GameService {
	return &GameService{
		sessions: make(map[int64]*liveGame),
		rng:      rng,
		catalog:  cat,
		children: children,
		games:    games,
		broker:   broker,
		cfg:      cfg,
		clock:    game.SystemClock(),
		logger:   logging.WithComponent("game"),
	}
}

// Start begins a game for a child. A completed game is replaced; a game in
// play is rejected with an InvalidState error.
func (s *GameService) Start(childID int64, mode string) (game.Snapshot, error) {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return game.Snapshot{}, err
	}
	if child == nil {
		return game.Snapshot{}, ErrChildNotFound
	}

	m, err := game.ParseMode(mode)
	if err != nil {
		return game.Snapshot{}, err
	}

	sess := s.sessionFor(childID)
	if _, err := sess.Restart(child.ID, child.Age, m); err != nil {
		return game.Snapshot{}, err
	}
	return sess.State(), nil
}

// sessionFor returns the child's session, creating an idle one when needed
func (s *GameService) sessionFor(childID int64) *game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lg, ok := s.sessions[childID]; ok {
		lg.lastUsed = s.clock.Now()
		return lg.session
	}

	sess := game.NewSession(s.catalog,
		game.WithConfig(s.cfg),
		game.WithClock(s.clock),
		game.WithRand(rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))),
	)
	s.wire(childID, sess)
	s.sessions[childID] = &liveGame{session: sess, lastUsed: s.clock.Now()}
	return sess
}

// live returns an existing session or ErrNoActiveGame
func (s *GameService) live(childID int64) (*game.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lg, ok := s.sessions[childID]
	if !ok {
		return nil, ErrNoActiveGame
	}
	lg.lastUsed = s.clock.Now()
	return lg.session, nil
}

// wire registers the session's notification handlers
func (s *GameService) wire(childID int64, sess *game.Session) {
	forward := func(e game.Event) {
		s.broker.Publish(events.Event{Type: string(e.Kind()), ChildID: childID, Data: e})
	}

	sess.On(game.EventStarted, func(e game.Event) {
		ev := e.(game.Started)
		metrics.RecordGameStarted(string(ev.Mode))
		s.logger.Info().Int64("child_id", childID).Str("session_id", ev.SessionID).Str("mode", string(ev.Mode)).
			Int("books", len(ev.Books)).Msg("Game started")
		forward(e)
	})
	sess.On(game.EventSelectionChanged, func(e game.Event) {
		metrics.SelectionToggles.Inc()
		forward(e)
	})
	sess.On(game.EventComparisonProgressed, forward)
	sess.On(game.EventCancelled, func(e game.Event) {
		metrics.RecordGameFinished(string(sess.State().Mode), metrics.OutcomeCancelled, 0)
		s.logger.Info().Int64("child_id", childID).Str("session_id", e.Session()).Msg("Game cancelled")
		forward(e)
	})
	sess.On(game.EventCompleted, func(e game.Event) {
		ev := e.(game.Completed)
		s.recordCompletion(childID, ev)
		forward(e)
	})
	sess.On(game.EventTimedOut, func(e game.Event) {
		ev := e.(game.TimedOut)
		metrics.RecordGameFinished(string(ev.Mode), metrics.OutcomeTimedOut, 0)
		s.logger.Info().Int64("child_id", childID).Str("session_id", ev.SessionID).Str("mode", string(ev.Mode)).Msg("Game timed out")
		forward(e)

		if ev.Mode == game.ModeGrid && ev.SelectedCount >= ev.MinRequired {
			if _, err := sess.Finish(); err != nil {
				s.logger.Warn().Err(err).Int64("child_id", childID).Msg("Failed to finish timed out game")
			}
		}
	})
}

// recordCompletion stores the profile on the child and appends the game history
func (s *GameService) recordCompletion(childID int64, ev game.Completed) {
	res := ev.Result
	metrics.RecordGameFinished(string(res.Mode()), metrics.OutcomeCompleted, res.Elapsed())

	profile, err := json.Marshal(res.Preferences())
	if err != nil {
		s.logger.Error().Err(err).Int64("child_id", childID).Msg("Failed to encode profile")
		return
	}

	if err := s.children.UpdateProfile(childID, string(profile)); err != nil {
		s.logger.Error().Err(err).Int64("child_id", childID).Msg("Failed to store profile")
	}

	selected := res.SelectedBooks()
	ids := make([]int64, len(selected))
	for i, b := range selected {
		ids[i] = b.ID
	}

	rec := &models.GameRecord{
		SessionID:     ev.SessionID,
		ChildID:       childID,
		Mode:          string(res.Mode()),
		ElapsedMs:     res.Elapsed().Milliseconds(),
		Efficiency:    res.EfficiencyLabel(),
		SelectedBooks: ids,
		Profile:       string(profile),
		CompletedAt:   s.clock.Now(),
	}
	if err := s.games.RecordGame(rec); err != nil {
		s.logger.Error().Err(err).Int64("child_id", childID).Msg("Failed to record game")
		return
	}

	s.logger.Info().Int64("child_id", childID).Str("session_id", ev.SessionID).Str("mode", rec.Mode).
		Int64("elapsed_ms", rec.ElapsedMs).Str("efficiency", rec.Efficiency).Msg("Game completed")
}

// State returns the child's session snapshot, or an idle snapshot when there is none
func (s *GameService) State(childID int64) game.Snapshot {
	sess, err := s.live(childID)
	if err != nil {
		return game.Snapshot{ChildID: childID, State: game.StateIdle}
	}
	return sess.State()
}

// Toggle selects or deselects a book in a grid game
func (s *GameService) Toggle(childID, bookID int64) (game.SelectionStatus, error) {
	sess, err := s.live(childID)
	if err != nil {
		return game.SelectionStatus{}, err
	}
	return sess.ToggleSelection(bookID)
}

// Finish completes a grid game
func (s *GameService) Finish(childID int64) (*game.GridResult, error) {
	sess, err := s.live(childID)
	if err != nil {
		return nil, err
	}
	return sess.Finish()
}

// Compare records one pairwise choice
func (s *GameService) Compare(childID, winnerID int64) (game.Progress, *game.ComparisonResult, error) {
	sess, err := s.live(childID)
	if err != nil {
		return game.Progress{}, nil, err
	}
	progress, result, err := sess.Compare(winnerID)
	if err == nil {
		metrics.Comparisons.Inc()
	}
	return progress, result, err
}

// Cancel abandons a game in play and reports whether there was one
func (s *GameService) Cancel(childID int64) (bool, error) {
	sess, err := s.live(childID)
	if err != nil {
		return false, err
	}
	return sess.Cancel(), nil
}

// Result returns the outcome of the child's last completed game, or nil
func (s *GameService) Result(childID int64) game.Result {
	sess, err := s.live(childID)
	if err != nil {
		return nil
	}
	return sess.Result()
}

// Discard resets and forgets the child's session
func (s *GameService) Discard(childID int64) bool {
	s.mu.Lock()
	lg, ok := s.sessions[childID]
	delete(s.sessions, childID)
	s.mu.Unlock()

	if !ok {
		return false
	}
	if lg.session.State().State == game.StatePlaying {
		metrics.RecordGameFinished(string(lg.session.State().Mode), metrics.OutcomeCancelled, 0)
	}
	lg.session.Reset()
	return true
}

// PruneIdle discards sessions unused for longer than maxIdle and returns how many went
func (s *GameService) PruneIdle(maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	var stale []int64
	for childID, lg := range s.sessions {
		if lg.lastUsed.Before(cutoff) {
			stale = append(stale, childID)
		}
	}
	s.mu.Unlock()

	for _, childID := range stale {
		s.Discard(childID)
	}
	if len(stale) > 0 {
		s.logger.Debug().Int("count", len(stale)).Msg("Pruned idle games")
	}
	return len(stale)
}

// RunJanitor prunes idle sessions every interval until ctx ends
func (s *GameService) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PruneIdle(maxIdle)
		}
	}
}

// Close resets every session so no deadline fires after shutdown
func (s *GameService) Close() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Discard(id)
	}
}
