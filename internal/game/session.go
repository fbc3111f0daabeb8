// Package game runs the preference elicitation game: a child either picks
// favourites from a grid of books or judges a series of head-to-head pairs,
// and the session turns those choices into a preference profile.
package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookmatch/internal/catalog"
	"bookmatch/internal/models"
)

// Mode selects the elicitation algorithm
type Mode string

const (
	ModeGrid       Mode = "grid"
	ModeComparison Mode = "comparison"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGrid, ModeComparison:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// State is the session lifecycle position
type State string

const (
	StateIdle      State = "idle"
	StatePlaying   State = "playing"
	StateCompleted State = "completed"
)

// perGenreSample is how many books each genre contributes before topping up
const perGenreSample = 2

// CandidateSource supplies age-appropriate books
type CandidateSource interface {
	ByAge(age, tolerance int) []models.Book
}

// Option configures a Session
type Option func(*Session)

// WithConfig overrides the default game settings
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithRand sets the random source used for candidate draws and fallback pairs
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithDispatcher routes the session's notifications through d
func WithDispatcher(d *Dispatcher) Option {
	return func(s *Session) { s.dispatcher = d }
}

// WithIDGenerator replaces uuid session IDs
func WithIDGenerator(f func() string) Option {
	return func(s *Session) { s.newID = f }
}

// Session is a single elicitation session for one child. It is safe for use
// from multiple goroutines; the deadline callback runs on a timer goroutine.
type Session struct {
	mu         sync.Mutex
	cfg        Config
	source     CandidateSource
	rng        *rand.Rand
	clock      Clock
	dispatcher *Dispatcher
	newID      func() string

	id          string
	childID     int64
	mode        Mode
	state       State
	startedAt   time.Time
	completedAt time.Time
	candidates  []models.Book
	index       map[int64]int

	// grid
	selected []int64

	// comparison
	ratings     map[int64]float64
	comparisons int
	pair        *Pair
	lastPair    *Pair
	history     []Comparison

	generation   uint64
	stopDeadline func() bool
	result       Result
}

// NewSession creates an idle session drawing books from source
func NewSession(source CandidateSource, opts ...Option) *Session {
	s := &Session{
		cfg:        DefaultConfig(),
		source:     source,
		clock:      SystemClock(),
		dispatcher: NewDispatcher(),
		newID:      uuid.NewString,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// On registers the handler for one notification kind, replacing any previous one
func (s *Session) On(kind EventKind, h Handler) {
	s.dispatcher.On(kind, h)
}

// Start draws candidates for a child of the given age and begins playing.
// It fails with ErrInvalidState unless the session is idle and with
// ErrNoCandidates when the catalog cannot fill the mode's minimum.
func (s *Session) Start(childID int64, childAge int, mode Mode) ([]models.Book, error) {
	s.mu.Lock()
	books, ev, err := s.start(childID, childAge, mode)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.dispatcher.Publish(ev)
	return books, nil
}

// Restart is Start that also replaces a completed session in the same step.
// A session in play is still rejected.
func (s *Session) Restart(childID int64, childAge int, mode Mode) ([]models.Book, error) {
	s.mu.Lock()
	prev := s.state
	if prev == StateCompleted {
		s.state = StateIdle
	}
	books, ev, err := s.start(childID, childAge, mode)
	if err != nil {
		s.state = prev
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.dispatcher.Publish(ev)
	return books, nil
}

func (s *Session) start(childID int64, childAge int, mode Mode) ([]models.Book, Event, error) {
	if s.state != StateIdle {
		return nil, nil, invalidState("cannot start while session is %s", s.state)
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, nil, err
	}

	candidates := s.drawCandidates(childAge, mode)
	if len(candidates) < s.cfg.minimumCandidates(mode) {
		return nil, nil, fmt.Errorf("%w: %d found for age %d", ErrNoCandidates, len(candidates), childAge)
	}

	s.clear()
	s.id = s.newID()
	s.childID = childID
	s.mode = mode
	s.candidates = candidates
	s.index = make(map[int64]int, len(candidates))
	for i, b := range candidates {
		s.index[b.ID] = i
	}
	s.startedAt = s.clock.Now()
	s.state = StatePlaying

	ev := Started{
		SessionID: s.id,
		ChildID:   childID,
		Mode:      mode,
		Books:     s.candidateCopy(),
	}

	switch mode {
	case ModeGrid:
		grid := s.cfg.Grid
		ev.Grid = &grid
	case ModeComparison:
		s.ratings = make(map[int64]float64, len(candidates))
		for _, b := range candidates {
			s.ratings[b.ID] = s.cfg.Comparison.InitialRating
		}
		s.pair = s.nextPair()
		comparison := s.cfg.Comparison
		progress := s.progress()
		ev.Comparison = &comparison
		ev.Pair = s.pair.clone()
		ev.Progress = &progress
	}

	s.generation++
	s.armDeadline(s.cfg.timeLimit(mode))

	return s.candidateCopy(), ev, nil
}

// Cancel abandons a playing session and returns it to idle. It reports
// whether anything was cancelled; in any other state it does nothing.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return false
	}

	ev := Cancelled{SessionID: s.id, ChildID: s.childID}
	s.generation++
	s.disarmDeadline()
	s.selected = nil
	s.ratings = nil
	s.comparisons = 0
	s.pair = nil
	s.lastPair = nil
	s.history = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.dispatcher.Publish(ev)
	return true
}

// Reset discards everything about the current session and forces idle
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.disarmDeadline()
	s.clear()
}

// clear zeroes per-session fields. Callers hold mu.
func (s *Session) clear() {
	s.id = ""
	s.childID = 0
	s.mode = ""
	s.state = StateIdle
	s.startedAt = time.Time{}
	s.completedAt = time.Time{}
	s.candidates = nil
	s.index = nil
	s.selected = nil
	s.ratings = nil
	s.comparisons = 0
	s.pair = nil
	s.lastPair = nil
	s.history = nil
	s.result = nil
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	SessionID string           `json:"sessionId,omitempty"`
	ChildID   int64            `json:"childId,omitempty"`
	Mode      Mode             `json:"mode,omitempty"`
	State     State            `json:"state"`
	Books     []models.Book    `json:"books,omitempty"`
	Selected  []int64          `json:"selected,omitempty"`
	Selection *SelectionStatus `json:"selection,omitempty"`
	Progress  *Progress        `json:"progress,omitempty"`
	Pair      *Pair            `json:"pair,omitempty"`
	ElapsedMs int64            `json:"elapsedTime"`
	TimeLimit time.Duration    `json:"timeLimit,omitempty"`
	HasResult bool             `json:"hasResult"`
}

// State returns a snapshot of the session. It is valid in every state.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.id,
		ChildID:   s.childID,
		Mode:      s.mode,
		State:     s.state,
		Books:     s.candidateCopy(),
		HasResult: s.result != nil,
	}

	switch {
	case s.state == StatePlaying:
		snap.ElapsedMs = s.clock.Now().Sub(s.startedAt).Milliseconds()
	case s.state == StateCompleted:
		snap.ElapsedMs = s.completedAt.Sub(s.startedAt).Milliseconds()
	}
	if s.mode != "" {
		snap.TimeLimit = s.cfg.timeLimit(s.mode)
	}

	switch s.mode {
	case ModeGrid:
		status := s.selectionStatus()
		snap.Selection = &status
		snap.Selected = append([]int64(nil), s.selected...)
	case ModeComparison:
		progress := s.progress()
		snap.Progress = &progress
		snap.Pair = s.pair.clone()
	}
	return snap
}

// Result returns the outcome of the last completed session, or nil
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// drawCandidates picks up to two random books per genre, tops up with random
// remaining books, then shuffles and truncates to the mode's target size.
func (s *Session) drawCandidates(age int, mode Mode) []models.Book {
	pool := s.source.ByAge(age, s.cfg.AgeTolerance)
	target := s.cfg.targetCandidates(mode)

	var genres []string
	byGenre := make(map[string][]models.Book)
	for _, b := range pool {
		if _, ok := byGenre[b.Genre]; !ok {
			genres = append(genres, b.Genre)
		}
		byGenre[b.Genre] = append(byGenre[b.Genre], b)
	}

	picked := make([]models.Book, 0, target)
	chosen := make(map[int64]bool)
	for _, g := range genres {
		for _, b := range catalog.RandomSample(byGenre[g], perGenreSample, s.rng) {
			picked = append(picked, b)
			chosen[b.ID] = true
		}
	}

	if len(picked) < target {
		var rest []models.Book
		for _, b := range pool {
			if !chosen[b.ID] {
				rest = append(rest, b)
			}
		}
		picked = append(picked, catalog.RandomSample(rest, target-len(picked), s.rng)...)
	}

	return catalog.RandomSample(picked, target, s.rng)
}

func (s *Session) candidateCopy() []models.Book {
	if s.candidates == nil {
		return nil
	}
	out := make([]models.Book, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// complete moves a playing session to completed and returns the elapsed time
func (s *Session) complete() time.Duration {
	s.completedAt = s.clock.Now()
	s.state = StateCompleted
	s.generation++
	s.disarmDeadline()
	return s.completedAt.Sub(s.startedAt)
}

func (s *Session) armDeadline(d time.Duration) {
	s.disarmDeadline()
	gen := s.generation
	s.stopDeadline = s.clock.AfterFunc(d, func() {
		s.deadlineExpired(gen)
	})
}

func (s *Session) disarmDeadline() {
	if s.stopDeadline != nil {
		s.stopDeadline()
		s.stopDeadline = nil
	}
}

// deadlineExpired emits TimedOut when the generation that armed the deadline
// is still playing. The session itself is left as it is.
func (s *Session) deadlineExpired(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.state != StatePlaying {
		s.mu.Unlock()
		return
	}

	ev := TimedOut{SessionID: s.id, Mode: s.mode}
	if s.mode == ModeGrid {
		ev.SelectedCount = len(s.selected)
		ev.MinRequired = s.cfg.Grid.MinSelections
	}
	s.stopDeadline = nil
	s.mu.Unlock()

	s.dispatcher.Publish(ev)
}
