package service

import (
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookmatch/internal/catalog"
	"bookmatch/internal/database"
	"bookmatch/internal/events"
	"bookmatch/internal/game"
	"bookmatch/internal/models"
	"bookmatch/internal/recommend"
	"bookmatch/internal/repository"
)

type testEnv struct {
	db       *database.DB
	catalog  *catalog.Catalog
	children *repository.ChildRepository
	readings *repository.ReadingRepository
	games    *repository.GameRepository
	saved    *repository.SavedSessionRepository
	broker   *events.Broker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	cat, err := catalog.Default()
	require.NoError(t, err)

	broker := events.NewBroker()
	t.Cleanup(broker.Close)

	return &testEnv{
		db:       db,
		catalog:  cat,
		children: repository.NewChildRepository(db),
		readings: repository.NewReadingRepository(db),
		games:    repository.NewGameRepository(db),
		saved:    repository.NewSavedSessionRepository(db),
		broker:   broker,
	}
}

func (e *testEnv) child(t *testing.T, name string, age int) *models.Child {
	t.Helper()
	c, err := e.children.CreateChild(name, age)
	require.NoError(t, err)
	return c
}

func (e *testEnv) gameService(clock game.Clock) *GameService {
	svc := NewGameService(e.catalog, e.children, e.games, e.broker, game.DefaultConfig(), rand.New(rand.NewPCG(1, 2)))
	svc.clock = clock
	return svc
}

func (e *testEnv) recommendationService() *RecommendationService {
	scorer := recommend.NewScorer(recommend.DefaultConfig(), rand.New(rand.NewPCG(3, 4)))
	return NewRecommendationService(e.children, e.readings, e.catalog, scorer, 1)
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

// fakeClock fires AfterFunc callbacks only when advanced
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		pending := !t.stopped
		t.stopped = true
		return pending
	}
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// drain returns the event types buffered for a client
func drain(c *events.Client) []string {
	var types []string
	for {
		select {
		case e := <-c.Events:
			types = append(types, e.Type)
		default:
			return types
		}
	}
}
