package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"bookmatch/internal/models"
)

type fakeSource struct {
	books []models.Book
}

func (f fakeSource) ByAge(age, tolerance int) []models.Book {
	var out []models.Book
	for _, b := range f.books {
		if b.FitsAge(age, tolerance) {
			out = append(out, b)
		}
	}
	return out
}

func makeBooks(n int, genres ...string) []models.Book {
	books := make([]models.Book, n)
	for i := range books {
		books[i] = models.Book{
			ID:         int64(i + 1),
			Title:      fmt.Sprintf("Book %d", i+1),
			Author:     "Author",
			Genre:      genres[i%len(genres)],
			AgeRange:   [2]int{7, 10},
			Complexity: i%5 + 1,
			Themes:     []string{"friendship"},
		}
	}
	return books
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
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
		pending := !t.stopped && !t.fired
		t.stopped = true
		return pending
	}
}

// Advance moves time forward and fires due timers that were not stopped
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind()
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// listenAll registers rec for every event kind on s
func listenAll(s *Session, rec *recorder) {
	for _, k := range []EventKind{EventStarted, EventSelectionChanged, EventComparisonProgressed, EventCompleted, EventCancelled, EventTimedOut} {
		s.On(k, rec.handle)
	}
}

func newTestSession(books []models.Book, clock *fakeClock) *Session {
	n := 0
	return NewSession(fakeSource{books: books},
		WithRand(rand.New(rand.NewPCG(42, 7))),
		WithClock(clock),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("session-%d", n)
		}),
	)
}
