package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherReplacesHandler(t *testing.T) {
	d := NewDispatcher()
	var first, second int

	d.On(EventCancelled, func(Event) { first++ })
	d.On(EventCancelled, func(Event) { second++ })
	d.Publish(Cancelled{SessionID: "s"})

	assert.Zero(t, first, "replaced handler must not run")
	assert.Equal(t, 1, second)

	d.On(EventCancelled, nil)
	d.Publish(Cancelled{SessionID: "s"})
	assert.Equal(t, 1, second)
}

func TestDispatcherRoutesByKind(t *testing.T) {
	d := NewDispatcher()
	got := make(map[EventKind]string)
	for _, k := range []EventKind{EventStarted, EventTimedOut} {
		d.On(k, func(e Event) { got[e.Kind()] = e.Session() })
	}

	d.Publish(Started{SessionID: "a"})
	d.Publish(TimedOut{SessionID: "b"})
	d.Publish(Completed{SessionID: "c"})

	assert.Equal(t, map[EventKind]string{EventStarted: "a", EventTimedOut: "b"}, got)
}

func TestEventsAreOrdered(t *testing.T) {
	s, books, rec := startGrid(t, newFakeClock())
	for _, b := range books[:3] {
		_, err := s.ToggleSelection(b.ID)
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Finish(); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, []EventKind{
		EventStarted,
		EventSelectionChanged,
		EventSelectionChanged,
		EventSelectionChanged,
		EventCompleted,
	}, rec.kinds())
}
