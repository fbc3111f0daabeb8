package game

import (
	"sync"

	"bookmatch/internal/models"
)

// EventKind names a notification. Names are stable.
type EventKind string

const (
	EventStarted              EventKind = "started"
	EventSelectionChanged     EventKind = "selectionChanged"
	EventComparisonProgressed EventKind = "comparisonProgressed"
	EventCompleted            EventKind = "completed"
	EventCancelled            EventKind = "cancelled"
	EventTimedOut             EventKind = "timedOut"
)

// Event is a session notification
type Event interface {
	Kind() EventKind
	Session() string
}

// Started is emitted once a session enters the playing state
type Started struct {
	SessionID  string            `json:"sessionId"`
	ChildID    int64             `json:"childId"`
	Mode       Mode              `json:"mode"`
	Books      []models.Book     `json:"books"`
	Grid       *GridConfig       `json:"grid,omitempty"`
	Comparison *ComparisonConfig `json:"comparison,omitempty"`
	Pair       *Pair             `json:"pair,omitempty"`
	Progress   *Progress         `json:"progress,omitempty"`
}

// SelectionChanged is emitted after every accepted grid toggle
type SelectionChanged struct {
	SessionID string `json:"sessionId"`
	BookID    int64  `json:"bookId"`
	Selected  bool   `json:"selected"`
	SelectionStatus
}

// ComparisonProgressed is emitted after a comparison that did not finish the session
type ComparisonProgressed struct {
	SessionID string   `json:"sessionId"`
	Winner    int64    `json:"winner"`
	Loser     int64    `json:"loser"`
	Pair      *Pair    `json:"pair"`
	Progress  Progress `json:"progress"`
}

// Completed carries the finished session's result
type Completed struct {
	SessionID string `json:"sessionId"`
	Result    Result `json:"result"`
}

// Cancelled is emitted when a playing session is abandoned
type Cancelled struct {
	SessionID string `json:"sessionId"`
	ChildID   int64  `json:"childId"`
}

// TimedOut is emitted when the mode deadline passes while the session is still playing.
// MinRequired is zero for comparison sessions.
type TimedOut struct {
	SessionID     string `json:"sessionId"`
	Mode          Mode   `json:"mode"`
	SelectedCount int    `json:"selectedCount"`
	MinRequired   int    `json:"minRequired"`
}

func (e Started) Kind() EventKind { return EventStarted }
func (e SelectionChanged) Kind() EventKind { return EventSelectionChanged }
func (e ComparisonProgressed) Kind() EventKind { return EventComparisonProgressed }
func (e Completed) Kind() EventKind { return EventCompleted }
func (e Cancelled) Kind() EventKind { return EventCancelled }
func (e TimedOut) Kind() EventKind { return EventTimedOut }

func (e Started) Session() string { return e.SessionID }
func (e SelectionChanged) Session() string { return e.SessionID }
func (e ComparisonProgressed) Session() string { return e.SessionID }
func (e Completed) Session() string { return e.SessionID }
func (e Cancelled) Session() string { return e.SessionID }
func (e TimedOut) Session() string { return e.SessionID }

// Handler receives notifications of one kind
type Handler func(Event)

// Dispatcher routes events to at most one handler per kind
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventKind]Handler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventKind]Handler)}
}

// On registers h for kind, replacing any previous handler. A nil h removes it.
func (d *Dispatcher) On(kind EventKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == nil {
		delete(d.handlers, kind)
		return
	}
	d.handlers[kind] = h
}

// Publish delivers e synchronously to the handler for its kind, if any
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	h := d.handlers[e.Kind()]
	d.mu.RUnlock()
	if h != nil {
		h(e)
	}
}
