// Package events fans game notifications out to server-sent-event clients.
package events

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bookmatch/internal/logging"
	"bookmatch/internal/metrics"
)

// ErrClosed is returned by Subscribe after Close
var ErrClosed = errors.New("event broker is closed")

// Event is one message on the stream
type Event struct {
	Type      string    `json:"type"`
	ChildID   int64     `json:"childId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected stream. ChildID 0 receives every child's events.
type Client struct {
	ID          string
	ChildID     int64
	ConnectedAt time.Time
	Events      chan Event
	done        chan struct{}
}

// Done is closed when the broker drops the client
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Broker keeps the connected clients
type Broker struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	closed    bool
	buffer    int
	heartbeat time.Duration
	logger    zerolog.Logger
}

// NewBroker creates a broker with per-client buffers of 64 events
func NewBroker() *Broker {
	return &Broker{
		clients:   make(map[string]*Client),
		buffer:    64,
		heartbeat: 30 * time.Second,
		logger:    logging.WithComponent("sse"),
	}
}

// Subscribe registers a client for childID's events
func (b *Broker) Subscribe(childID int64) (*Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	c := &Client{
		ID:          uuid.NewString(),
		ChildID:     childID,
		ConnectedAt: time.Now(),
		Events:      make(chan Event, b.buffer),
		done:        make(chan struct{}),
	}
	b.clients[c.ID] = c
	metrics.StreamClients.Inc()
	return c, nil
}

// Unsubscribe removes a client. Unknown IDs are ignored.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(c.done)
		metrics.StreamClients.Dec()
	}
}

// Publish delivers e to every matching client without blocking. Slow clients lose events.
func (b *Broker) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, c := range b.clients {
		if c.ChildID != 0 && e.ChildID != 0 && c.ChildID != e.ChildID {
			continue
		}
		select {
		case c.Events <- e:
		default:
			b.logger.Warn().Str("client_id", c.ID).Str("event_type", e.Type).Msg("Dropped event for slow client")
		}
	}
}

// ClientCount returns the number of connected clients
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client and rejects new subscriptions
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, c := range b.clients {
		close(c.done)
		delete(b.clients, id)
		metrics.StreamClients.Dec()
	}
}

// ServeStream streams childID's events to w until the request ends or the broker closes
func (b *Broker) ServeStream(w http.ResponseWriter, r *http.Request, childID int64) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)

	client, err := b.Subscribe(childID)
	if err != nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer b.Unsubscribe(client.ID)

	log := b.logger.With().Str("client_id", client.ID).Int64("child_id", childID).Logger()

	hello := Event{Type: "connected", ChildID: childID, Data: map[string]string{"clientId": client.ID}, Timestamp: time.Now().UTC()}
	if err := writeEvent(w, rc, hello); err != nil {
		log.Warn().Err(err).Msg("Failed to send connection event")
		return
	}

	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case e := <-client.Events:
			if err := writeEvent(w, rc, e); err != nil {
				log.Debug().Err(err).Msg("Client disconnected during send")
				return
			}
		case <-ticker.C:
			if err := writeEvent(w, rc, Event{Type: "heartbeat", Timestamp: time.Now().UTC()}); err != nil {
				return
			}
		case <-client.Done():
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
		return err
	}
	return rc.Flush()
}
