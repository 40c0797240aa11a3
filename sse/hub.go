package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/deepresearch/logger"
)

const clientBuffer = 256

// Client is one connected watcher.
type Client struct {
	id       string
	metadata map[string]string
	events   chan Event

	mu     sync.Mutex
	closed bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetadata adds a metadata key-value pair to the client.
func WithMetadata(key, value string) ClientOption {
	return func(c *Client) { c.metadata[key] = value }
}

// WithReplay queues e ahead of any broadcast. Research frames are
// cumulative, so replaying the latest one fully catches a late watcher up.
func WithReplay(e Event) ClientOption {
	return func(c *Client) { c.events <- e }
}

// NewClient creates a client. Its id is matched against broadcast
// patterns.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:       id,
		metadata: make(map[string]string),
		events:   make(chan Event, clientBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string                  { return c.id }
func (c *Client) Metadata() map[string]string { return c.metadata }

// Events is closed when the client is unregistered or the hub stops.
func (c *Client) Events() <-chan Event { return c.events }

// Send queues e without blocking. It returns false when the client is too
// slow or already closed and the event was dropped.
func (c *Client) Send(e Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- e:
		return true
	default:
		log().Warn("client channel full, dropping event", logger.Fields("client_id", c.id, "event", e.Name))
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

// Broadcaster sends events to clients matching a glob pattern.
type Broadcaster interface {
	Broadcast(pattern string, e Event)
}

type message struct {
	pattern string
	event   Event
}

// Hub tracks clients and relays broadcasts to them from a single loop.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

var _ Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, clientBuffer),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns after Stop, closing every client.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[c.id]; ok {
				old.close()
			}
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			log().Debug("client registered", logger.Fields("client_id", c.id, "total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
			}
			n := len(h.clients)
			h.mu.Unlock()
			c.close()
			log().Debug("client unregistered", logger.Fields("client_id", c.id, "total_clients", n))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop makes Run return. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c. After Stop it closes c instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

// Unregister removes and closes c.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// Broadcast queues e for every client whose id matches pattern. It never
// blocks once the hub has stopped.
func (h *Hub) Broadcast(pattern string, e Event) {
	select {
	case h.broadcast <- message{pattern: pattern, event: e}:
	case <-h.done:
	}
}

func (h *Hub) deliver(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matched := 0
	for id, c := range h.clients {
		ok, err := filepath.Match(msg.pattern, id)
		if err != nil {
			log().Error("pattern match error", logger.Fields("pattern", msg.pattern, logger.FieldError, err.Error()))
			return
		}
		if ok && c.Send(msg.event) {
			matched++
		}
	}
	log().Debug("broadcast", logger.Fields("pattern", msg.pattern, "event", msg.event.Name, "match_count", matched))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the registered client ids.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func log() *logger.Logger { return logger.Get("sse") }
