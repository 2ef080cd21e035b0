package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clsdenji/Spark/internal/domain"
	"github.com/clsdenji/Spark/internal/list"
	"github.com/clsdenji/Spark/internal/logger"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// EventHistory and EventSaved name the two list streams in the
	// envelope sent to clients.
	EventHistory = "history"
	EventSaved   = "saved"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — the HTTP layer applies CORS before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients whenever a list changes.
type Message struct {
	Event   string         `json:"event"`
	Entries []domain.Place `json:"entries"`
}

// Hub pushes list changes to WebSocket clients. It subscribes to both
// lists; the subscriber callbacks only mark the list dirty, so a
// mutation never waits on a slow client. The run loop re-reads the
// latest snapshot for each dirty list, which coalesces bursts the same
// way the persistence debounce does.
type Hub struct {
	history *list.List
	saved   *list.List
	logger  logger.Logger
	sendBuf int

	historyDirty chan struct{}
	savedDirty   chan struct{}
	unsubs       []func()

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub over the two lists. sendBuf is the per-client
// outgoing message buffer depth; clients that fall further behind than
// that are disconnected.
func New(history, saved *list.List, log logger.Logger, sendBuf int) *Hub {
	if sendBuf < 1 {
		sendBuf = 16
	}
	h := &Hub{
		history:      history,
		saved:        saved,
		logger:       log,
		sendBuf:      sendBuf,
		historyDirty: make(chan struct{}, 1),
		savedDirty:   make(chan struct{}, 1),
		clients:      make(map[*client]struct{}),
	}

	h.unsubs = append(h.unsubs,
		history.Subscribe(func([]domain.Place) { mark(h.historyDirty) }),
		saved.Subscribe(func([]domain.Place) { mark(h.savedDirty) }),
	)

	return h
}

// mark raises a dirty flag without blocking. A flag already raised is
// enough: the run loop reads the latest snapshot when it gets there.
func mark(dirty chan struct{}) {
	select {
	case dirty <- struct{}{}:
	default:
	}
}

// Run drains the dirty flags and broadcasts snapshots until ctx is
// cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, unsub := range h.unsubs {
			unsub()
		}
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.historyDirty:
			h.broadcast(EventHistory, h.history.Snapshot())
		case <-h.savedDirty:
			h.broadcast(EventSaved, h.saved.Snapshot())
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends both current snapshots immediately on connect, then receives
// broadcasts from the run loop. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		h.logger.Debug("websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.sendBuf),
	}
	h.register(c)
	defer h.unregister(c)

	h.logger.Debug("websocket client connected",
		logger.String("remote_ip", r.RemoteAddr),
		logger.Int("clients", h.Count()))

	// Seed the client so the UI has data right away.
	h.seed(c, EventHistory, h.history.Snapshot())
	h.seed(c, EventSaved, h.saved.Snapshot())

	go c.writePump()
	c.readPump() // blocks until connection closes

	h.logger.Debug("websocket client disconnected",
		logger.String("remote_ip", r.RemoteAddr))
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) seed(c *client, event string, entries []domain.Place) {
	data, err := encode(event, entries)
	if err != nil {
		h.logger.Warn("failed to encode websocket message", logger.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) broadcast(event string, entries []domain.Place) {
	data, err := encode(event, entries)
	if err != nil {
		h.logger.Warn("failed to encode websocket message", logger.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			// Client's outgoing buffer is full — disconnect it.
			h.logger.Warn("dropping slow websocket client",
				logger.String("event", event))
			h.unregister(c)
		}
	}
}

func encode(event string, entries []domain.Place) ([]byte, error) {
	if entries == nil {
		entries = []domain.Place{}
	}
	return json.Marshal(Message{Event: event, Entries: entries})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer func() { _ = c.conn.Close() }()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
