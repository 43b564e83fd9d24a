package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// allowOrigin accepts non-browser clients, same-origin pages and localhost.
func allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       allowOrigin,
	EnableCompression: true,
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub streams telemetry events as JSON text frames to every connected
// websocket client. Slow clients drop messages rather than block the sim.
type Hub struct {
	log *log.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	total   int

	// queued broadcasts not yet handed to client send queues
	pending atomic.Int64

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub returns a hub; call Run before serving connections.
func NewHub(l *log.Logger) *Hub {
	if l == nil {
		l = log.Default()
	}
	return &Hub{
		log:        l.WithPrefix("hub"),
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run services registrations and broadcasts until ctx is done, then closes
// every client. Run must only be called once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client connected", "remote", c.conn.RemoteAddr(), "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Debug("client disconnected", "remote", c.conn.RemoteAddr())

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warn("send buffer full, dropping event", "remote", c.conn.RemoteAddr())
				}
			}
			h.mu.RUnlock()
			h.pending.Add(-1)
		}
	}
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RecordFound broadcasts d as a FoundEvent.
func (h *Hub) RecordFound(d drone.Detection) {
	h.mu.Lock()
	h.total++
	total := h.total
	h.mu.Unlock()
	h.Publish(newFoundEvent(d, total))
}

// Publish marshals v and queues it for every client. It never blocks.
func (h *Hub) Publish(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal event", "err", err)
		return
	}
	h.pending.Add(1)
	select {
	case h.broadcast <- data:
	default:
		h.pending.Add(-1)
		h.log.Warn("broadcast queue full, dropping event")
	}
}

// Flush waits until every queued event has been fanned out and every
// client has taken its backlog, or until timeout. It reports whether the
// hub drained. Run must be active for Flush to make progress.
func (h *Hub) Flush(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if h.drained() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *Hub) drained() bool {
	if h.pending.Load() > 0 {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if len(c.send) > 0 {
			return false
		}
	}
	return true
}

// ServeHTTP upgrades the request to a websocket subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "err", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains control frames; subscribers do not send anything else.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read", "err", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
