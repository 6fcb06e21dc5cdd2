// Package livereload pushes reload notifications to browsers over a
// WebSocket after every pass that rewrote a document.
package livereload

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/htmlinject/internal/inject"
	"github.com/conneroisu/htmlinject/internal/logging"
)

// Path is where the hub is mounted by the dev server.
const Path = "/__livereload"

// Message is sent to every connected browser.
type Message struct {
	Type      string    `json:"type"`
	Targets   []string  `json:"targets,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected browsers and fans messages out to them.
//
// A single goroutine owns registration and broadcasting; connections talk to
// it over channels.
type Hub struct {
	clients      map[*client]struct{}
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	originPatterns []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewHub starts a hub. originPatterns restricts cross-origin upgrades as in
// websocket.AcceptOptions; requests from the serving host are always
// accepted.
func NewHub(logger logging.Logger, originPatterns ...string) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:        make(map[*client]struct{}),
		broadcast:      make(chan []byte, 16),
		register:       make(chan *client, 16),
		unregister:     make(chan *client, 16),
		originPatterns: originPatterns,
		logger:         logger.WithComponent("livereload"),
		ctx:            ctx,
		cancel:         cancel,
	}
	go h.run()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clientsMutex.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "Browser connected", "clients", n)

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			h.clientsMutex.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow browser; it reconnects and reloads on its own.
					go func(c *client) {
						select {
						case h.unregister <- c:
						case <-h.ctx.Done():
						}
					}(c)
				}
			}
			h.clientsMutex.RUnlock()

		case <-h.ctx.Done():
			h.clientsMutex.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientsMutex.Unlock()
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.clientsMutex.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.clientsMutex.Unlock()

	if ok {
		h.logger.Debug(h.ctx, "Browser disconnected", "clients", n)
	}
}

// ServeHTTP upgrades the request and keeps the connection until the browser
// leaves or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 8)}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// Browsers never send anything; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(h.ctx)
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast queues msg for every connected browser. It drops the message
// when the hub is shut down.
func (h *Hub) Broadcast(msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	}
	return nil
}

// PassFinished sends a reload when any target's document was written.
func (h *Hub) PassFinished(results []inject.Result) {
	var targets []string
	for _, r := range results {
		if r.Modified {
			targets = append(targets, r.Target)
		}
	}
	if len(targets) == 0 {
		return
	}
	if err := h.Broadcast(Message{Type: "reload", Targets: targets}); err != nil {
		h.logger.Error(h.ctx, err, "Cannot queue reload")
	}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every browser.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(h.cancel)
}
