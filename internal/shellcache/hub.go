package shellcache

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 8
)

// Hub is the message channel between the worker and open pages.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*hubClient
	handler func(ctx context.Context, msg string) error
}

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan string
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*hubClient),
	}
}

var _ Broadcaster = (*Hub)(nil)

// OnMessage sets the handler for text messages posted by pages.
func (h *Hub) OnMessage(fn func(ctx context.Context, msg string) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = fn
}

// ServeHTTP upgrades the request and serves the page until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade worker connection", "error", err)
		return
	}

	c := &hubClient{id: uuid.NewString(), conn: conn, send: make(chan string, sendBuffer)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Debug("Page connected", "client", c.id)

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(r.Context(), c)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(done)
	conn.Close()
	log.Debug("Page disconnected", "client", c.id)
}

func (h *Hub) readLoop(ctx context.Context, c *hubClient) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.mu.Lock()
		handler := h.handler
		h.mu.Unlock()
		if handler == nil {
			continue
		}
		if err := handler(ctx, string(data)); err != nil {
			log.Error("Failed to handle page message", "client", c.id, "error", err)
		}
	}
}

func (h *Hub) writeLoop(c *hubClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				log.Warn("Failed to message page", "client", c.id, "error", err)
				return
			}
		}
	}
}

// Broadcast queues msg for every connected page. Pages whose buffer is full
// miss the message.
func (h *Hub) Broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Warn("Dropping message for slow page", "client", id, "message", msg)
		}
	}
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
