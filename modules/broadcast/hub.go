package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"

	"github.com/example/browser-chat/modules/presence"
)

const (
	// DefaultSendBuffer is the per-client outbound queue length.
	DefaultSendBuffer = 256

	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// Conn is the socket side of a client.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one connected WebSocket session as seen by the hub.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	done chan struct{}
}

// NewClient creates a client for conn with a send buffer of bufferSize frames.
func NewClient(id string, conn Conn, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

// WritePump writes queued frames to the socket and pings it periodically.
// It returns, closing the socket, once the hub closes the send queue or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// Done is closed when the write pump has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub maps connection ids to clients and delivers emissions to them.
// It holds no room membership; recipients arrive resolved.
type Hub struct {
	clients    map[string]*Client // clientID -> Client
	register   chan *Client
	unregister chan *Client
	deliver    chan presence.Emission
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan presence.Emission),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down", "clients", h.ClientCount())
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case em := <-h.deliver:
			h.handleDeliver(em)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes every client's send queue.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[client.ID]; ok {
		close(old.send)
	}
	h.clients[client.ID] = client
	h.logger.Debug("Client registered", "clientID", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
		close(client.send)
		h.logger.Debug("Client unregistered", "clientID", client.ID)
	}
}

func (h *Hub) handleDeliver(em presence.Emission) {
	data, err := json.Marshal(outbound{Event: em.Event, Data: em.Payload})
	if err != nil {
		h.logger.Error("Failed to marshal emission", "event", em.Event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range em.Recipients {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop it rather than stall everyone else.
			delete(h.clients, id)
			close(client.send)
			h.logger.Warn("Dropped slow client", "clientID", id, "event", em.Event)
		}
	}
}

// outbound is the wire envelope for server-to-client frames.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Register adds a client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Deliver queues an emission for its recipients. It implements presence.Dispatcher.
func (h *Hub) Deliver(em presence.Emission) {
	select {
	case h.deliver <- em:
	case <-h.done:
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HasClient reports whether a client with id is registered.
func (h *Hub) HasClient(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}
