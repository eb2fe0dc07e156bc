package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/example/browser-chat/modules/broadcast"
	"github.com/example/browser-chat/modules/presence"
)

const (
	// DefaultMaxMessageSize caps inbound frame size in bytes.
	DefaultMaxMessageSize = 64 * 1024

	pongWait          = 60 * time.Second
	disconnectTimeout = 5 * time.Second
)

// Submitter accepts inbound events for the presence engine.
type Submitter interface {
	Submit(ctx context.Context, in presence.Inbound) error
}

// Socket is the server side of one WebSocket connection.
type Socket interface {
	broadcast.Conn
	ReadMessage() (messageType int, p []byte, err error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// Handlers serves WebSocket sessions: it reads envelopes from the socket and
// submits them to the engine, while the hub writes the engine's emissions back.
type Handlers struct {
	engine         Submitter
	hub            *broadcast.Hub
	sendBuffer     int
	maxMessageSize int64
	logger         types.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(engine Submitter, hub *broadcast.Hub, sendBuffer int, maxMessageSize int64, logger types.Logger) *Handlers {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Handlers{
		engine:         engine,
		hub:            hub,
		sendBuffer:     sendBuffer,
		maxMessageSize: maxMessageSize,
		logger:         logger,
	}
}

// HandleWebSocket handles WebSocket connections. The identity hint comes from
// the username query parameter, falling back to the username cookie.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	hint := c.Query("username")
	if hint == "" {
		hint = c.Cookies("username")
	}
	h.Serve(c, hint)
}

// Serve runs one session on socket until the peer goes away.
func (h *Handlers) Serve(socket Socket, hint string) {
	connID := uuid.New().String()
	client := broadcast.NewClient(connID, socket, h.sendBuffer)
	if !h.hub.Register(client) {
		_ = socket.Close()
		return
	}
	go client.WritePump()

	defer func() {
		h.hub.Unregister(client)
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := h.engine.Submit(ctx, presence.Inbound{ConnID: connID, Event: presence.EventDisconnect}); err != nil {
			h.logger.Warn("Failed to submit disconnect", "connID", connID, "error", err)
		}
		<-client.Done()
		h.logger.Info("WebSocket disconnected", "connID", connID)
	}()

	ctx := context.Background()
	if err := h.engine.Submit(ctx, presence.Inbound{ConnID: connID, Event: presence.EventConnect, Hint: hint}); err != nil {
		h.logger.Error("Failed to submit connect", "connID", connID, "error", err)
		return
	}
	h.logger.Info("WebSocket connected", "connID", connID)

	socket.SetReadLimit(h.maxMessageSize)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msgBytes, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "connID", connID, "error", err)
			}
			return
		}
		_ = socket.SetReadDeadline(time.Now().Add(pongWait))

		var env presence.Envelope
		if err := json.Unmarshal(msgBytes, &env); err != nil || env.Event == "" {
			h.sendError(connID, "Invalid message format")
			continue
		}
		if env.Event == presence.EventConnect || env.Event == presence.EventDisconnect {
			h.sendError(connID, "Unknown event: "+env.Event)
			continue
		}

		err = h.engine.Submit(ctx, presence.Inbound{ConnID: connID, Event: env.Event, Data: env.Data})
		switch {
		case err == nil:
		case errors.Is(err, presence.ErrQueueFull):
			h.logger.Debug("Refresh shed", "connID", connID, "event", env.Event)
		case errors.Is(err, presence.ErrEngineStopped):
			return
		default:
			h.logger.Error("Failed to submit event", "connID", connID, "event", env.Event, "error", err)
		}
	}
}

// sendError answers a frame the engine never saw.
func (h *Handlers) sendError(connID, msg string) {
	h.hub.Deliver(presence.Emission{
		Recipients: []string{connID},
		Event:      presence.EventError,
		Payload:    presence.ErrorPayload{Msg: msg},
	})
}
