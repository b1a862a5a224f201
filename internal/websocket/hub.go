// Package websocket pushes live voice-session updates to UI clients and
// accepts their start/stop control messages.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/internal/voice"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients only send small
	// control messages.
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// VoiceController starts and stops the live voice session on behalf of UI
// clients. *voice.Manager satisfies it.
type VoiceController interface {
	Start(ctx context.Context) (*voice.Session, error)
	Stop() error
	Active() bool
}

// Hub maintains the set of active clients and broadcasts voice session
// updates to them.
type Hub struct {
	// Registered clients keyed by connection ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Serialized update payloads fanned out to every client.
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	voice  VoiceController
	logger *zap.Logger

	activityMu   sync.Mutex
	lastActivity time.Time
}

// NewHub creates a new WebSocket hub
func NewHub(voice VoiceController, logger *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan []byte, 64),
		voice:        voice,
		logger:       logger,
		lastActivity: time.Now(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("clientID", client.id),
				zap.String("userID", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case payload := <-h.broadcast:
			h.mu.RLock()
			for id, client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow client; skip this update rather than block
					// the fanout.
					h.logger.Warn("Dropping update for slow client",
						zap.String("clientID", id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastUpdate pushes one session update to every connected client. It
// never blocks the caller.
func (h *Hub) BroadcastUpdate(u voice.Update) {
	h.activityMu.Lock()
	h.lastActivity = time.Now()
	h.activityMu.Unlock()

	payload, err := json.Marshal(NewUpdateMessage(u))
	if err != nil {
		h.logger.Error("Failed to marshal update", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping update",
			zap.String("kind", u.Kind))
	}
}

// LastActivity returns the time of the most recent session update.
func (h *Hub) LastActivity() time.Time {
	h.activityMu.Lock()
	defer h.activityMu.Unlock()
	return h.lastActivity
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Connection ID, unique per socket.
	id string

	// Authenticated user this connection belongs to.
	userID string

	logger *zap.Logger
}

// HandleWebSocketWithAuth handles websocket requests with a
// pre-authenticated user ID.
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		id:     uuid.NewString(),
		userID: userID,
		logger: logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps control messages from the websocket connection to the
// voice controller.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
		c.processMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage handles one inbound control message
func (c *Client) processMessage(message []byte) {
	msg, err := ParseControlMessage(message)
	if err != nil {
		c.logger.Warn("Rejected client message", zap.Error(err))
		c.sendError(err.Error())
		return
	}

	switch msg.Type {
	case MessageTypeVoiceStart:
		// Dialing the live channel takes a moment; do not stall the read
		// pump while it connects.
		go func() {
			if _, err := c.hub.voice.Start(context.Background()); err != nil {
				c.logger.Warn("Voice session start failed",
					zap.String("userID", c.userID),
					zap.Error(err))
				c.sendError(err.Error())
			}
		}()
	case MessageTypeVoiceStop:
		if err := c.hub.voice.Stop(); err != nil {
			c.sendError(err.Error())
		}
	}
}

// sendError delivers an error message to this client only
func (c *Client) sendError(message string) {
	payload, err := json.Marshal(NewErrorMessage(message))
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
