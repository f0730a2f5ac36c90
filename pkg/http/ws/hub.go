package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub manages WebSocket connections and broadcasts messages to match participants.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // player_id -> connection
	matches     map[uuid.UUID][]uuid.UUID // match_id -> []player_id
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		matches:     make(map[uuid.UUID][]uuid.UUID),
		logger:      logger,
	}
}

// RegisterConnection adds a connection for a player, replacing any stale one.
func (h *Hub) RegisterConnection(playerID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[playerID]; exists && old != conn {
		old.Close()
	}

	h.connections[playerID] = conn
	h.logger.Info().Str("player_id", playerID.String()).Msg("connection registered")
}

// UnregisterConnection removes a player's connection, but only if it is still
// the given one. A reconnect replaces the map entry first, so the dying pump
// of the old socket must not evict the new connection. Reports whether the
// player is now offline.
func (h *Hub) UnregisterConnection(playerID uuid.UUID, conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, exists := h.connections[playerID]
	if !exists || current != conn {
		return false
	}

	current.Close()
	delete(h.connections, playerID)
	h.logger.Info().Str("player_id", playerID.String()).Msg("connection unregistered")
	return true
}

// JoinMatch associates a player with a match for targeted broadcasts.
func (h *Hub) JoinMatch(matchID, playerID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.matches[matchID]
	for _, id := range members {
		if id == playerID {
			return
		}
	}
	h.matches[matchID] = append(members, playerID)
}

// LeaveMatch removes a player from a match.
func (h *Hub) LeaveMatch(matchID, playerID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.matches[matchID]
	for i, id := range members {
		if id == playerID {
			h.matches[matchID] = append(members[:i], members[i+1:]...)
			break
		}
	}
}

// CloseMatch drops the membership list for a finished match.
func (h *Hub) CloseMatch(matchID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.matches, matchID)
}

// BroadcastToMatch sends a message to every participant of a match. Offline
// participants (bots, disconnected players) are skipped without error.
func (h *Hub) BroadcastToMatch(matchID uuid.UUID, msg Message) error {
	h.mu.RLock()
	members := append([]uuid.UUID(nil), h.matches[matchID]...)
	h.mu.RUnlock()

	var firstErr error
	for _, playerID := range members {
		err := h.SendToPlayer(playerID, msg)
		if err != nil && err != ErrConnectionNotFound && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SendToPlayer delivers a message to a specific player.
func (h *Hub) SendToPlayer(playerID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[playerID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}

	return conn.Send(msg)
}

// GetConnection retrieves a connection for a player.
func (h *Hub) GetConnection(playerID uuid.UUID) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, exists := h.connections[playerID]
	return conn, exists
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends messages from the send queue.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump receives messages and calls the handler until the socket dies.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	// Read deadline of 60 seconds, extended on pong.
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		// Any inbound traffic counts as liveness, so reading also
		// extends the deadline.
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Player connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
