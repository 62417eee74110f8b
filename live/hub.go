package live

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// RoomName maps a game id to its hub room.
func RoomName(gameID int) string {
	return "game_" + strconv.Itoa(gameID)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Role separates the single authoritative writer of a game from its
// read-only viewers. Messages from viewers never reach the session.
type Role string

const (
	RoleWriter Role = "writer"
	RoleViewer Role = "viewer"
)

// Client is one websocket connection attached to a game room.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	Room string
	Role Role

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string, role Role) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
		Role: role,
	}
}

// WriterFunc handles envelopes read from an authoritative client.
type WriterFunc func(c *Client, env *Envelope)

// Hub fans broadcast messages out to per-game rooms and tracks
// presence. It is constructed explicitly and injected wherever the
// live channel is needed; there is no package-level instance.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	onWriter WriterFunc
	logger   *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
		rooms:      make(map[string]map[*Client]bool),
	}
}

// SetWriterFunc installs the handler invoked for every envelope an
// authoritative client sends. Must be called before Run.
func (h *Hub) SetWriterFunc(fn WriterFunc) {
	h.onWriter = fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			count := len(h.rooms[client.Room])
			h.mu.Unlock()
			h.logger.Info("client joined room",
				slog.String("room", client.Room),
				slog.String("client_id", client.ID),
				slog.String("role", string(client.Role)),
				slog.Int("clients", count))
			h.broadcastPresence(client.Room)

		case client := <-h.Unregister:
			h.mu.Lock()
			removed := false
			if clients, ok := h.rooms[client.Room]; ok {
				if _, okClient := clients[client]; okClient {
					client.markClosed()
					delete(clients, client)
					removed = true
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
			if removed {
				h.logger.Info("client left room",
					slog.String("room", client.Room),
					slog.String("client_id", client.ID))
				h.broadcastPresence(client.Room)
			}
		}
	}
}

// BroadcastToRoom sends an envelope to every client in the room.
func (h *Hub) BroadcastToRoom(room string, env *Envelope) {
	data, err := env.Encode()
	if err != nil {
		h.logger.Error("encode broadcast", slog.String("room", room), slog.Any("error", err))
		return
	}
	h.sendToRoom(room, data)
}

func (h *Hub) sendToRoom(room string, data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	// Send without holding the room lock; a full or closed client
	// channel is skipped rather than blocking the hub.
	for _, c := range clients {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			continue
		}
		select {
		case c.Send <- data:
		default:
			h.logger.Warn("client send buffer full, dropping message",
				slog.String("room", room), slog.String("client_id", c.ID))
		}
		c.mu.Unlock()
	}
}

// PresenceCount returns the number of distinct connections in a room.
func (h *Hub) PresenceCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) broadcastPresence(room string) {
	env := &Envelope{
		Kind:     KindPresence,
		V:        SchemaVersion,
		Presence: &Presence{Viewers: h.PresenceCount(room)},
	}
	h.BroadcastToRoom(room, env)
}

func (c *Client) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// ReadPump consumes the connection. Envelopes from the writer are
// decoded and handed to the hub's writer handler; anything a viewer
// sends is dropped.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket read", slog.String("room", c.Room), slog.Any("error", err))
			}
			return
		}
		if c.Role != RoleWriter {
			continue
		}
		env, err := Decode(message)
		if err != nil {
			c.Hub.logger.Warn("bad writer message",
				slog.String("room", c.Room),
				slog.String("client_id", c.ID),
				slog.Any("error", err))
			continue
		}
		env.Sender = c.ID
		if c.Hub.onWriter != nil {
			c.Hub.onWriter(c, env)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
