package game

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

const clientSendBuffer = 64

// Client is one websocket connection attached to a room.
type Client struct {
	ID     string
	RoomID string
	Send   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(id, roomID string) *Client {
	return &Client{
		ID:     id,
		RoomID: roomID,
		Send:   make(chan []byte, clientSendBuffer),
		closed: make(chan struct{}),
	}
}

// Closed is closed when the server wants the connection gone.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// Hub tracks live connections per room and implements Connections. Sends
// never block: a client whose buffer is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	members, ok := h.rooms[c.RoomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[c.RoomID] = members
	}
	members[c.ID] = c
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	if members, ok := h.rooms[c.RoomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, c.RoomID)
		}
	}
	c.shutdown()
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Send(connID string, msg any) {
	data, ok := marshal(msg)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		enqueue(c, data)
	}
}

func (h *Hub) Broadcast(roomID string, msg any) {
	h.BroadcastExcept(roomID, "", msg)
}

func (h *Hub) BroadcastExcept(roomID, connID string, msg any) {
	data, ok := marshal(msg)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.rooms[roomID] {
		if id == connID {
			continue
		}
		enqueue(c, data)
	}
}

// Close asks the connection's pumps to shut down. The read pump unregisters
// the client once the socket is gone.
func (h *Hub) Close(connID string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.shutdown()
	}
}

// CloseRoom asks every connection attached to roomID to shut down.
func (h *Hub) CloseRoom(roomID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		c.shutdown()
	}
}

func marshal(msg any) ([]byte, bool) {
	if raw, ok := msg.([]byte); ok {
		return raw, true
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("[Hub] marshal error")
		return nil, false
	}
	return data, true
}

func enqueue(c *Client, data []byte) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("conn", c.ID).Str("room", c.RoomID).Msg("[Hub] send buffer full, dropping message")
	}
}
