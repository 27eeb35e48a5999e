package game

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scythe504/basta-backend/internal"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

const (
	writeWait      = 10 * time.Second
	pongWait       = 120 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 16 * 1024
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketServer attaches websocket connections to rooms.
type SocketServer struct {
	hub   *Hub
	rooms *Manager
	limit rate.Limit
	burst int
}

// NewSocketServer limits every connection to perSecond inbound messages with
// the given burst. A non-positive perSecond disables the limit.
func NewSocketServer(hub *Hub, rooms *Manager, perSecond float64, burst int) *SocketServer {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &SocketServer{hub: hub, rooms: rooms, limit: limit, burst: burst}
}

// HandleWebSocket upgrades the request and attaches the socket to roomID,
// starting the room if it is not live.
func (s *SocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("[HandleWebSocket] upgrade failed")
		return
	}

	actor := s.rooms.GetOrCreate(roomID)
	client := NewClient(uuid.NewString(), roomID)
	s.hub.Register(client)

	log.Info().Str("conn", client.ID).Str("room", roomID).Str("remote", r.RemoteAddr).Msg("[HandleWebSocket] connection opened")

	go s.writePump(conn, client)
	go s.readPump(conn, client, actor)
}

func (s *SocketServer) readPump(conn *websocket.Conn, client *Client, actor *RoomActor) {
	defer func() {
		if err := actor.Send(DisconnectEvent{ConnID: client.ID}); err != nil && !errors.Is(err, ErrRoomClosed) {
			log.Error().Err(err).Str("conn", client.ID).Msg("[readPump] disconnect not delivered")
		}
		s.hub.Unregister(client.ID)
		conn.Close()
		log.Info().Str("conn", client.ID).Str("room", client.RoomID).Msg("[readPump] connection closed")
	}()

	limiter := rate.NewLimiter(s.limit, s.burst)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn", client.ID).Msg("[readPump] unexpected close")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow() {
			log.Debug().Str("conn", client.ID).Msg("[readPump] rate limited, dropping message")
			continue
		}

		action, err := internal.ParseClientAction(raw)
		if err != nil {
			log.Debug().Err(err).Str("conn", client.ID).Msg("[readPump] malformed message")
			s.hub.Send(client.ID, internal.Message[internal.ErrorData]{
				Type: internal.MsgError,
				Data: internal.ErrorData{
					Message: internal.ErrInvalidMessage.Message,
					Code:    internal.ErrInvalidMessage.Code,
				},
			})
			continue
		}

		if err := actor.Send(ActionEvent{ConnID: client.ID, Action: action}); err != nil {
			log.Info().Str("conn", client.ID).Str("room", client.RoomID).Msg("[readPump] room is gone, closing connection")
			return
		}
	}
}

func (s *SocketServer) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("conn", client.ID).Msg("[writePump] write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.Closed():
			s.flush(conn, client)
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued, so a kicked player sees why.
func (s *SocketServer) flush(conn *websocket.Conn, client *Client) {
	for {
		select {
		case data := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
