package game

import (
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/basta-backend/internal"
	"github.com/scythe504/basta-backend/internal/utils"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

const roomInboxSize = 256

var ErrRoomClosed = errors.New("room closed")

// RoomInfo is a read-only snapshot of a room, refreshed after every event.
type RoomInfo struct {
	Id         string             `json:"room_id"`
	Phase      internal.GamePhase `json:"phase"`
	Players    int                `json:"players"`
	Connected  int                `json:"connected"`
	MaxPlayers int                `json:"max_players"`
	CreatedAt  time.Time          `json:"created_at"`
}

// RoomActor serializes every event of one room onto a single goroutine.
type RoomActor struct {
	id    string
	inbox chan Event
	done  chan struct{}
	ctrl  *Controller
	info  atomic.Pointer[RoomInfo]
	log   zerolog.Logger
}

func (a *RoomActor) ID() string { return a.id }

// Send enqueues ev. It fails once the room has stopped.
func (a *RoomActor) Send(ev Event) error {
	select {
	case <-a.done:
		return ErrRoomClosed
	default:
	}
	select {
	case <-a.done:
		return ErrRoomClosed
	case a.inbox <- ev:
		return nil
	}
}

func (a *RoomActor) Done() <-chan struct{} { return a.done }

func (a *RoomActor) Info() RoomInfo {
	return *a.info.Load()
}

func (a *RoomActor) publish() {
	room := a.ctrl.Room()
	a.info.Store(&RoomInfo{
		Id:         room.Id,
		Phase:      room.Phase,
		Players:    len(room.Players),
		Connected:  room.GetPlayerCount(),
		MaxPlayers: room.Config.MaxPlayers,
		CreatedAt:  room.CreatedAt,
	})
}

func (a *RoomActor) run(stop <-chan struct{}, onClose func(*RoomActor)) {
	defer func() {
		a.ctrl.Shutdown()
		onClose(a)
		close(a.done)
	}()

	for {
		select {
		case <-stop:
			a.log.Info().Msg("[RoomActor] stopping")
			return
		case ev := <-a.inbox:
			a.handle(ev)
			a.publish()
			if a.ctrl.Closed() {
				a.log.Info().Msg("[RoomActor] room closed")
				return
			}
		}
	}
}

func (a *RoomActor) handle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("[RoomActor] recovered from panic")
		}
	}()
	a.ctrl.Handle(ev)
}

type ManagerOptions struct {
	Settings       Settings
	Clock          Clock
	TieBreakMarker TieBreakMarker
	Observer       Observer
	Logger         *zerolog.Logger
}

// roomCloser is implemented by connection registries that can drop every
// socket of a room at once.
type roomCloser interface {
	CloseRoom(roomID string)
}

// Manager is the registry of live rooms.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*RoomActor
	conns Connections
	opts  ManagerOptions
	stop  chan struct{}
	wg    sync.WaitGroup
	log   zerolog.Logger

	stopOnce sync.Once
}

func NewManager(conns Connections, opts ManagerOptions) *Manager {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Manager{
		rooms: make(map[string]*RoomActor),
		conns: conns,
		opts:  opts,
		stop:  make(chan struct{}),
		log:   logger,
	}
}

// GetOrCreate returns the live room roomID, starting it if needed.
func (m *Manager) GetOrCreate(roomID string) *RoomActor {
	m.mu.Lock()
	defer m.mu.Unlock()

	if actor, ok := m.rooms[roomID]; ok {
		return actor
	}
	return m.startLocked(roomID)
}

func (m *Manager) Get(roomID string) (*RoomActor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	actor, ok := m.rooms[roomID]
	return actor, ok
}

// CreateRoom starts a room under a fresh code.
func (m *Manager) CreateRoom() (*RoomActor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for range 16 {
		code, err := utils.GenerateRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := m.rooms[code]; taken {
			continue
		}
		return m.startLocked(code), nil
	}
	return nil, errors.New("could not allocate a room code")
}

// Deliver routes ev to roomID. Unknown rooms return ErrRoomClosed.
func (m *Manager) Deliver(roomID string, ev Event) error {
	actor, ok := m.Get(roomID)
	if !ok {
		return ErrRoomClosed
	}
	return actor.Send(ev)
}

// GetJoinableRoom returns the id of a lobby room with a free seat, or "".
func (m *Manager) GetJoinableRoom() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := ""
	bestPlayers := -1
	for id, actor := range m.rooms {
		info := actor.Info()
		if info.Phase != internal.PhaseLobby || info.Players >= info.MaxPlayers {
			continue
		}
		if info.Players > bestPlayers {
			best, bestPlayers = id, info.Players
		}
	}
	if best == "" {
		m.log.Debug().Msg("[GetJoinableRoom] no joinable room found")
	}
	return best
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *Manager) Rooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(m.rooms))
	for _, actor := range m.rooms {
		out = append(out, actor.Info())
	}
	return out
}

// Shutdown stops every room and waits for the actors to exit.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
}

func (m *Manager) startLocked(roomID string) *RoomActor {
	logger := m.log.With().Str("room", roomID).Logger()
	actor := &RoomActor{
		id:    roomID,
		inbox: make(chan Event, roomInboxSize),
		done:  make(chan struct{}),
		log:   logger,
	}
	deliver := func(ev TimerEvent) {
		if err := actor.Send(ev); err != nil {
			logger.Debug().Str("timer", string(ev.Name)).Msg("[Manager] timer fired after room closed")
		}
	}
	actor.ctrl = NewController(roomID, m.conns, deliver, ControllerOptions{
		Settings:       m.opts.Settings,
		Clock:          m.opts.Clock,
		TieBreakMarker: m.opts.TieBreakMarker,
		Observer:       m.opts.Observer,
		Logger:         &m.log,
	})
	actor.publish()
	m.rooms[roomID] = actor

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		actor.run(m.stop, m.remove)
	}()

	m.log.Info().Str("room", roomID).Int("rooms", len(m.rooms)).Msg("[Manager] room created")
	return actor
}

// remove drops a stopped room and closes the sockets still attached to it.
func (m *Manager) remove(actor *RoomActor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[actor.id] != actor {
		return
	}
	delete(m.rooms, actor.id)
	if closer, ok := m.conns.(roomCloser); ok {
		closer.CloseRoom(actor.id)
	}
	m.log.Info().Str("room", actor.id).Int("rooms", len(m.rooms)).Msg("[Manager] room removed")
}
