package game

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/basta-backend/internal"
)

// Connections delivers messages to the sockets attached to a room. Sends
// never block the caller.
type Connections interface {
	Send(connID string, msg any)
	Broadcast(roomID string, msg any)
	BroadcastExcept(roomID, connID string, msg any)
	Close(connID string)
}

// Observer is told about phase changes and finished games. Calls run on the
// room goroutine and must return quickly.
type Observer interface {
	PhaseChanged(roomID string, from, to internal.GamePhase)
	GameFinished(roomID string, results internal.FinalResults)
}

type Observers []Observer

func (o Observers) PhaseChanged(roomID string, from, to internal.GamePhase) {
	for _, obs := range o {
		obs.PhaseChanged(roomID, from, to)
	}
}

func (o Observers) GameFinished(roomID string, results internal.FinalResults) {
	for _, obs := range o {
		obs.GameFinished(roomID, results)
	}
}

type Settings struct {
	Countdown        time.Duration
	ResultsDelay     time.Duration
	GameOverDelay    time.Duration
	LobbyReturnDelay time.Duration
	ReconnectWindow  time.Duration
	EmptyRoomTTL     time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Countdown:        3 * time.Second,
		ResultsDelay:     3 * time.Second,
		GameOverDelay:    5 * time.Second,
		LobbyReturnDelay: 30 * time.Second,
		ReconnectWindow:  5 * time.Minute,
		EmptyRoomTTL:     10 * time.Minute,
	}
}

// Event is anything a room processes: client actions, disconnects and
// fired timers.
type Event interface {
	isEvent()
}

type ActionEvent struct {
	ConnID string
	Action internal.ClientAction
}

type DisconnectEvent struct {
	ConnID string
}

func (ActionEvent) isEvent()     {}
func (DisconnectEvent) isEvent() {}

type ControllerOptions struct {
	Settings       Settings
	Clock          Clock
	Letters        *LetterSelector
	TieBreakMarker TieBreakMarker
	Observer       Observer
	Logger         *zerolog.Logger
}

// Controller is the phase state machine of a single room. It is not safe for
// concurrent use; RoomActor feeds it one event at a time.
type Controller struct {
	room     *internal.Room
	conns    Connections
	clock    Clock
	timers   *TimerScheduler
	letters  *LetterSelector
	settings Settings
	marker   TieBreakMarker
	observer Observer
	log      zerolog.Logger

	ending bool
	seated bool
	closed bool
}

// NewController builds the state machine for roomID. deliver must hand timer
// events back to Handle on the room goroutine.
func NewController(roomID string, conns Connections, deliver func(TimerEvent), opts ControllerOptions) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Letters == nil {
		opts.Letters = NewLetterSelector(nil)
	}
	if opts.Observer == nil {
		opts.Observer = Observers(nil)
	}
	if opts.Settings == (Settings{}) {
		opts.Settings = DefaultSettings()
	}
	base := log.Logger
	if opts.Logger != nil {
		base = *opts.Logger
	}
	logger := base.With().Str("room", roomID).Logger()

	c := &Controller{
		room:     internal.NewRoom(roomID, opts.Clock.Now()),
		conns:    conns,
		clock:    opts.Clock,
		letters:  opts.Letters,
		settings: opts.Settings,
		marker:   opts.TieBreakMarker,
		observer: opts.Observer,
		log:      logger,
	}
	c.timers = NewTimerScheduler(opts.Clock, deliver, logger)
	if c.settings.EmptyRoomTTL > 0 {
		c.timers.Arm(TimerRoomExpiry, c.settings.EmptyRoomTTL)
	}
	return c
}

func (c *Controller) Room() *internal.Room { return c.room }

// Closed reports that the room has emptied out and should be discarded.
func (c *Controller) Closed() bool { return c.closed }

// Handle processes one event to completion.
func (c *Controller) Handle(ev Event) {
	switch e := ev.(type) {
	case ActionEvent:
		if err := c.dispatch(e.ConnID, e.Action); err != nil {
			c.reject(e.ConnID, e.Action, err)
		}
	case DisconnectEvent:
		c.handleDisconnect(e.ConnID)
	case TimerEvent:
		c.handleTimer(e)
	}
	c.checkEmpty()
}

func (c *Controller) dispatch(connID string, action internal.ClientAction) error {
	switch a := action.(type) {
	case internal.JoinAction:
		return c.handleJoin(connID, a)
	case internal.PingAction:
		c.conns.Send(connID, internal.Message[struct{}]{Type: internal.MsgPong})
		return nil
	}

	player, ok := c.room.Players[connID]
	if !ok || !player.IsConnected {
		c.log.Debug().Str("conn", connID).Str("type", action.ActionType()).Msg("[dispatch] action from connection without a player")
		return nil
	}

	switch a := action.(type) {
	case internal.ReadyAction:
		return c.handleReady(player, a.Ready)
	case internal.StartGameAction:
		return c.handleStartGame(player)
	case internal.SubmitAnswersAction:
		return c.handleSubmitAnswers(player, a)
	case internal.UpdateAnswerAction:
		return c.handleUpdateAnswer(player, a)
	case internal.CallBastaAction:
		return c.handleCallBasta(player)
	case internal.VoteAction:
		return c.handleVote(player, a)
	case internal.VotingReadyAction:
		return c.handleVotingReady(player)
	case internal.HostDecideTieAction:
		return c.handleHostDecideTie(player, a)
	case internal.KickPlayerAction:
		return c.handleKickPlayer(player, a)
	case internal.UpdateConfigAction:
		return c.handleUpdateConfig(player, a)
	case internal.TransferHostAction:
		return c.handleTransferHost(player, a)
	case internal.ReactAction:
		return c.handleReact(player, a)
	default:
		return internal.ErrInvalidMessage
	}
}

func (c *Controller) reject(connID string, action internal.ClientAction, err error) {
	var gameErr *internal.GameError
	if !errors.As(err, &gameErr) {
		c.log.Error().Err(err).Str("conn", connID).Str("type", action.ActionType()).Msg("[reject] unexpected error")
		gameErr = internal.ErrInvalidMessage
	}
	c.log.Debug().Str("conn", connID).Str("type", action.ActionType()).Str("code", string(gameErr.Code)).Msg("[reject] action rejected")
	c.conns.Send(connID, internal.Message[internal.ErrorData]{
		Type: internal.MsgError,
		Data: internal.ErrorData{Message: gameErr.Message, Code: gameErr.Code},
	})
}

func (c *Controller) handleTimer(ev TimerEvent) {
	if !c.timers.Claim(ev) {
		return
	}
	c.log.Debug().Str("timer", string(ev.Name)).Str("phase", string(c.room.Phase)).Msg("[handleTimer] timer fired")

	switch ev.Name {
	case TimerCountdown:
		if c.room.Phase == internal.PhaseCountdown {
			c.startRound()
		}
	case TimerRound:
		if c.room.Phase == internal.PhasePlaying {
			c.handleRoundTimeout()
		}
	case TimerGrace:
		if c.room.Phase == internal.PhaseBastaCalled {
			c.endRound()
		}
	case TimerVoting:
		if c.room.Phase == internal.PhaseVoting {
			FillMissingVotesAsValid(c.room)
			c.finishVoting()
		}
	case TimerReadyCheck:
		if c.room.Phase == internal.PhaseReadyCheck {
			c.startCountdown()
		}
	case TimerResults:
		if c.room.Phase == internal.PhaseResults {
			c.afterResults()
		}
	case TimerLobbyReturn:
		if c.room.Phase == internal.PhaseGameOver {
			c.returnToLobby()
		}
	case TimerRoomExpiry:
		if len(c.room.Players) == 0 {
			c.log.Info().Msg("[handleTimer] room expired without players")
			c.closed = true
		}
	default:
		c.expireDisconnected(ev.Name)
	}
}

// checkEmpty turns a room whose last player left back into a fresh lobby and
// arms room_expiry, so the code stays joinable for a while. With no expiry
// configured the room closes right away.
func (c *Controller) checkEmpty() {
	if len(c.room.Players) > 0 {
		c.seated = true
		return
	}
	if !c.seated || c.closed {
		return
	}
	c.seated = false
	c.timers.CancelAll()
	c.ending = false
	c.setPhase(internal.PhaseLobby)
	c.room.Reset(c.clock.Now())

	if c.settings.EmptyRoomTTL <= 0 {
		c.log.Info().Msg("[checkEmpty] last player gone, closing room")
		c.closed = true
		return
	}
	c.log.Info().Dur("expires_in", c.settings.EmptyRoomTTL).Msg("[checkEmpty] last player gone, room back to an empty lobby")
	c.timers.Arm(TimerRoomExpiry, c.settings.EmptyRoomTTL)
}

// Shutdown stops every timer. The controller must not be used afterwards.
func (c *Controller) Shutdown() {
	c.timers.CancelAll()
	c.closed = true
}

func (c *Controller) setPhase(phase internal.GamePhase) {
	from := c.room.Phase
	if from == phase {
		return
	}
	c.room.Phase = phase
	c.log.Info().Str("from", string(from)).Str("to", string(phase)).Msg("[setPhase] phase changed")
	c.observer.PhaseChanged(c.room.Id, from, phase)
}

func (c *Controller) broadcast(msg any) {
	c.conns.Broadcast(c.room.Id, msg)
}

func (c *Controller) sendRoomState(connID string) {
	c.conns.Send(connID, internal.Message[internal.RoomStateData]{
		Type: internal.MsgRoomState,
		Data: internal.RoomStateData{State: c.room.PublicState(c.clock.Now())},
	})
}

func (c *Controller) broadcastRoomState() {
	c.broadcast(internal.Message[internal.RoomStateData]{
		Type: internal.MsgRoomState,
		Data: internal.RoomStateData{State: c.room.PublicState(c.clock.Now())},
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
