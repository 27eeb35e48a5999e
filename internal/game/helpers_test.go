package game

import (
	"encoding/json"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/basta-backend/internal"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	deadline time.Time
	f        func()
	done     bool
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) AfterFunc(d time.Duration, f func()) Stopper {
	t := &manualTimer{deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// nextDue pops the earliest live timer due at or before limit.
func (c *manualClock) nextDue(limit time.Time) *manualTimer {
	var next *manualTimer
	for _, t := range c.timers {
		if t.done || t.deadline.After(limit) {
			continue
		}
		if next == nil || t.deadline.Before(next.deadline) {
			next = t
		}
	}
	if next != nil {
		next.done = true
	}
	return next
}

type sentMessage struct {
	to     string
	room   string
	except string
	typ    string
	data   json.RawMessage
}

// recordingConns keeps every outbound message in order.
type recordingConns struct {
	sent   []sentMessage
	closed []string
}

func (r *recordingConns) record(to, room, except string, msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	var env internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		panic(err)
	}
	r.sent = append(r.sent, sentMessage{to: to, room: room, except: except, typ: env.Type, data: env.Data})
}

func (r *recordingConns) Send(connID string, msg any) { r.record(connID, "", "", msg) }

func (r *recordingConns) Broadcast(roomID string, msg any) { r.record("", roomID, "", msg) }

func (r *recordingConns) BroadcastExcept(roomID, connID string, msg any) {
	r.record("", roomID, connID, msg)
}

func (r *recordingConns) Close(connID string) { r.closed = append(r.closed, connID) }

// received lists the messages connID would have seen.
func (r *recordingConns) received(connID string) []sentMessage {
	var out []sentMessage
	for _, m := range r.sent {
		switch {
		case m.to == connID:
			out = append(out, m)
		case m.to == "" && m.except != connID:
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingConns) broadcasts(typ string) []sentMessage {
	var out []sentMessage
	for _, m := range r.sent {
		if m.to == "" && m.typ == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingConns) reset() {
	r.sent = nil
	r.closed = nil
}

type recordingObserver struct {
	phases   []internal.GamePhase
	finished []internal.FinalResults
}

func (o *recordingObserver) PhaseChanged(roomID string, from, to internal.GamePhase) {
	o.phases = append(o.phases, to)
}

func (o *recordingObserver) GameFinished(roomID string, results internal.FinalResults) {
	o.finished = append(o.finished, results)
}

type harness struct {
	t        *testing.T
	clock    *manualClock
	conns    *recordingConns
	observer *recordingObserver
	ctrl     *Controller
	pending  []TimerEvent
}

func newHarness(t *testing.T, opts ...func(*ControllerOptions)) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    newManualClock(),
		conns:    &recordingConns{},
		observer: &recordingObserver{},
	}
	logger := zerolog.Nop()
	o := ControllerOptions{
		Clock:    h.clock,
		Letters:  NewLetterSelector(rand.New(rand.NewPCG(7, 11))),
		Observer: h.observer,
		Logger:   &logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	h.ctrl = NewController("ROOM22", h.conns, func(ev TimerEvent) {
		h.pending = append(h.pending, ev)
	}, o)
	return h
}

func (h *harness) room() *internal.Room { return h.ctrl.Room() }

func (h *harness) do(connID string, action internal.ClientAction) {
	h.ctrl.Handle(ActionEvent{ConnID: connID, Action: action})
	h.drain()
}

func (h *harness) disconnect(connID string) {
	h.ctrl.Handle(DisconnectEvent{ConnID: connID})
	h.drain()
}

func (h *harness) drain() {
	for len(h.pending) > 0 {
		ev := h.pending[0]
		h.pending = h.pending[1:]
		h.ctrl.Handle(ev)
	}
}

// advance moves the clock forward, firing due timers in deadline order.
func (h *harness) advance(d time.Duration) {
	target := h.clock.now.Add(d)
	for {
		t := h.clock.nextDue(target)
		if t == nil {
			break
		}
		h.clock.now = t.deadline
		t.f()
		h.drain()
	}
	h.clock.now = target
}

func (h *harness) join(connID, name string) {
	h.t.Helper()
	h.do(connID, internal.JoinAction{PlayerName: name, DeviceId: "dev-" + connID})
	require.Contains(h.t, h.room().Players, connID, "join %s", name)
}

// joinAll seats players p1..pn named Player1..Playern.
func (h *harness) joinAll(n int) []string {
	ids := make([]string, n)
	for i := range n {
		ids[i] = "p" + string(rune('1'+i))
		h.join(ids[i], "Player"+string(rune('1'+i)))
	}
	return ids
}

func (h *harness) configure(patch internal.ConfigPatch) {
	h.t.Helper()
	h.conns.reset()
	h.do(h.room().HostId, internal.UpdateConfigAction{Config: patch})
	require.Empty(h.t, h.errorsFor(h.room().HostId))
}

// startRound starts the game and runs the countdown.
func (h *harness) startRound() {
	h.t.Helper()
	h.do(h.room().HostId, internal.StartGameAction{})
	require.Equal(h.t, internal.PhaseCountdown, h.room().Phase)
	h.advance(h.ctrl.settings.Countdown)
	require.Equal(h.t, internal.PhasePlaying, h.room().Phase)
}

// toVoting ends the current round through a basta call and its grace.
func (h *harness) toVoting(caller string) {
	h.t.Helper()
	h.do(caller, internal.CallBastaAction{})
	h.advance(seconds(h.room().Config.BastaGraceSeconds))
	require.Equal(h.t, internal.PhaseVoting, h.room().Phase)
}

func (h *harness) errorsFor(connID string) []internal.ErrorData {
	var out []internal.ErrorData
	for _, m := range h.conns.sent {
		if m.to == connID && m.typ == internal.MsgError {
			var e internal.ErrorData
			require.NoError(h.t, json.Unmarshal(m.data, &e))
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) lastErrorCode(connID string) internal.ErrorCode {
	h.t.Helper()
	errs := h.errorsFor(connID)
	require.NotEmpty(h.t, errs, "no error sent to %s", connID)
	return errs[len(errs)-1].Code
}

func decodeLast[T any](t *testing.T, conns *recordingConns, typ string) T {
	t.Helper()
	var matches []sentMessage
	for _, m := range conns.sent {
		if m.typ == typ {
			matches = append(matches, m)
		}
	}
	require.NotEmpty(t, matches, "no %s message", typ)
	var out T
	require.NoError(t, json.Unmarshal(matches[len(matches)-1].data, &out))
	return out
}

func vote(category, target string, valid bool) internal.VoteAction {
	return internal.VoteAction{Category: category, TargetPlayerId: target, Valid: &valid}
}

func scoreOf(results internal.RoundResults, playerID, category string) int {
	i := slices.IndexFunc(results.PlayerScores, func(s internal.PlayerRoundScore) bool {
		return s.PlayerId == playerID
	})
	if i < 0 {
		return -1
	}
	return results.PlayerScores[i].CategoryScores[category]
}

func ptr[T any](v T) *T { return &v }
