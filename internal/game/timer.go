package game

import (
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

type Stopper interface {
	Stop() bool
}

// Clock is the time source for a room. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SystemClock is backed by the time package.
var SystemClock Clock = systemClock{}

type TimerName string

const (
	TimerRound       TimerName = "round"
	TimerGrace       TimerName = "grace"
	TimerVoting      TimerName = "voting"
	TimerReadyCheck  TimerName = "ready_check"
	TimerCountdown   TimerName = "countdown"
	TimerResults     TimerName = "results"
	TimerLobbyReturn TimerName = "lobby_return"
	TimerRoomExpiry  TimerName = "room_expiry"
)

// ReconnectTimer names the per-player removal timer armed on disconnect.
func ReconnectTimer(key string) TimerName {
	return TimerName("reconnect/" + key)
}

// TimerEvent is what a fired timer delivers to its room. Gen identifies the
// arming, so a timer that was re-armed or cancelled in the meantime can be
// recognised and dropped.
type TimerEvent struct {
	Name TimerName
	Gen  uint64
}

func (TimerEvent) isEvent() {}

type scheduledTimer struct {
	gen      uint64
	stop     Stopper
	deadline time.Time
}

// TimerScheduler keeps named single-shot timers for one room. It is owned by
// the room goroutine; the only work done on the clock's goroutine is handing
// the TimerEvent to deliver.
type TimerScheduler struct {
	clock   Clock
	deliver func(TimerEvent)
	timers  map[TimerName]scheduledTimer
	gen     uint64
	log     zerolog.Logger
}

func NewTimerScheduler(clock Clock, deliver func(TimerEvent), logger zerolog.Logger) *TimerScheduler {
	return &TimerScheduler{
		clock:   clock,
		deliver: deliver,
		timers:  make(map[TimerName]scheduledTimer),
		log:     logger,
	}
}

// Arm schedules name to fire after d, replacing any timer of the same name.
func (s *TimerScheduler) Arm(name TimerName, d time.Duration) {
	s.Cancel(name)

	s.gen++
	ev := TimerEvent{Name: name, Gen: s.gen}
	stop := s.clock.AfterFunc(d, func() {
		s.deliver(ev)
	})
	s.timers[name] = scheduledTimer{
		gen:      ev.Gen,
		stop:     stop,
		deadline: s.clock.Now().Add(d),
	}
	s.log.Debug().Str("timer", string(name)).Dur("after", d).Uint64("gen", ev.Gen).Msg("[Arm] timer armed")
}

func (s *TimerScheduler) Cancel(name TimerName) {
	t, ok := s.timers[name]
	if !ok {
		return
	}
	t.stop.Stop()
	delete(s.timers, name)
	s.log.Debug().Str("timer", string(name)).Uint64("gen", t.gen).Msg("[Cancel] timer cancelled")
}

func (s *TimerScheduler) CancelAll() {
	for name := range s.timers {
		s.Cancel(name)
	}
}

// Claim consumes a fired event. It returns false for events from a timer
// that has since been cancelled or re-armed.
func (s *TimerScheduler) Claim(ev TimerEvent) bool {
	t, ok := s.timers[ev.Name]
	if !ok || t.gen != ev.Gen {
		s.log.Debug().Str("timer", string(ev.Name)).Uint64("gen", ev.Gen).Msg("[Claim] stale timer ignored")
		return false
	}
	delete(s.timers, ev.Name)
	return true
}

func (s *TimerScheduler) Active(name TimerName) bool {
	_, ok := s.timers[name]
	return ok
}

func (s *TimerScheduler) Remaining(name TimerName) time.Duration {
	t, ok := s.timers[name]
	if !ok {
		return 0
	}
	return max(t.deadline.Sub(s.clock.Now()), 0)
}
