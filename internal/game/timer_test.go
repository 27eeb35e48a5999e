package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() (*TimerScheduler, *manualClock, *[]TimerEvent) {
	clock := newManualClock()
	var fired []TimerEvent
	s := NewTimerScheduler(clock, func(ev TimerEvent) {
		fired = append(fired, ev)
	}, zerolog.Nop())
	return s, clock, &fired
}

// fire runs every timer due within d.
func fire(clock *manualClock, d time.Duration) {
	target := clock.now.Add(d)
	for t := clock.nextDue(target); t != nil; t = clock.nextDue(target) {
		clock.now = t.deadline
		t.f()
	}
	clock.now = target
}

func TestTimerArmAndClaim(t *testing.T) {
	s, clock, fired := newTestScheduler()

	s.Arm(TimerRound, 10*time.Second)
	assert.True(t, s.Active(TimerRound))
	assert.Equal(t, 10*time.Second, s.Remaining(TimerRound))

	fire(clock, 4*time.Second)
	assert.Empty(t, *fired)
	assert.Equal(t, 6*time.Second, s.Remaining(TimerRound))

	fire(clock, 6*time.Second)
	require.Len(t, *fired, 1)
	assert.Equal(t, TimerRound, (*fired)[0].Name)

	assert.True(t, s.Claim((*fired)[0]))
	assert.False(t, s.Active(TimerRound))
	assert.False(t, s.Claim((*fired)[0]), "an event is claimed once")
}

func TestTimerRearmMakesOldEventStale(t *testing.T) {
	s, clock, fired := newTestScheduler()

	s.Arm(TimerVoting, time.Second)
	fire(clock, time.Second)
	require.Len(t, *fired, 1)
	stale := (*fired)[0]

	s.Arm(TimerVoting, time.Second)
	assert.False(t, s.Claim(stale))
	assert.True(t, s.Active(TimerVoting))

	fire(clock, time.Second)
	require.Len(t, *fired, 2)
	assert.True(t, s.Claim((*fired)[1]))
}

func TestTimerCancel(t *testing.T) {
	s, clock, fired := newTestScheduler()

	s.Arm(TimerGrace, time.Second)
	s.Arm(TimerRound, time.Minute)
	s.Cancel(TimerGrace)
	s.Cancel(TimerGrace)

	fire(clock, 2*time.Second)
	assert.Empty(t, *fired)
	assert.Zero(t, s.Remaining(TimerGrace))
	assert.True(t, s.Active(TimerRound))

	s.CancelAll()
	fire(clock, time.Hour)
	assert.Empty(t, *fired)
	assert.False(t, s.Active(TimerRound))
}

func TestTimerRemainingNeverNegative(t *testing.T) {
	s, clock, _ := newTestScheduler()

	s.Arm(TimerResults, time.Second)
	clock.now = clock.now.Add(5 * time.Second)

	assert.Zero(t, s.Remaining(TimerResults))
}

func TestReconnectTimerName(t *testing.T) {
	assert.Equal(t, TimerName("reconnect/dev-1"), ReconnectTimer("dev-1"))
}
