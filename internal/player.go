package internal

import (
	"time"
)

type Player struct {
	Id       string
	DeviceId string
	Username string
	Score    int

	// Game state
	IsHost      bool
	IsReady     bool
	IsConnected bool
	FilledCount int
	JoinedAt    time.Time
	LastSeen    time.Time
}

// PlayerSnapshot is the client-safe view of a player. It never carries the
// device id.
type PlayerSnapshot struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"is_host"`
	IsReady     bool   `json:"is_ready"`
	IsConnected bool   `json:"is_connected"`
	FilledCount int    `json:"filled_count"`
}

func (p *Player) ResetRoundState() {
	p.IsReady = false
	p.FilledCount = 0
}

func (p *Player) ToPublicPlayer() PlayerSnapshot {
	return PlayerSnapshot{
		ID:          p.Id,
		Username:    p.Username,
		Score:       p.Score,
		IsHost:      p.IsHost,
		IsReady:     p.IsReady,
		IsConnected: p.IsConnected,
		FilledCount: p.FilledCount,
	}
}
