package game

import (
	"strings"

	"github.com/scythe504/basta-backend/internal"
)

// =============================================================================
// LOBBY, MEMBERSHIP AND HOST ACTIONS
// =============================================================================

func (c *Controller) handleJoin(connID string, a internal.JoinAction) error {
	if p, ok := c.room.Players[connID]; ok && p.IsConnected {
		c.sendRoomState(connID)
		return nil
	}

	if c.room.PlayerByDevice(a.DeviceId) != nil {
		c.reconnect(connID, a.DeviceId)
		return nil
	}

	if c.room.Phase != internal.PhaseLobby && c.room.Phase != internal.PhaseReadyCheck {
		return internal.ErrGameInProgress
	}

	player, err := c.room.AddPlayer(connID, a.DeviceId, a.PlayerName, c.clock.Now())
	if err != nil {
		return err
	}
	c.timers.Cancel(TimerRoomExpiry)

	c.log.Info().Str("player", player.Id).Str("username", player.Username).Bool("host", player.IsHost).
		Int("players", len(c.room.Players)).Msg("[handleJoin] player joined")

	c.sendRoomState(connID)
	c.conns.BroadcastExcept(c.room.Id, connID, internal.Message[internal.PlayerJoinedData]{
		Type: internal.MsgPlayerJoined,
		Data: internal.PlayerJoinedData{
			Player:      player.ToPublicPlayer(),
			PlayerCount: c.room.GetPlayerCount(),
		},
	})
	return nil
}

// reconnect moves an existing player onto connID. A previous connection that
// is still open is closed.
func (c *Controller) reconnect(connID, deviceID string) {
	player, oldID, ok := c.room.ReconnectPlayer(deviceID, connID, c.clock.Now())
	if !ok {
		return
	}
	c.timers.Cancel(ReconnectTimer(deviceID))

	if oldID != connID {
		c.log.Info().Str("old", oldID).Str("new", connID).Msg("[reconnect] closing stale connection")
		c.conns.Close(oldID)
	}

	c.log.Info().Str("player", player.Id).Str("username", player.Username).Msg("[reconnect] player reconnected")

	c.sendRoomState(connID)
	c.broadcast(internal.Message[internal.PlayerReconnectedData]{
		Type: internal.MsgPlayerReconnected,
		Data: internal.PlayerReconnectedData{
			PlayerID:   player.Id,
			PreviousID: oldID,
			Username:   player.Username,
		},
	})
}

func (c *Controller) handleReady(player *internal.Player, ready bool) error {
	if c.room.Phase != internal.PhaseLobby && c.room.Phase != internal.PhaseReadyCheck {
		return nil
	}

	player.IsReady = ready
	c.broadcast(internal.Message[internal.PlayerReadyData]{
		Type: internal.MsgPlayerReady,
		Data: internal.PlayerReadyData{PlayerID: player.Id, IsReady: ready},
	})

	if c.room.Phase == internal.PhaseReadyCheck && c.room.AreAllPlayersReady() {
		c.timers.Cancel(TimerReadyCheck)
		c.startCountdown()
	}
	return nil
}

func (c *Controller) handleStartGame(player *internal.Player) error {
	if !c.room.IsHost(player.Id) {
		return internal.ErrNotHost
	}
	if !c.room.CanStartGame() {
		return internal.ErrNotEnoughPlayers
	}
	if c.room.Phase != internal.PhaseLobby {
		return internal.ErrInvalidPhase
	}

	c.room.LetterPool = c.letters.NewPool()
	c.log.Info().Int("players", c.room.GetPlayerCount()).Msg("[handleStartGame] game starting")
	c.startCountdown()
	return nil
}

func (c *Controller) handleKickPlayer(player *internal.Player, a internal.KickPlayerAction) error {
	if !c.room.IsHost(player.Id) {
		return internal.ErrNotHost
	}
	if a.TargetPlayerId == player.Id {
		return nil
	}
	target, ok := c.room.Players[a.TargetPlayerId]
	if !ok {
		return internal.ErrPlayerNotFound
	}

	c.broadcast(internal.Message[internal.PlayerKickedData]{
		Type: internal.MsgPlayerKicked,
		Data: internal.PlayerKickedData{PlayerID: target.Id, Username: target.Username},
	})
	c.removePlayer(target)
	c.conns.Close(target.Id)

	c.log.Info().Str("player", target.Id).Str("username", target.Username).Msg("[handleKickPlayer] player kicked")
	c.recheckProgress()
	return nil
}

func (c *Controller) handleUpdateConfig(player *internal.Player, a internal.UpdateConfigAction) error {
	if !c.room.IsHost(player.Id) {
		return internal.ErrNotHost
	}
	if c.room.Phase != internal.PhaseLobby {
		return internal.ErrInvalidPhase
	}
	if err := c.room.UpdateConfig(a.Config); err != nil {
		return err
	}

	c.broadcast(internal.Message[internal.ConfigUpdatedData]{
		Type: internal.MsgConfigUpdated,
		Data: internal.ConfigUpdatedData{Config: c.room.PublicState(c.clock.Now()).Config},
	})
	return nil
}

func (c *Controller) handleTransferHost(player *internal.Player, a internal.TransferHostAction) error {
	if !c.room.IsHost(player.Id) {
		return internal.ErrNotHost
	}
	if err := c.room.TransferHost(a.TargetPlayerId); err != nil {
		return err
	}
	c.broadcastHostChanged()
	return nil
}

func (c *Controller) broadcastHostChanged() {
	host, ok := c.room.Players[c.room.HostId]
	if !ok {
		return
	}
	c.broadcast(internal.Message[internal.HostChangedData]{
		Type: internal.MsgHostChanged,
		Data: internal.HostChangedData{NewHostID: host.Id, NewHostName: host.Username},
	})
}

// removePlayer drops a player for good and announces a new host if needed.
func (c *Controller) removePlayer(player *internal.Player) {
	c.timers.Cancel(ReconnectTimer(reconnectKey(player)))
	if _, newHost := c.room.RemovePlayer(player.Id); newHost != "" {
		c.broadcastHostChanged()
	}
}

func reconnectKey(p *internal.Player) string {
	if p.DeviceId != "" {
		return p.DeviceId
	}
	return p.Id
}

func (c *Controller) handleDisconnect(connID string) {
	player, ok := c.room.Players[connID]
	if !ok || !player.IsConnected {
		return
	}

	c.room.DisconnectPlayer(connID, c.clock.Now())
	c.log.Info().Str("player", player.Id).Str("username", player.Username).Str("phase", string(c.room.Phase)).
		Msg("[handleDisconnect] player disconnected")

	c.broadcast(internal.Message[internal.PlayerLeftData]{
		Type: internal.MsgPlayerLeft,
		Data: internal.PlayerLeftData{
			PlayerID:    player.Id,
			Username:    player.Username,
			PlayerCount: c.room.GetPlayerCount(),
		},
	})

	if c.room.Phase == internal.PhaseLobby {
		c.removePlayer(player)
		return
	}

	if c.room.GetPlayerCount() == 0 {
		c.resetRoom()
		return
	}

	if c.settings.ReconnectWindow > 0 {
		c.timers.Arm(ReconnectTimer(reconnectKey(player)), c.settings.ReconnectWindow)
	}
	c.recheckProgress()
}

// expireDisconnected removes a player whose reconnect window ran out.
func (c *Controller) expireDisconnected(name TimerName) {
	key, ok := strings.CutPrefix(string(name), "reconnect/")
	if !ok {
		c.log.Warn().Str("timer", string(name)).Msg("[expireDisconnected] unknown timer")
		return
	}

	player := c.room.PlayerByDevice(key)
	if player == nil {
		player = c.room.Players[key]
	}
	if player == nil || player.IsConnected {
		return
	}

	c.log.Info().Str("player", player.Id).Str("username", player.Username).Msg("[expireDisconnected] reconnect window elapsed")
	c.removePlayer(player)
}

// recheckProgress completes a phase that was only waiting on players who
// have since left.
func (c *Controller) recheckProgress() {
	if c.room.GetPlayerCount() == 0 {
		return
	}
	switch c.room.Phase {
	case internal.PhaseVoting:
		if c.room.PendingResults == nil && c.room.AllVotingReady() {
			FillMissingVotesAsValid(c.room)
			c.finishVoting()
		}
	case internal.PhaseReadyCheck:
		if c.room.AreAllPlayersReady() {
			c.timers.Cancel(TimerReadyCheck)
			c.startCountdown()
		}
	}
}
