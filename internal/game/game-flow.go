package game

import (
	"github.com/scythe504/basta-backend/internal"
)

// =============================================================================
// PHASE TRANSITIONS
// =============================================================================

func (c *Controller) startCountdown() {
	c.setPhase(internal.PhaseCountdown)
	c.broadcast(internal.Message[internal.CountdownStartedData]{
		Type: internal.MsgCountdownStarted,
		Data: internal.CountdownStartedData{DurationMs: c.settings.Countdown.Milliseconds()},
	})
	c.timers.Arm(TimerCountdown, c.settings.Countdown)
}

// startRound draws a letter and opens the round. Running out of letters ends
// the game.
func (c *Controller) startRound() {
	letter, pool, ok := c.letters.Select(c.room.LetterPool, c.room.UsedLetters)
	if !ok {
		c.log.Info().Strs("used", c.room.UsedLetters).Msg("[startRound] no letters left, ending game")
		c.endGame()
		return
	}

	c.room.LetterPool = pool
	c.room.InitializeRound(letter, c.clock.Now())
	c.setPhase(internal.PhasePlaying)

	c.log.Info().Int("round", c.room.RoundNumber).Str("letter", letter).Msg("[startRound] round started")
	c.broadcast(internal.Message[internal.RoundStartedData]{
		Type: internal.MsgRoundStarted,
		Data: internal.RoundStartedData{
			Round:       c.room.RoundNumber,
			Letter:      letter,
			TotalRounds: c.room.TotalRounds(),
		},
	})

	if limit := c.room.Config.RoundTimeLimit; limit > 0 {
		c.timers.Arm(TimerRound, seconds(limit))
	}
}

// callBasta moves playing -> basta_called. The caller holds the basta lock.
func (c *Controller) callBasta(playerID, playerName string, grace int) {
	c.room.BastaCalledBy = playerID
	c.room.BastaCalledName = playerName
	c.room.BastaCalledAt = c.clock.Now()
	c.timers.Cancel(TimerRound)
	c.setPhase(internal.PhaseBastaCalled)

	c.log.Info().Str("player", playerID).Str("username", playerName).Int("grace", grace).Msg("[callBasta] basta called")
	c.broadcast(internal.Message[internal.BastaCalledData]{
		Type: internal.MsgBastaCalled,
		Data: internal.BastaCalledData{
			PlayerID:     playerID,
			PlayerName:   playerName,
			GraceSeconds: grace,
		},
	})

	if grace > 0 {
		c.timers.Arm(TimerGrace, seconds(grace))
		return
	}
	c.endRound()
}

// handleRoundTimeout is a basta called by the round timer, with no grace.
func (c *Controller) handleRoundTimeout() {
	if c.room.BastaInProgress {
		return
	}
	c.room.BastaInProgress = true
	c.callBasta(internal.SystemPlayerID, internal.SystemPlayerName, 0)
}

// endRound closes answering and opens voting.
func (c *Controller) endRound() {
	c.timers.Cancel(TimerRound)
	c.timers.Cancel(TimerGrace)
	c.room.BastaInProgress = false

	c.broadcast(internal.Message[internal.RoundEndedData]{
		Type: internal.MsgRoundEnded,
		Data: internal.RoundEndedData{Round: c.room.RoundNumber},
	})

	c.setPhase(internal.PhaseVoting)
	InitializeVoting(c.room, c.clock.Now())

	limit := c.room.Config.VotingTimeLimit
	c.broadcast(internal.Message[internal.VotingStartedData]{
		Type: internal.MsgVotingStarted,
		Data: internal.VotingStartedData{
			Answers:   AllAnswersForVoting(c.room),
			TimeLimit: limit,
		},
	})
	if limit > 0 {
		c.timers.Arm(TimerVoting, seconds(limit))
	}
}

// finishVoting tallies the ledger. Flagged answers keep the room in voting
// until the host has decided every one of them.
func (c *Controller) finishVoting() {
	c.timers.Cancel(TimerVoting)

	results := CalculateVotingResults(c.room, c.marker)
	if !IsVotingComplete(results) {
		c.room.PendingResults = &results
		c.log.Info().Msg("[finishVoting] waiting on host tie-breaks")
		c.broadcast(internal.Message[internal.VotingEndedData]{
			Type: internal.MsgVotingEnded,
			Data: internal.VotingEndedData{Results: results},
		})
		return
	}
	c.processVotingResults(results)
}

func (c *Controller) processVotingResults(results internal.VotingResults) {
	c.room.PendingResults = nil
	c.setPhase(internal.PhaseResults)

	roundResults := CalculateScores(c.room, results)
	c.broadcast(internal.Message[internal.RoundResultsData]{
		Type: internal.MsgRoundResults,
		Data: internal.RoundResultsData{Results: roundResults},
	})

	c.ending = ShouldGameEnd(c.room)
	if c.ending {
		c.timers.Arm(TimerResults, c.settings.GameOverDelay)
		return
	}
	c.timers.Arm(TimerResults, c.settings.ResultsDelay)
}

func (c *Controller) afterResults() {
	if c.ending {
		c.endGame()
		return
	}
	c.startReadyCheck()
}

func (c *Controller) startReadyCheck() {
	c.room.PrepareForNewRound()
	c.setPhase(internal.PhaseReadyCheck)

	limit := c.room.Config.TimeBetweenRounds
	c.broadcast(internal.Message[internal.ReadyCheckStartedData]{
		Type: internal.MsgReadyCheckStarted,
		Data: internal.ReadyCheckStartedData{TimeLimit: limit},
	})
	if limit > 0 {
		c.timers.Arm(TimerReadyCheck, seconds(limit))
	}
}

func (c *Controller) endGame() {
	for _, name := range []TimerName{TimerCountdown, TimerRound, TimerGrace, TimerVoting, TimerReadyCheck, TimerResults} {
		c.timers.Cancel(name)
	}
	c.ending = false
	c.setPhase(internal.PhaseGameOver)

	final := CalculateFinalResults(c.room)
	c.log.Info().Int("rounds", final.RoundsPlayed).Int("players", final.TotalPlayers).Msg("[endGame] game over")
	c.broadcast(internal.Message[internal.GameOverData]{
		Type: internal.MsgGameOver,
		Data: internal.GameOverData{Results: final},
	})
	c.observer.GameFinished(c.room.Id, final)

	if c.settings.LobbyReturnDelay > 0 {
		c.timers.Arm(TimerLobbyReturn, c.settings.LobbyReturnDelay)
	}
}

// returnToLobby seats the connected players in a fresh lobby after a game.
func (c *Controller) returnToLobby() {
	for _, p := range c.room.PlayersInOrder() {
		if !p.IsConnected {
			c.removePlayer(p)
		}
	}
	c.room.ReturnToLobby()
	c.setPhase(internal.PhaseLobby)
	c.broadcastRoomState()
}

// resetRoom discards everything once no connected player is left mid-game.
func (c *Controller) resetRoom() {
	c.log.Info().Str("phase", string(c.room.Phase)).Msg("[resetRoom] no connected players left, resetting")
	c.timers.CancelAll()
	c.ending = false
	c.setPhase(internal.PhaseLobby)
	c.room.Reset(c.clock.Now())
}
