package game

import (
	"slices"
	"unicode/utf8"

	"github.com/scythe504/basta-backend/internal"
)

const maxReactionLength = 32

// =============================================================================
// ANSWERS, BASTA AND VOTING
// =============================================================================

func answeringOpen(phase internal.GamePhase) bool {
	return phase == internal.PhasePlaying || phase == internal.PhaseBastaCalled
}

func (c *Controller) handleSubmitAnswers(player *internal.Player, a internal.SubmitAnswersAction) error {
	if !answeringOpen(c.room.Phase) {
		return internal.ErrInvalidPhase
	}
	filled, err := c.room.SubmitAnswers(player.Id, a.Answers, c.clock.Now())
	if err != nil {
		return err
	}
	c.broadcastProgress(player.Id, filled)
	return nil
}

func (c *Controller) handleUpdateAnswer(player *internal.Player, a internal.UpdateAnswerAction) error {
	if !answeringOpen(c.room.Phase) {
		return internal.ErrInvalidPhase
	}
	filled, err := c.room.UpdateAnswer(player.Id, a.Category, a.Answer, c.clock.Now())
	if err != nil {
		return err
	}
	c.broadcastProgress(player.Id, filled)
	return nil
}

func (c *Controller) broadcastProgress(playerID string, filled int) {
	if !c.room.Config.ShowOthersProgress {
		return
	}
	c.broadcast(internal.Message[internal.PlayerProgressData]{
		Type: internal.MsgPlayerProgress,
		Data: internal.PlayerProgressData{PlayerID: playerID, FilledCount: filled},
	})
}

// handleCallBasta ends the round for the first caller only. Later calls,
// and calls outside playing, are dropped without a reply.
func (c *Controller) handleCallBasta(player *internal.Player) error {
	if c.room.Phase != internal.PhasePlaying || c.room.BastaInProgress {
		return nil
	}
	c.room.BastaInProgress = true
	c.callBasta(player.Id, player.Username, c.room.Config.BastaGraceSeconds)
	return nil
}

func (c *Controller) handleVote(player *internal.Player, a internal.VoteAction) error {
	if c.room.Phase != internal.PhaseVoting || c.room.PendingResults != nil {
		return internal.ErrInvalidPhase
	}
	if err := RecordVote(c.room, player.Id, a.Category, a.TargetPlayerId, *a.Valid); err != nil {
		return err
	}

	tally := VoteCount(c.room, a.Category, a.TargetPlayerId)
	c.broadcast(internal.Message[internal.VoteReceivedData]{
		Type: internal.MsgVoteReceived,
		Data: internal.VoteReceivedData{
			Category:       a.Category,
			TargetPlayerID: a.TargetPlayerId,
			VotesCount:     tally.ValidVotes + tally.InvalidVotes,
			TotalVoters:    tally.TotalVoters,
		},
	})
	return nil
}

func (c *Controller) handleVotingReady(player *internal.Player) error {
	if c.room.Phase != internal.PhaseVoting || c.room.PendingResults != nil {
		return nil
	}

	c.room.VotingReady[player.Id] = true

	connected := c.room.ConnectedPlayers()
	ready := 0
	for _, p := range connected {
		if c.room.VotingReady[p.Id] {
			ready++
		}
	}
	c.broadcast(internal.Message[internal.PlayerVotingReadyData]{
		Type: internal.MsgPlayerVotingReady,
		Data: internal.PlayerVotingReadyData{
			PlayerID:     player.Id,
			ReadyCount:   ready,
			TotalPlayers: len(connected),
		},
	})

	if c.room.AllVotingReady() {
		FillMissingVotesAsValid(c.room)
		c.finishVoting()
	}
	return nil
}

func (c *Controller) handleHostDecideTie(player *internal.Player, a internal.HostDecideTieAction) error {
	if !c.room.IsHost(player.Id) {
		return internal.ErrNotHost
	}
	pending := c.room.PendingResults
	if c.room.Phase != internal.PhaseVoting || pending == nil {
		return internal.ErrInvalidPhase
	}
	if !ApplyTieBreaker(pending, a.Category, a.TargetPlayerId, *a.Valid) {
		return internal.NewGameError(internal.CodeInvalidMessage, "No pending tie for that answer")
	}

	if IsVotingComplete(*pending) {
		c.processVotingResults(*pending)
		return nil
	}
	c.broadcast(internal.Message[internal.VotingEndedData]{
		Type: internal.MsgVotingEnded,
		Data: internal.VotingEndedData{Results: *pending},
	})
	return nil
}

// handleReact toggles a reaction on an answer during voting.
func (c *Controller) handleReact(player *internal.Player, a internal.ReactAction) error {
	if c.room.Phase != internal.PhaseVoting {
		return nil
	}
	if utf8.RuneCountInString(a.Reaction) > maxReactionLength {
		return internal.NewGameError(internal.CodeInvalidMessage, "Reaction too long")
	}
	if _, ok := c.room.Players[a.TargetPlayerId]; !ok {
		return nil
	}
	if !slices.Contains(c.room.Config.Categories, a.Category) {
		return nil
	}

	reactions := c.room.ToggleReaction(player.Id, a.Category, a.TargetPlayerId, a.Reaction)
	c.broadcast(internal.Message[internal.ReactionReceivedData]{
		Type: internal.MsgReactionReceived,
		Data: internal.ReactionReceivedData{
			Category:       a.Category,
			TargetPlayerID: a.TargetPlayerId,
			Reactions:      reactions,
		},
	})
	return nil
}
