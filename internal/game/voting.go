package game

import (
	"strings"
	"time"

	"github.com/scythe504/basta-backend/internal"
	"github.com/scythe504/basta-backend/internal/utils"
)

// TieBreakMarker lets an operator flag structurally valid answers for host
// adjudication after the tally. With no marker installed nothing is flagged
// and the majority rule alone decides.
type TieBreakMarker func(result internal.AnswerVotingResult) bool

type VoteTally struct {
	ValidVotes   int `json:"valid_votes"`
	InvalidVotes int `json:"invalid_votes"`
	TotalVoters  int `json:"total_voters"`
}

// InitializeVoting opens an empty ledger for every category and player.
func InitializeVoting(room *internal.Room, now time.Time) {
	room.Votes = make(internal.VoteLedger, len(room.Config.Categories))
	room.VotingReady = make(map[string]bool)
	room.PendingResults = nil
	room.VotingStartedAt = now

	for _, category := range room.Config.Categories {
		targets := make(map[string][]internal.Vote, len(room.Players))
		for id := range room.Players {
			targets[id] = []internal.Vote{}
		}
		room.Votes[category] = targets
	}
}

// RecordVote appends a vote. On error the ledger is untouched.
func RecordVote(room *internal.Room, voterID, category, targetID string, valid bool) error {
	targets, ok := room.Votes[category]
	if !ok {
		return internal.NewGameError(internal.CodeInvalidMessage, "Unknown category %q", category)
	}
	votes, ok := targets[targetID]
	if !ok {
		return internal.ErrPlayerNotFound
	}
	if voterID == targetID {
		return internal.ErrCannotVoteSelf
	}
	for _, v := range votes {
		if v.VoterId == voterID {
			return internal.ErrAlreadyVoted
		}
	}

	targets[targetID] = append(votes, internal.Vote{VoterId: voterID, IsValid: valid})
	return nil
}

func VoteCount(room *internal.Room, category, targetID string) VoteTally {
	tally := VoteTally{TotalVoters: eligibleVoters(room, targetID)}
	for _, v := range room.Votes[category][targetID] {
		if v.IsValid {
			tally.ValidVotes++
		} else {
			tally.InvalidVotes++
		}
	}
	return tally
}

// eligibleVoters is every connected player except the target.
func eligibleVoters(room *internal.Room, targetID string) int {
	n := 0
	for id, p := range room.Players {
		if p.IsConnected && id != targetID {
			n++
		}
	}
	return n
}

// CalculateVotingResults tallies every connected player's answer per
// category. Empty answers and answers not starting with the round letter are
// invalid; otherwise an answer is invalid only when invalid votes exceed half
// of the eligible voters, so an even split stays valid.
func CalculateVotingResults(room *internal.Room, marker TieBreakMarker) internal.VotingResults {
	results := internal.VotingResults{
		Categories: append([]string(nil), room.Config.Categories...),
		Results:    make(map[string][]internal.AnswerVotingResult, len(room.Config.Categories)),
	}
	connected := room.ConnectedPlayers()

	for _, category := range room.Config.Categories {
		categoryResults := make([]internal.AnswerVotingResult, 0, len(connected))
		for _, player := range connected {
			answer := room.AnswerOf(player.Id, category)
			tally := VoteCount(room, category, player.Id)

			result := internal.AnswerVotingResult{
				Category:       category,
				PlayerId:       player.Id,
				Username:       player.Username,
				Answer:         answer,
				ValidVotes:     tally.ValidVotes,
				InvalidVotes:   tally.InvalidVotes,
				EligibleVoters: tally.TotalVoters,
				IsValid:        true,
			}
			switch {
			case strings.TrimSpace(answer) == "":
				result.IsValid = false
			case !utils.StartsWithLetter(answer, room.CurrentLetter):
				result.IsValid = false
			case 2*tally.InvalidVotes > tally.TotalVoters:
				result.IsValid = false
			}
			if marker != nil && strings.TrimSpace(answer) != "" && utils.StartsWithLetter(answer, room.CurrentLetter) {
				result.NeedsTieBreaker = marker(result)
			}
			categoryResults = append(categoryResults, result)
		}
		results.Results[category] = categoryResults
	}
	return results
}

// ApplyTieBreaker records the host's decision on a flagged answer. Answers
// that are not flagged are left alone and false is returned.
func ApplyTieBreaker(results *internal.VotingResults, category, targetID string, valid bool) bool {
	categoryResults := results.Results[category]
	for i := range categoryResults {
		r := &categoryResults[i]
		if r.PlayerId != targetID || !r.NeedsTieBreaker {
			continue
		}
		r.IsValid = valid
		r.NeedsTieBreaker = false
		r.TieBreakDecision = &valid
		return true
	}
	return false
}

// IsVotingComplete is true when no answer still waits on the host.
func IsVotingComplete(results internal.VotingResults) bool {
	for _, categoryResults := range results.Results {
		for _, r := range categoryResults {
			if r.NeedsTieBreaker {
				return false
			}
		}
	}
	return true
}

// AllAnswersForVoting returns connected players' answers keyed by player id.
func AllAnswersForVoting(room *internal.Room) map[string]internal.VotingAnswers {
	all := make(map[string]internal.VotingAnswers)
	for _, player := range room.ConnectedPlayers() {
		answers := make(map[string]string)
		if entry, ok := room.Answers[player.Id]; ok {
			for category, answer := range entry.Answers {
				answers[category] = answer
			}
		}
		all[player.Id] = internal.VotingAnswers{
			Username: player.Username,
			Answers:  answers,
		}
	}
	return all
}

// FillMissingVotesAsValid records a valid vote for every eligible voter who
// has not voted on a connected player's answer.
func FillMissingVotesAsValid(room *internal.Room) {
	connected := room.ConnectedPlayers()
	for _, category := range room.Config.Categories {
		targets, ok := room.Votes[category]
		if !ok {
			targets = make(map[string][]internal.Vote)
			room.Votes[category] = targets
		}

		for _, target := range connected {
			votes := targets[target.Id]
			for _, voter := range connected {
				if voter.Id == target.Id || hasVoted(votes, voter.Id) {
					continue
				}
				votes = append(votes, internal.Vote{VoterId: voter.Id, IsValid: true})
			}
			targets[target.Id] = votes
		}
	}
}

func hasVoted(votes []internal.Vote, voterID string) bool {
	for _, v := range votes {
		if v.VoterId == voterID {
			return true
		}
	}
	return false
}
