package game

import (
	"cmp"
	"slices"
	"strings"

	"github.com/scythe504/basta-backend/internal"
	"github.com/scythe504/basta-backend/internal/utils"
)

// DuplicateAnswers groups normalized answers per category that two or more
// connected players gave. Only non-empty answers starting with the round
// letter take part.
func DuplicateAnswers(room *internal.Room) map[string][]string {
	duplicates := make(map[string][]string)
	connected := room.ConnectedPlayers()

	for _, category := range room.Config.Categories {
		groups := make(map[string]int)
		var order []string
		for _, player := range connected {
			answer := room.AnswerOf(player.Id, category)
			if strings.TrimSpace(answer) == "" || !utils.StartsWithLetter(answer, room.CurrentLetter) {
				continue
			}
			normalized := utils.NormalizeAnswer(answer)
			if groups[normalized] == 0 {
				order = append(order, normalized)
			}
			groups[normalized]++
		}

		for _, normalized := range order {
			if groups[normalized] > 1 {
				duplicates[category] = append(duplicates[category], normalized)
			}
		}
	}
	return duplicates
}

// CalculateScores turns voting results into points and adds each connected
// player's round total to their score. Scores are sorted by round total,
// highest first, ties kept in join order.
func CalculateScores(room *internal.Room, votingResults internal.VotingResults) internal.RoundResults {
	duplicates := DuplicateAnswers(room)
	connected := room.ConnectedPlayers()
	playerScores := make([]internal.PlayerRoundScore, 0, len(connected))

	for _, player := range connected {
		categoryScores := make(map[string]int, len(room.Config.Categories))
		roundTotal := 0

		for _, category := range room.Config.Categories {
			answer := room.AnswerOf(player.Id, category)
			score := internal.ScoreInvalid

			if isValidAnswer(votingResults, category, player.Id) && strings.TrimSpace(answer) != "" {
				if slices.Contains(duplicates[category], utils.NormalizeAnswer(answer)) {
					score = internal.ScoreDuplicate
				} else {
					score = internal.ScoreUnique
				}
			}

			categoryScores[category] = score
			roundTotal += score
		}

		player.Score += roundTotal
		playerScores = append(playerScores, internal.PlayerRoundScore{
			PlayerId:       player.Id,
			Username:       player.Username,
			CategoryScores: categoryScores,
			RoundTotal:     roundTotal,
			TotalScore:     player.Score,
		})
	}

	slices.SortStableFunc(playerScores, func(a, b internal.PlayerRoundScore) int {
		return cmp.Compare(b.RoundTotal, a.RoundTotal)
	})

	return internal.RoundResults{
		Round:            room.RoundNumber,
		Letter:           room.CurrentLetter,
		PlayerScores:     playerScores,
		DuplicateAnswers: duplicates,
		VotingResults:    votingResults,
	}
}

func isValidAnswer(results internal.VotingResults, category, playerID string) bool {
	for _, r := range results.Results[category] {
		if r.PlayerId == playerID {
			return r.IsValid
		}
	}
	return false
}

// ShouldGameEnd checks the configured victory condition.
func ShouldGameEnd(room *internal.Room) bool {
	switch room.Config.VictoryMode {
	case internal.VictoryPoints:
		for _, player := range room.ConnectedPlayers() {
			if player.Score >= room.Config.VictoryValue {
				return true
			}
		}
		return false
	default:
		return room.RoundNumber >= room.Config.VictoryValue
	}
}

// CalculateFinalResults ranks connected players by score.
func CalculateFinalResults(room *internal.Room) internal.FinalResults {
	connected := room.ConnectedPlayers()
	playerData := make([]internal.GameResultData, 0, len(connected))
	for _, player := range connected {
		playerData = append(playerData, internal.GameResultData{
			PlayerID: player.Id,
			Username: player.Username,
			Score:    player.Score,
		})
	}

	slices.SortStableFunc(playerData, func(a, b internal.GameResultData) int {
		return cmp.Compare(b.Score, a.Score)
	})
	for idx := range playerData {
		playerData[idx].Position = idx + 1
	}

	results := internal.FinalResults{
		Leaderboard:  playerData,
		RoundsPlayed: room.RoundNumber,
		TotalPlayers: len(playerData),
	}
	if len(playerData) > 0 {
		winner := playerData[0]
		results.Winner = &winner
	}
	return results
}
