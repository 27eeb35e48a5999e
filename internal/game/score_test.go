package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/basta-backend/internal"
)

func submit(t *testing.T, room *internal.Room, playerID string, answers map[string]string) {
	t.Helper()
	_, err := room.SubmitAnswers(playerID, answers, testNow)
	require.NoError(t, err)
}

func TestDuplicateAnswers(t *testing.T) {
	room := votingRoom(t, 3, "P")
	submit(t, room, "p1", map[string]string{"animal": "Perro", "color": "Púrpura"})
	submit(t, room, "p2", map[string]string{"animal": "perro ", "color": "Purpura", "fruit": "Manzana"})
	submit(t, room, "p3", map[string]string{"animal": "Pato", "fruit": "manzana"})

	got := DuplicateAnswers(room)

	want := map[string][]string{
		"animal": {"perro"},
		"color":  {"purpura"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DuplicateAnswers() mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateScores(t *testing.T) {
	room := votingRoom(t, 3, "P")
	room.Players["p2"].Score = 1000
	submit(t, room, "p1", map[string]string{"animal": "Perro", "color": "Púrpura", "fruit": "Pera"})
	submit(t, room, "p2", map[string]string{"animal": "perro ", "color": "Plata", "fruit": "Manzana"})
	submit(t, room, "p3", map[string]string{"animal": "Pato", "color": "", "fruit": "Piña"})

	results := CalculateScores(room, CalculateVotingResults(room, nil))

	want := []internal.PlayerRoundScore{
		{
			PlayerId: "p1", Username: "Player1",
			CategoryScores: map[string]int{"animal": 50, "color": 100, "fruit": 100, "city": 0, "thing": 0},
			RoundTotal:     250, TotalScore: 250,
		},
		{
			PlayerId: "p3", Username: "Player3",
			CategoryScores: map[string]int{"animal": 100, "color": 0, "fruit": 100, "city": 0, "thing": 0},
			RoundTotal:     200, TotalScore: 200,
		},
		{
			PlayerId: "p2", Username: "Player2",
			CategoryScores: map[string]int{"animal": 50, "color": 100, "fruit": 0, "city": 0, "thing": 0},
			RoundTotal:     150, TotalScore: 1150,
		},
	}
	if diff := cmp.Diff(want, results.PlayerScores); diff != "" {
		t.Errorf("PlayerScores mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, results.Round)
	assert.Equal(t, "P", results.Letter)
	assert.Equal(t, 1150, room.Players["p2"].Score)
}

func TestCalculateScoresVotedInvalidScoresZero(t *testing.T) {
	room := votingRoom(t, 4, "P")
	submit(t, room, "p1", map[string]string{"animal": "Perro"})
	submit(t, room, "p2", map[string]string{"animal": "Perro"})
	for _, voter := range []string{"p2", "p3", "p4"} {
		require.NoError(t, RecordVote(room, voter, "animal", "p1", false))
	}

	results := CalculateScores(room, CalculateVotingResults(room, nil))

	assert.Equal(t, 0, scoreOf(results, "p1", "animal"))
	assert.Equal(t, 50, scoreOf(results, "p2", "animal"), "an invalidated duplicate still halves the other answer")
}

func TestCalculateScoresTiesKeepJoinOrder(t *testing.T) {
	room := votingRoom(t, 3, "P")

	results := CalculateScores(room, CalculateVotingResults(room, nil))

	var order []string
	for _, s := range results.PlayerScores {
		order = append(order, s.PlayerId)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, order)
}

func TestShouldGameEnd(t *testing.T) {
	t.Run("rounds", func(t *testing.T) {
		room := votingRoom(t, 2, "P")
		room.Config.VictoryMode = internal.VictoryRounds
		room.Config.VictoryValue = 2
		assert.False(t, ShouldGameEnd(room))

		room.InitializeRound("Q", testNow)
		assert.True(t, ShouldGameEnd(room))
	})

	t.Run("points", func(t *testing.T) {
		room := votingRoom(t, 3, "P")
		room.Config.VictoryMode = internal.VictoryPoints
		room.Config.VictoryValue = 500
		room.Players["p3"].Score = 900
		room.DisconnectPlayer("p3", testNow)
		assert.False(t, ShouldGameEnd(room), "disconnected players do not count")

		room.Players["p1"].Score = 500
		assert.True(t, ShouldGameEnd(room))
	})
}

func TestCalculateFinalResults(t *testing.T) {
	room := votingRoom(t, 4, "P")
	room.Players["p1"].Score = 300
	room.Players["p2"].Score = 450
	room.Players["p3"].Score = 300
	room.Players["p4"].Score = 999
	room.DisconnectPlayer("p4", testNow)

	got := CalculateFinalResults(room)

	want := internal.FinalResults{
		Leaderboard: []internal.GameResultData{
			{PlayerID: "p2", Username: "Player2", Score: 450, Position: 1},
			{PlayerID: "p1", Username: "Player1", Score: 300, Position: 2},
			{PlayerID: "p3", Username: "Player3", Score: 300, Position: 3},
		},
		Winner:       &internal.GameResultData{PlayerID: "p2", Username: "Player2", Score: 450, Position: 1},
		RoundsPlayed: 1,
		TotalPlayers: 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateFinalResults() mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateFinalResultsEmptyRoom(t *testing.T) {
	room := internal.NewRoom("ROOM22", testNow)

	got := CalculateFinalResults(room)

	assert.Empty(t, got.Leaderboard)
	assert.Nil(t, got.Winner)
	assert.Zero(t, got.TotalPlayers)
}
