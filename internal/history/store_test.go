package history_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scythe504/basta-backend/internal"
	"github.com/scythe504/basta-backend/internal/history"
)

func startStore(t *testing.T) *history.Store {
	t.Helper()
	if testing.Short() || os.Getenv("SKIP_DOCKER_TESTS") != "" {
		t.Skip("skipping PostgreSQL container test")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("basta"),
		postgres.WithUsername("basta"),
		postgres.WithPassword("basta"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := history.NewStore(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate(ctx))
	return store
}

func sampleResults(winner string, rounds int) internal.FinalResults {
	board := []internal.GameResultData{
		{PlayerID: "p1", Username: winner, Score: 300, Position: 1},
		{PlayerID: "p2", Username: "Luis", Score: 150, Position: 2},
	}
	return internal.FinalResults{
		Leaderboard:  board,
		Winner:       &board[0],
		RoundsPlayed: rounds,
		TotalPlayers: len(board),
	}
}

func TestStore(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("SaveGame", func(t *testing.T) {
		id, err := store.SaveGame(ctx, "ABC234", sampleResults("Ana", 5), base)
		assert.NoError(t, err)
		assert.NotZero(t, id)
	})

	t.Run("SaveGame_Empty", func(t *testing.T) {
		_, err := store.SaveGame(ctx, "ABC234", internal.FinalResults{}, base)
		assert.ErrorIs(t, err, history.ErrEmptyResults)
	})

	t.Run("Migrate_Twice", func(t *testing.T) {
		assert.NoError(t, store.Migrate(ctx))
	})

	t.Run("ListGames_NewestFirst", func(t *testing.T) {
		_, err := store.SaveGame(ctx, "XYZ789", sampleResults("Marta", 10), base.Add(time.Hour))
		require.NoError(t, err)

		games, err := store.ListGames(ctx, 10)
		require.NoError(t, err)
		require.Len(t, games, 2)

		assert.Equal(t, "XYZ789", games[0].RoomCode)
		assert.Equal(t, "Marta", games[0].WinnerName)
		assert.Equal(t, 10, games[0].RoundsPlayed)
		require.Len(t, games[0].Leaderboard, 2)
		assert.Equal(t, 1, games[0].Leaderboard[0].Position)
		assert.Equal(t, "Marta", games[0].Leaderboard[0].Username)
		assert.Equal(t, "ABC234", games[1].RoomCode)
	})

	t.Run("ListGames_Limit", func(t *testing.T) {
		games, err := store.ListGames(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, games, 1)
	})
}
