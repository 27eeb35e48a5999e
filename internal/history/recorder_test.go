package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/scythe504/basta-backend/internal"
)

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) SaveGame(ctx context.Context, roomCode string, results internal.FinalResults, finishedAt time.Time) (int64, error) {
	args := m.Called(ctx, roomCode, results, finishedAt)
	return args.Get(0).(int64), args.Error(1)
}

func oneWinner() internal.FinalResults {
	winner := internal.GameResultData{PlayerID: "p1", Username: "Ana", Score: 100, Position: 1}
	return internal.FinalResults{
		Leaderboard:  []internal.GameResultData{winner},
		Winner:       &winner,
		RoundsPlayed: 1,
		TotalPlayers: 1,
	}
}

func TestRecorderSavesFinishedGames(t *testing.T) {
	saver := &mockSaver{}
	finishedAt := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	results := oneWinner()
	saver.On("SaveGame", mock.Anything, "ROOM22", results, finishedAt).Return(int64(1), nil).Once()
	saver.On("SaveGame", mock.Anything, "ROOM33", results, finishedAt).Return(int64(2), nil).Once()

	rec := NewRecorder(saver, time.Second)
	rec.now = func() time.Time { return finishedAt }

	rec.GameFinished("ROOM22", results)
	rec.GameFinished("ROOM33", results)
	rec.Wait()

	saver.AssertExpectations(t)
}

func TestRecorderPassesDeadline(t *testing.T) {
	saver := &mockSaver{}
	saver.On("SaveGame", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "ROOM22", mock.Anything, mock.Anything).Return(int64(1), nil).Once()

	rec := NewRecorder(saver, 0)
	assert.Equal(t, 5*time.Second, rec.timeout)

	rec.GameFinished("ROOM22", oneWinner())
	rec.Wait()

	saver.AssertExpectations(t)
}

func TestRecorderSkipsEmptyGames(t *testing.T) {
	saver := &mockSaver{}
	rec := NewRecorder(saver, time.Second)

	rec.GameFinished("ROOM22", internal.FinalResults{})
	rec.Wait()

	saver.AssertNotCalled(t, "SaveGame", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecorderSurvivesSaveErrors(t *testing.T) {
	saver := &mockSaver{}
	saver.On("SaveGame", mock.Anything, "ROOM22", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("connection refused")).Once()
	rec := NewRecorder(saver, time.Second)

	assert.NotPanics(t, func() {
		rec.GameFinished("ROOM22", oneWinner())
		rec.Wait()
	})
	saver.AssertExpectations(t)
}
