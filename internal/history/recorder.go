package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/basta-backend/internal"
)

type GameSaver interface {
	SaveGame(ctx context.Context, roomCode string, results internal.FinalResults, finishedAt time.Time) (int64, error)
}

// Recorder archives every finished game off the room goroutine.
type Recorder struct {
	saver   GameSaver
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewRecorder(saver GameSaver, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{saver: saver, timeout: timeout, now: time.Now}
}

func (r *Recorder) PhaseChanged(string, internal.GamePhase, internal.GamePhase) {}

func (r *Recorder) GameFinished(roomID string, results internal.FinalResults) {
	if len(results.Leaderboard) == 0 {
		return
	}
	finishedAt := r.now()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		id, err := r.saver.SaveGame(ctx, roomID, results, finishedAt)
		if err != nil {
			log.Error().Err(err).Str("room", roomID).Msg("[Recorder] failed to archive game")
			return
		}
		log.Info().Str("room", roomID).Int64("game", id).Msg("[Recorder] game archived")
	}()
}

// Wait blocks until pending saves finish.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
