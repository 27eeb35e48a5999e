package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/basta-backend/internal"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPhaseTransitionsAreCounted(t *testing.T) {
	c := New(nil, nil)

	c.PhaseChanged("ROOM22", internal.PhaseLobby, internal.PhaseCountdown)
	c.PhaseChanged("ROOM22", internal.PhaseCountdown, internal.PhasePlaying)
	c.PhaseChanged("ROOM33", internal.PhaseLobby, internal.PhaseCountdown)

	body := scrape(t, c)
	assert.Contains(t, body, `basta_phase_transitions_total{phase="countdown"} 2`)
	assert.Contains(t, body, `basta_phase_transitions_total{phase="playing"} 1`)
}

func TestGameFinishedIsCounted(t *testing.T) {
	c := New(nil, nil)

	c.GameFinished("ROOM22", internal.FinalResults{RoundsPlayed: 5})

	body := scrape(t, c)
	assert.Contains(t, body, "basta_games_finished_total 1")
	assert.Contains(t, body, "basta_game_rounds_count 1")
}

func TestHandlerExposesGauges(t *testing.T) {
	c := New(func() int { return 3 }, func() int { return 7 })

	body := scrape(t, c)
	assert.Contains(t, body, "basta_rooms_active 3")
	assert.Contains(t, body, "basta_connections_active 7")
}
