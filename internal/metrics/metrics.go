package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scythe504/basta-backend/internal"
)

// Collector exposes room activity to Prometheus. It is a game.Observer.
type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	games       prometheus.Counter
	rounds      prometheus.Histogram
}

// New registers the collectors on a fresh registry. rooms and conns report
// the live room and connection counts at scrape time.
func New(rooms, conns func() int) *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "basta",
			Name:      "phase_transitions_total",
			Help:      "Room phase transitions by target phase.",
		}, []string{"phase"}),
		games: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "basta",
			Name:      "games_finished_total",
			Help:      "Games that reached game over.",
		}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "basta",
			Name:      "game_rounds",
			Help:      "Rounds played per finished game.",
			Buckets:   []float64{1, 3, 5, 10, 15, 20, 30},
		}),
	}

	reg.MustRegister(c.transitions, c.games, c.rounds)
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	if rooms != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "basta",
			Name:      "rooms_active",
			Help:      "Live rooms.",
		}, func() float64 { return float64(rooms()) }))
	}
	if conns != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "basta",
			Name:      "connections_active",
			Help:      "Open websocket connections.",
		}, func() float64 { return float64(conns()) }))
	}
	return c
}

func (c *Collector) PhaseChanged(roomID string, from, to internal.GamePhase) {
	c.transitions.WithLabelValues(string(to)).Inc()
}

func (c *Collector) GameFinished(roomID string, results internal.FinalResults) {
	c.games.Inc()
	c.rounds.Observe(float64(results.RoundsPlayed))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
