// Package metrics exposes Prometheus counters for the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface used by the session layer.
type Recorder interface {
	GameStarted()
	GuessAccepted(bulls int)
	GuessRejected(code string)
	GameWon(attempts int)
	GameLost()
	SinkFailed()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	gamesStarted  prometheus.Counter
	guesses       *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	wins          prometheus.Counter
	losses        prometheus.Counter
	attemptsToWin prometheus.Histogram
	sinkFailures  prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cowsbulls_games_started_total",
			Help: "Daily games started.",
		}),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cowsbulls_guesses_total",
			Help: "Accepted guesses by number of bulls.",
		}, []string{"bulls"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cowsbulls_guesses_rejected_total",
			Help: "Rejected guesses by reason.",
		}, []string{"reason"}),
		wins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cowsbulls_wins_total",
			Help: "Daily games won.",
		}),
		losses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cowsbulls_losses_total",
			Help: "Daily games that ran out of attempts.",
		}),
		attemptsToWin: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cowsbulls_attempts_to_win",
			Help:    "Attempts needed to find the daily number.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cowsbulls_result_sink_failures_total",
			Help: "Finished games whose result could not be recorded.",
		}),
	}
	reg.MustRegister(c.gamesStarted, c.guesses, c.rejected, c.wins, c.losses, c.attemptsToWin, c.sinkFailures)
	return c
}

func (c *Collector) GameStarted() { c.gamesStarted.Inc() }

func (c *Collector) GuessAccepted(bulls int) {
	c.guesses.WithLabelValues(bullsLabel(bulls)).Inc()
}

func (c *Collector) GuessRejected(code string) { c.rejected.WithLabelValues(code).Inc() }

func (c *Collector) GameWon(attempts int) {
	c.wins.Inc()
	c.attemptsToWin.Observe(float64(attempts))
}

func (c *Collector) GameLost() { c.losses.Inc() }

func (c *Collector) SinkFailed() { c.sinkFailures.Inc() }

func bullsLabel(b int) string {
	switch b {
	case 0:
		return "0"
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return "3"
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) GameStarted()         {}
func (Nop) GuessAccepted(int)    {}
func (Nop) GuessRejected(string) {}
func (Nop) GameWon(int)          {}
func (Nop) GameLost()            {}
func (Nop) SinkFailed()          {}
