// Package metrics exposes Prometheus instrumentation for games, recommendations and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GamesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmatch_games_started_total",
			Help: "Preference games started, by mode",
		},
		[]string{"mode"},
	)

	GamesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmatch_games_finished_total",
			Help: "Preference games that ended, by mode and outcome (completed, cancelled, timed_out)",
		},
		[]string{"mode", "outcome"},
	)

	GameDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookmatch_game_duration_seconds",
			Help:    "Time from start to completion of a preference game",
			Buckets: []float64{30, 60, 120, 180, 240, 300, 450, 600},
		},
		[]string{"mode"},
	)

	Comparisons = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookmatch_comparisons_total",
			Help: "Pairwise comparisons recorded",
		},
	)

	SelectionToggles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookmatch_selection_toggles_total",
			Help: "Grid selection changes",
		},
	)

	ActiveGames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookmatch_active_games",
			Help: "Preference games currently being played",
		},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmatch_recommendations_total",
			Help: "Recommendation lists produced, by kind (individual, shared)",
		},
		[]string{"kind"},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookmatch_stream_clients",
			Help: "Connected server-sent-event clients",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookmatch_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookmatch_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Game outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeTimedOut  = "timed_out"
)

// RecordGameStarted counts a started game
func RecordGameStarted(mode string) {
	GamesStarted.WithLabelValues(mode).Inc()
	ActiveGames.Inc()
}

// RecordGameFinished counts a game leaving play. Only completed games observe a duration.
func RecordGameFinished(mode, outcome string, elapsed time.Duration) {
	GamesFinished.WithLabelValues(mode, outcome).Inc()
	if outcome != OutcomeTimedOut {
		ActiveGames.Dec()
	}
	if outcome == OutcomeCompleted {
		GameDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

// RecordAPIRequest observes one HTTP request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
