// Package metrics holds the Prometheus instrumentation of the matching engine,
// the finalize transaction and notification delivery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Finalize outcomes.
const (
	FinalizeCommitted        = "committed"
	FinalizeAlreadyFinalized = "already_finalized"
	FinalizeVotingOpen       = "voting_open"
	FinalizeInvalid          = "invalid"
	FinalizeError            = "error"
)

var (
	// Matcher Metrics
	MatcherRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roulette_matcher_run_duration_seconds",
			Help:    "Wall time of one Monte Carlo matcher run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	MatcherIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roulette_matcher_iterations",
			Help:    "Random partitions evaluated per matcher run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	MatcherBestPenalty = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roulette_matcher_best_penalty",
			Help: "Total penalty of the best matching found by the last run",
		},
	)

	MatcherParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roulette_matcher_participants",
			Help: "Number of participating users in the last run",
		},
	)

	MatchGroupsByColor = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_match_groups_total",
			Help: "Generated groups by quality color",
		},
		[]string{"color"},
	)

	// Finalize Metrics
	FinalizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_finalize_total",
			Help: "Finalize attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Notification Metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_notifications_total",
			Help: "Outbound notifications by kind and status",
		},
		[]string{"kind", "status"}, // status: "sent", "failed"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_events_published_total",
			Help: "Domain events handed to the event bus",
		},
		[]string{"event_type", "status"},
	)
)

// RecordMatcherRun records one matcher run.
func RecordMatcherRun(duration time.Duration, iterations, participants int, bestPenalty float64) {
	MatcherRunDuration.Observe(duration.Seconds())
	MatcherIterations.Observe(float64(iterations))
	MatcherParticipants.Set(float64(participants))
	MatcherBestPenalty.Set(bestPenalty)
}

// RecordGroupColor counts one generated group of the given color.
func RecordGroupColor(color string) {
	MatchGroupsByColor.WithLabelValues(color).Inc()
}

// RecordFinalize counts one finalize attempt.
func RecordFinalize(outcome string) {
	FinalizeTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification counts one notification delivery.
func RecordNotification(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// RecordEventPublished counts one publish attempt.
func RecordEventPublished(eventType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(eventType, status).Inc()
}

// Recorder exposes the helpers above as methods so the application layer
// can depend on an interface instead of this package.
type Recorder struct{}

// MatcherRun implements command.MatchingMetrics.
func (Recorder) MatcherRun(duration time.Duration, iterations, participants int, bestPenalty float64) {
	RecordMatcherRun(duration, iterations, participants, bestPenalty)
}

// GroupColor implements command.MatchingMetrics.
func (Recorder) GroupColor(color string) {
	RecordGroupColor(color)
}

// Finalize implements command.MatchingMetrics.
func (Recorder) Finalize(outcome string) {
	RecordFinalize(outcome)
}
