// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registro_submissions_total",
			Help: "Total number of form submissions by outcome",
		},
		[]string{"variant", "outcome"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "registro_registrar_request_duration_seconds",
			Help: "Duration of the registrar API exchange in seconds",
		},
		[]string{"variant"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registro_validation_failures_total",
			Help: "Total number of field validation failures",
		},
		[]string{"variant", "field"},
	)

	SubmissionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "registro_submissions_in_flight",
			Help: "Number of registrar requests currently awaiting a response",
		},
		[]string{"variant"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registro_sessions_active",
			Help: "Number of live form sessions held in memory",
		},
	)
)
