// Package metrics exposes Prometheus metrics for case analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalflow_runs_started_total",
			Help: "Total number of case analysis runs started",
		},
		[]string{"mode"}, // mode: blocking, stream
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalflow_runs_completed_total",
			Help: "Total number of case analysis runs finished",
		},
		[]string{"mode", "status"}, // status: done, failed, cancelled
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legalflow_run_duration_seconds",
			Help:    "Case analysis run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	// Actor metrics
	ActorAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalflow_actor_attempts_total",
			Help: "Total number of structured model invocations",
		},
		[]string{"tool", "outcome"}, // outcome: success, error
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalflow_llm_tokens_total",
			Help: "Total tokens used by the actor",
		},
		[]string{"type"}, // type: prompt, completion
	)

	// Research metrics
	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalflow_search_queries_total",
			Help: "Total number of search queries by outcome",
		},
		[]string{"outcome"}, // outcome: success, error, timeout, blocked
	)

	// Trace metrics
	TraceSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "legalflow_trace_steps",
			Help:    "Number of thinking steps projected per run",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)
)

// RunRecorder records the lifecycle metrics of a single run.
type RunRecorder struct {
	mode  string
	start time.Time
}

// StartRun counts a started run.
func StartRun(mode string) *RunRecorder {
	RunsStarted.WithLabelValues(mode).Inc()
	return &RunRecorder{mode: mode, start: time.Now()}
}

// Finish records the terminal status and duration.
func (r *RunRecorder) Finish(status string) {
	RunsCompleted.WithLabelValues(r.mode, status).Inc()
	RunDuration.WithLabelValues(r.mode).Observe(time.Since(r.start).Seconds())
}

// RecordTokens adds token usage.
func RecordTokens(prompt, completion int) {
	if prompt > 0 {
		TokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		TokensTotal.WithLabelValues("completion").Add(float64(completion))
	}
}
