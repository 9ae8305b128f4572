package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/bitbots/go-retarget/internal/log"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retarget_runs_total",
		Help: "Conversion runs by outcome",
	}, []string{"outcome"})

	framesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retarget_frames_processed_total",
		Help: "Reference frames produced",
	})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retarget_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
	}, []string{"stage"})

	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retarget_publish_failures_total",
		Help: "Registry publishes degraded to warnings",
	})
)

// pushMetrics pushes collected metrics to a Pushgateway. Best-effort, like
// the registry publish: a batch job that cannot reach its Pushgateway still
// produced a valid artifact.
func pushMetrics(addr string) {
	if addr == "" {
		return
	}
	err := push.New(addr, "go_retarget").
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		log.Warn("failed to push metrics", "pushgateway", addr, "error", err)
	}
}
