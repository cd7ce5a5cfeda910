package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	visionSubsystem = "vision"

	reviewJobsStarted  = "review_jobs_started_total"
	reviewJobsFinished = "review_jobs_finished_total"
	reviewStepDuration = "review_step_duration_seconds"
	reviewVerdicts     = "review_verdicts_total"

	// Labels
	jobStatusLabel     = "status"
	stepNameLabel      = "step"
	verdictStatusLabel = "verdict"
)

/**
* Metrics definition
**/
var reviewJobsStartedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: visionSubsystem,
		Name:      reviewJobsStarted,
		Help:      "number of review jobs started",
	},
)

var reviewJobsFinishedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: visionSubsystem,
		Name:      reviewJobsFinished,
		Help:      "number of review jobs finished partitioned by terminal status",
	},
	[]string{jobStatusLabel},
)

var reviewStepDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: visionSubsystem,
		Name:      reviewStepDuration,
		Help:      "time spent in each review pipeline step",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
	},
	[]string{stepNameLabel},
)

var reviewVerdictsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: visionSubsystem,
		Name:      reviewVerdicts,
		Help:      "number of final verdicts partitioned by outcome",
	},
	[]string{verdictStatusLabel},
)

func IncreaseReviewJobsStartedMetric() {
	reviewJobsStartedMetric.Inc()
}

func IncreaseReviewJobsFinishedMetric(status string) {
	reviewJobsFinishedMetric.With(prometheus.Labels{jobStatusLabel: status}).Inc()
}

func ObserveReviewStepDurationMetric(step string, d time.Duration) {
	reviewStepDurationMetric.With(prometheus.Labels{stepNameLabel: step}).Observe(d.Seconds())
}

func IncreaseReviewVerdictsMetric(verdict string) {
	reviewVerdictsMetric.With(prometheus.Labels{verdictStatusLabel: verdict}).Inc()
}

type PrometheusMetricsHandler struct {
}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	prometheus.MustRegister(reviewJobsStartedMetric)
	prometheus.MustRegister(reviewJobsFinishedMetric)
	prometheus.MustRegister(reviewStepDurationMetric)
	prometheus.MustRegister(reviewVerdictsMetric)

	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}
