package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drawparse/drawparse/pkg/logger_i"
)

var modelCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "model_calls_total",
	Help: "Inference calls labelled by operation and outcome",
}, []string{"operation", "outcome"})

var modelRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "model_retries_total",
	Help: "Throttling retries labelled by operation",
}, []string{"operation"})

var pagesClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pages_classified_total",
	Help: "Pages classified labelled by verdict",
}, []string{"verdict"})

var stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "stage_duration_seconds",
	Help:    "Wall time per pipeline stage.",
	Buckets: []float64{.5, 1, 5, 15, 30, 60, 120, 300, 600},
}, []string{"stage"})

var inferenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "inference_latency_seconds",
	Help:    "Latency of remote model calls.",
	Buckets: []float64{.25, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"operation"})

func CountModelCall(operation, outcome string) {
	modelCallsTotal.WithLabelValues(operation, outcome).Inc()
}

func CountRetry(operation string) {
	modelRetriesTotal.WithLabelValues(operation).Inc()
}

func CountPageVerdict(isDrawing bool) {
	verdict := "narrative"
	if isDrawing {
		verdict = "drawing"
	}
	pagesClassifiedTotal.WithLabelValues(verdict).Inc()
}

func CaptureStageMetrics(stage string, timeElapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(timeElapsed.Seconds())
}

func CaptureInferenceMetrics(operation string, timeElapsed time.Duration) {
	inferenceLatency.WithLabelValues(operation).Observe(timeElapsed.Seconds())
}

// ServeDebug exposes /metrics on addr for the duration of the run. Runs in a
// goroutine started by main when --metrics-addr is set.
func ServeDebug(addr string) {
	logger := logger_i.NewLogger("metrics")
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	logger.Info("Serving debug metrics", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Warn("Metrics listener stopped", "err", err)
	}
}
