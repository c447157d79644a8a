// Package metrics exposes pipeline and serving counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shownfy/kansai-mansion-analytics/internal/pipeline"
)

const namespace = "mansion"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Predictions       *prometheus.CounterVec
	PredictionSeconds *prometheus.HistogramVec
	Fallbacks         *prometheus.CounterVec
	PipelineDrops     *prometheus.CounterVec
	PipelineRows      *prometheus.GaugeVec
	RateLimited       prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent reconstructing and scoring a request.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"outcome"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serving_fallbacks_total",
			Help:      "Master data lookups substituted with defaults at serving time.",
		}, []string{"kind"}),
		PipelineDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_dropped_records_total",
			Help:      "Records excluded by the offline pipeline, by reason.",
		}, []string{"reason"}),
		PipelineRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_rows",
			Help:      "Row counts of the last completed build, by stage.",
		}, []string{"stage"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Predictions,
		m.PredictionSeconds,
		m.Fallbacks,
		m.PipelineDrops,
		m.PipelineRows,
		m.RateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePrediction records one request outcome.
func (m *Metrics) ObservePrediction(outcome string, elapsed time.Duration) {
	m.Predictions.WithLabelValues(outcome).Inc()
	m.PredictionSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveFallback records one serving-time substitution.
func (m *Metrics) ObserveFallback(kind string) {
	m.Fallbacks.WithLabelValues(kind).Inc()
}

// ObserveReport records the counts of a finished build.
func (m *Metrics) ObserveReport(r *pipeline.Report) {
	for reason, n := range r.Drops {
		m.PipelineDrops.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.PipelineRows.WithLabelValues("raw").Set(float64(r.RawRecords))
	m.PipelineRows.WithLabelValues("staged").Set(float64(r.Staged))
	m.PipelineRows.WithLabelValues("facts").Set(float64(r.Facts))
	m.PipelineRows.WithLabelValues("training").Set(float64(r.TrainingRows))
}
