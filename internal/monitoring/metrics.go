// Package monitoring exposes pipeline and data-quality metrics for scraping.
package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Metrics holds the engine's instrumentation. Each Metrics value carries its
// own registry so tests and concurrent pipelines never collide on the
// default global one.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	violationsTotal *prometheus.CounterVec
	qualityScore    prometheus.Gauge
	recordsLoaded   prometheus.Gauge
}

// NewMetrics constructs and registers the metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by terminal status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Pipeline execution duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		violationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quality_violations_total",
			Help: "Total number of record rejections by reason.",
		}, []string{"reason"}),
		qualityScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "data_quality_score",
			Help: "Mean composite quality score of the most recent batch (0-100).",
		}),
		recordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "records_loaded",
			Help: "Number of records loaded by the most recent run.",
		}),
	}

	registry.MustRegister(m.runsTotal, m.runDuration, m.violationsTotal, m.qualityScore, m.recordsLoaded)
	return m
}

// ObserveRun records the outcome of one finalized pipeline run.
func (m *Metrics) ObserveRun(report *types.RunReport) {
	m.runsTotal.WithLabelValues(string(report.Status)).Inc()
	m.runDuration.Observe(report.Duration().Seconds())
	m.recordsLoaded.Set(float64(report.Loaded))
	for reason, count := range report.Rejections {
		m.violationsTotal.WithLabelValues(reason).Add(float64(count))
	}
}

// ObserveBatchScore records the mean composite score of a loaded batch.
func (m *Metrics) ObserveBatchScore(records []types.CategorizedRecord) {
	if len(records) == 0 {
		return
	}
	total := 0.0
	for _, rec := range records {
		total += rec.QualityScore
	}
	m.qualityScore.Set(total / float64(len(records)))
}

// Handler returns the scrape handler for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the given port in a background goroutine and
// returns the server so the caller can shut it down.
func (m *Metrics) Serve(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Warning: metrics server stopped: %v\n", err)
		}
	}()
	return srv
}
