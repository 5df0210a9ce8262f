package preds

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics collects and exposes pipeline Prometheus metrics.
// Each invocation of the CLI or embedding service owns one instance
// backed by its own registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	// Fetch metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Extraction and model metrics
	MatchesProcessed *prometheus.CounterVec
	SignalDefaults   *prometheus.CounterVec
	QualityScore     prometheus.Histogram

	// Whole-run duration of one Analyze invocation
	AnalyzeDuration prometheus.Histogram

	// Cache metrics
	CacheLookups *prometheus.CounterVec
}

// NewPipelineMetrics creates a new pipeline metrics collector.
func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	pm := &PipelineMetrics{
		registry: registry,

		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stattip_fetches_total",
				Help: "Total number of page fetches",
			},
			[]string{"kind", "status"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stattip_fetch_duration_seconds",
				Help:    "Time to fetch one page including retries",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"kind"},
		),
		MatchesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stattip_matches_processed_total",
				Help: "Matches processed by the pipeline",
			},
			[]string{"outcome"},
		),
		SignalDefaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stattip_signal_defaults_total",
				Help: "Signals that fell back to their default value",
			},
			[]string{"signal"},
		),
		QualityScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stattip_quality_score",
				Help:    "Quality gate score distribution",
				Buckets: []float64{0, 20, 40, 55, 60, 75, 80, 100},
			},
		),
		AnalyzeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stattip_analyze_duration_seconds",
				Help:    "Wall time of one full analysis run",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stattip_cache_lookups_total",
				Help: "Snapshot cache lookups",
			},
			[]string{"kind", "result"},
		),
	}

	registry.MustRegister(
		pm.FetchesTotal,
		pm.FetchDuration,
		pm.MatchesProcessed,
		pm.SignalDefaults,
		pm.QualityScore,
		pm.AnalyzeDuration,
		pm.CacheLookups,
	)

	return pm
}

// Registry returns the underlying registry for exposition
func (pm *PipelineMetrics) Registry() *prometheus.Registry {
	return pm.registry
}
