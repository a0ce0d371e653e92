package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "breakup_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the batch runner.
type Metrics struct {
	PointsProcessed prometheus.Counter
	PointFailures   *prometheus.CounterVec // labels: reason={misaligned,unordered,upstream,load,other}
	BreakupsFound   prometheus.Counter
	BatchRunning    prometheus.Gauge
	BatchesTotal    *prometheus.CounterVec // labels: outcome={completed,cancelled}

	BatchDuration prometheus.Histogram

	// Upstream temperature sources.
	FetchDuration *prometheus.HistogramVec // labels: source={history,vaisala,forecast}
	FetchErrors   *prometheus.CounterVec   // labels: source
	StationCache  *prometheus.CounterVec   // labels: result={hit,miss}

	// Sinks.
	MessagesProduced prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		PointsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_processed_total",
			Help:      "Total points scanned by the freeze/thaw engine.",
		}),
		PointFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "point_failures_total",
			Help:      "Points skipped after an error, by reason.",
		}, []string{"reason"}),
		BreakupsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breakups_detected_total",
			Help:      "Points whose breakup limits were imposed within the scanned window.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_running",
			Help:      "1 while a batch is in progress, 0 otherwise.",
		}),
		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Finished batches by outcome.",
		}, []string{"outcome"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete batch over all points.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream temperature fetch duration by source.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Upstream fetch attempts that failed, by source.",
		}, []string{"source"}),
		StationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_cache_total",
			Help:      "Nearest-station cache lookups by result.",
		}, []string{"result"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total summaries written to the Kafka topic.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PointsProcessed,
		m.PointFailures,
		m.BreakupsFound,
		m.BatchRunning,
		m.BatchesTotal,
		m.BatchDuration,
		m.FetchDuration,
		m.FetchErrors,
		m.StationCache,
		m.MessagesProduced,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
