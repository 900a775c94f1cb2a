// Package monitoring gathers run-level health metrics, exposes them to
// Prometheus, and raises webhook alerts when extraction quality degrades.
package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/store"
)

// Snapshot holds a point-in-time view of recent extraction health.
type Snapshot struct {
	RunsTotal     int           `json:"runs_total"`
	RunsSucceeded int           `json:"runs_succeeded"`
	RunsFailed    int           `json:"runs_failed"`
	FailureRate   float64       `json:"failure_rate"`
	AvgProducts   float64       `json:"avg_products"`
	AvgDuration   time.Duration `json:"avg_duration"`
	LookbackRuns  int           `json:"lookback_runs"`
	CollectedAt   time.Time     `json:"collected_at"`
}

// Collector summarizes recent runs from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect summarizes the most recent lookback runs.
func (c *Collector) Collect(ctx context.Context, lookback int) (*Snapshot, error) {
	if lookback <= 0 {
		lookback = 100
	}
	snap := &Snapshot{
		LookbackRuns: lookback,
		CollectedAt:  time.Now().UTC(),
	}

	runs, err := c.store.ListRuns(ctx, lookback)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var totalProducts int
	var totalDuration time.Duration
	for _, r := range runs {
		if r.Success {
			snap.RunsSucceeded++
		} else {
			snap.RunsFailed++
		}
		totalProducts += r.ProductCount
		totalDuration += r.Duration
	}

	if snap.RunsTotal > 0 {
		snap.FailureRate = float64(snap.RunsFailed) / float64(snap.RunsTotal)
		snap.AvgProducts = float64(totalProducts) / float64(snap.RunsTotal)
		snap.AvgDuration = totalDuration / time.Duration(snap.RunsTotal)
	}

	return snap, nil
}

// Metrics holds the Prometheus instruments the pipeline reports into.
type Metrics struct {
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	ProductsExtracted  prometheus.Histogram
}

// NewMetrics registers the pipeline instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExtractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_extractions_total",
			Help: "Completed extraction runs by result.",
		}, []string{"result"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insights_extraction_duration_seconds",
			Help:    "Wall-clock duration of extraction runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		ProductsExtracted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insights_products_extracted",
			Help:    "Products found per extraction run.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(m.ExtractionsTotal, m.ExtractionDuration, m.ProductsExtracted)
	return m
}

// ObserveRun records one finished extraction.
func (m *Metrics) ObserveRun(success bool, products int, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	m.ExtractionsTotal.WithLabelValues(result).Inc()
	m.ExtractionDuration.Observe(duration.Seconds())
	m.ProductsExtracted.Observe(float64(products))
}
