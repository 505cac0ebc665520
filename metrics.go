package pacmap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver exports optimizer progress as Prometheus metrics.
type MetricsObserver struct {
	Iterations    prometheus.Counter
	FitsCompleted prometheus.Counter
	Loss          prometheus.Gauge
	Phase         prometheus.Gauge
	MidNearWeight prometheus.Gauge
	FitDuration   prometheus.Histogram
}

// NewMetricsObserver registers the pacmap metrics on reg under namespace.
// It panics if the metrics are already registered on reg, like promauto.
func NewMetricsObserver(reg prometheus.Registerer, namespace string) *MetricsObserver {
	factory := promauto.With(reg)
	return &MetricsObserver{
		Iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pacmap_iterations_total",
			Help:      "Number of completed PaCMAP optimizer iterations",
		}),
		FitsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pacmap_fits_completed_total",
			Help:      "Number of PaCMAP fits that ran all their iterations",
		}),
		Loss: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pacmap_loss",
			Help:      "Weighted total loss of the most recent iteration",
		}),
		Phase: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pacmap_phase",
			Help:      "Schedule phase of the most recent iteration (0 early, 1 mid, 2 late)",
		}),
		MidNearWeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pacmap_mid_near_weight",
			Help:      "Mid-near loss weight of the most recent iteration",
		}),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pacmap_fit_duration_seconds",
			Help:      "Wall time of completed PaCMAP fits, from pair sampling to the last iteration",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// Tick implements Observer.
func (m *MetricsObserver) Tick(t Tick) {
	m.Iterations.Inc()
	m.Loss.Set(t.Loss)
	m.Phase.Set(float64(t.Phase))
	m.MidNearWeight.Set(t.Weights.MidNear)
	if t.Iteration == t.Total-1 {
		m.FitsCompleted.Inc()
		m.FitDuration.Observe(t.Elapsed.Seconds())
	}
}
