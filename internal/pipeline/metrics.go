package pipeline

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueueGauges is the queue information exported as metrics.
type QueueGauges interface {
	Len() int
	Dropped() uint64
}

// Metrics holds the Prometheus collectors for the pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesTotal         *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	classifierRequests *prometheus.CounterVec
	inFlight           prometheus.Gauge
}

// NewMetrics creates collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixly",
			Subsystem: "pipeline",
			Name:      "files_total",
			Help:      "Screenshots that finished processing by final state.",
		},
		[]string{"state"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pixly",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	classifierRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixly",
			Subsystem: "classifier",
			Name:      "requests_total",
			Help:      "Classifications by source (ai or fallback).",
		},
		[]string{"source"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pixly",
			Subsystem: "pipeline",
			Name:      "in_flight",
			Help:      "Screenshots currently being processed.",
		},
	)

	registry.MustRegister(filesTotal, stageDuration, classifierRequests, inFlight)

	return &Metrics{
		registry:           registry,
		filesTotal:         filesTotal,
		stageDuration:      stageDuration,
		classifierRequests: classifierRequests,
		inFlight:           inFlight,
	}
}

// RegisterQueue exports the watcher queue length and eviction count.
func (m *Metrics) RegisterQueue(q QueueGauges) {
	if m == nil || q == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "pixly",
			Subsystem: "watcher",
			Name:      "queue_evictions_total",
			Help:      "Pending screenshots dropped because the queue was full.",
		}, func() float64 { return float64(q.Dropped()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pixly",
			Subsystem: "watcher",
			Name:      "queue_length",
			Help:      "Screenshots waiting in the processing queue.",
		}, func() float64 { return float64(q.Len()) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) startFile() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finishFile(state State) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.filesTotal.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) classified(source string) {
	if m == nil {
		return
	}
	m.classifierRequests.WithLabelValues(source).Inc()
}
