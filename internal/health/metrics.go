package health

import (
	"time"

	"github.com/faultline/internal/pattern"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for faultline.
type Metrics struct {
	SamplesTotal     *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	SampleLatency    prometheus.Histogram
	CurrentPattern   *prometheus.GaugeVec
	TickInterval     prometheus.Gauge
	SinkWritesTotal  *prometheus.CounterVec
	SinkDropsTotal   *prometheus.CounterVec
	SinkHealthy      *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics on the given registerer. Tests use
// a private registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SamplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "faultline",
				Name:      "samples_total",
				Help:      "Total generated telemetry samples by pattern, method and status",
			},
			[]string{"pattern", "method", "status"},
		),
		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "faultline",
				Name:      "pattern_transitions_total",
				Help:      "Total pattern transitions by target pattern",
			},
			[]string{"pattern"},
		),
		SampleLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "faultline",
				Name:      "sample_latency_ms",
				Help:      "Synthetic latency distribution of generated samples",
				Buckets:   prometheus.ExponentialBuckets(50, 2, 9), // 50ms to ~12.8s
			},
		),
		CurrentPattern: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "faultline",
				Name:      "current_pattern",
				Help:      "Active traffic pattern (1 for the active pattern, 0 otherwise)",
			},
			[]string{"pattern"},
		),
		TickInterval: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "faultline",
				Name:      "tick_interval_seconds",
				Help:      "Delay computed for the most recent scheduler tick",
			},
		),
		SinkWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "faultline",
				Name:      "sink_writes_total",
				Help:      "Total sink deliveries by sink and outcome",
			},
			[]string{"sink", "outcome"},
		),
		SinkDropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "faultline",
				Name:      "sink_drops_total",
				Help:      "Samples dropped because a sink queue was full",
			},
			[]string{"sink"},
		),
		SinkHealthy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "faultline",
				Name:      "sink_healthy",
				Help:      "Health status of each sink (1=healthy, 0=unhealthy)",
			},
			[]string{"sink"},
		),
	}
}

// RecordSample records a generated sample.
func (m *Metrics) RecordSample(p pattern.Pattern, method string, status int, latencyMS int) {
	m.SamplesTotal.WithLabelValues(string(p), method, statusLabel(status)).Inc()
	m.SampleLatency.Observe(float64(latencyMS))
}

// RecordTransition records a pattern change and updates the one-hot
// current-pattern gauge.
func (m *Metrics) RecordTransition(p pattern.Pattern) {
	m.TransitionsTotal.WithLabelValues(string(p)).Inc()
	m.SetCurrentPattern(p)
}

// SetCurrentPattern marks p active and all other patterns inactive.
func (m *Metrics) SetCurrentPattern(p pattern.Pattern) {
	for _, candidate := range pattern.All() {
		v := 0.0
		if candidate == p {
			v = 1.0
		}
		m.CurrentPattern.WithLabelValues(string(candidate)).Set(v)
	}
}

// SetTickInterval records the delay chosen for the current tick.
func (m *Metrics) SetTickInterval(d time.Duration) {
	m.TickInterval.Set(d.Seconds())
}

// RecordSinkWrite records the outcome of one sink delivery.
func (m *Metrics) RecordSinkWrite(sink string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SinkWritesTotal.WithLabelValues(sink, outcome).Inc()
}

// RecordSinkDrop records a sample dropped at a full sink queue.
func (m *Metrics) RecordSinkDrop(sink string) {
	m.SinkDropsTotal.WithLabelValues(sink).Inc()
}

// SetSinkHealth updates the health gauge for a sink.
func (m *Metrics) SetSinkHealth(sink string, healthy bool) {
	if healthy {
		m.SinkHealthy.WithLabelValues(sink).Set(1)
	} else {
		m.SinkHealthy.WithLabelValues(sink).Set(0)
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
