package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionMetrics tracks line protocol connections
type ConnectionMetrics struct {
	active         prometheus.Gauge
	total          prometheus.Counter
	protocolErrors *prometheus.CounterVec
}

// NewConnectionMetrics initializes connection metrics with the collector
func NewConnectionMetrics(collector *Collector) *ConnectionMetrics {
	return &ConnectionMetrics{
		active: collector.RegisterGauge(
			MetricConnectionsActive,
			"Currently open client connections",
			nil,
		).WithLabelValues(),
		total: collector.RegisterCounter(
			MetricConnectionsTotal,
			"Accepted client connections",
			nil,
		).WithLabelValues(),
		protocolErrors: collector.RegisterCounter(
			MetricProtocolErrorsTotal,
			"Connections closed for protocol violations, by kind",
			[]string{LabelKind},
		),
	}
}

// ConnectionOpened records an accepted connection
func (m *ConnectionMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.active.Inc()
	m.total.Inc()
}

// ConnectionClosed records a finished connection
func (m *ConnectionMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.active.Dec()
}

// ProtocolError records a protocol violation such as an oversized line
func (m *ConnectionMetrics) ProtocolError(kind string) {
	if m == nil {
		return
	}
	m.protocolErrors.WithLabelValues(kind).Inc()
}
