package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tidekv/engine/internal/storage/kv"
)

// KeyspaceMetrics tracks store changes. It implements kv.Listener.
type KeyspaceMetrics struct {
	keys        prometheus.Gauge
	events      *prometheus.CounterVec
	expirations *prometheus.CounterVec
}

// NewKeyspaceMetrics initializes keyspace metrics with the collector
func NewKeyspaceMetrics(collector *Collector) *KeyspaceMetrics {
	return &KeyspaceMetrics{
		keys: collector.RegisterGauge(
			MetricKeys,
			"Number of resident keys",
			nil,
		).WithLabelValues(),
		events: collector.RegisterCounter(
			MetricKeyspaceEvents,
			"Keyspace changes by event type",
			[]string{LabelEvent},
		),
		expirations: collector.RegisterCounter(
			MetricExpirationsTotal,
			"Keys removed after their deadline, by reason",
			[]string{LabelReason},
		),
	}
}

// RegisterIndexGauge exports the expiration index bucket count of store
func RegisterIndexGauge(collector *Collector, store *kv.Store) {
	collector.RegisterGaugeFunc(
		MetricIndexBuckets,
		"Distinct expiration instants in the expiration index",
		func() float64 { return float64(store.Index().Len()) },
	)
}

// OnEvent records a store event
func (m *KeyspaceMetrics) OnEvent(ev kv.Event) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case kv.EventSet:
		if ev.Created {
			m.keys.Inc()
		}
	case kv.EventDelete:
		m.keys.Dec()
	case kv.EventExpired:
		m.keys.Dec()
		m.expirations.WithLabelValues(ev.Reason).Inc()
	}
}
