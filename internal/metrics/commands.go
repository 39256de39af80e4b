package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetrics tracks line protocol commands
type CommandMetrics struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

// NewCommandMetrics initializes command metrics with the collector
func NewCommandMetrics(collector *Collector) *CommandMetrics {
	return &CommandMetrics{
		commandsTotal: collector.RegisterCounter(
			MetricCommandsTotal,
			"Commands executed by verb and outcome",
			[]string{LabelCommand, LabelStatus},
		),
		commandDuration: collector.RegisterHistogram(
			MetricCommandDuration,
			"Command execution latency in seconds",
			[]string{LabelCommand},
			[]float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		),
	}
}

// ObserveCommand records one executed command
func (m *CommandMetrics) ObserveCommand(command, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}
