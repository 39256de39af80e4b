package tracing

// Sampling strategies
const (
	SamplingAlways = "always"
	SamplingNever  = "never"
	SamplingRatio  = "ratio"
	// SamplingRate treats SamplingRate as traces per second against a
	// baseline of BaselineRequestRate requests per second
	SamplingRate = "rate"
)

// BaselineRequestRate is the request rate the "rate" strategy is scaled against
const BaselineRequestRate = 100.0

// TracingConfig holds configuration for OpenTelemetry tracing
type TracingConfig struct {
	// Enabled enables/disables tracing
	Enabled bool

	// ServiceName is the service name for traces
	ServiceName string

	// ServiceVersion is the service version
	ServiceVersion string

	// Endpoint is the OTLP endpoint URL
	Endpoint string

	// Insecure skips TLS verification
	Insecure bool

	// Headers contains additional headers for OTLP export
	Headers map[string]string

	// ExporterType specifies the exporter type: "grpc" or "http"
	ExporterType string

	// SamplingStrategy is one of always, never, ratio or rate
	SamplingStrategy string

	// SamplingRate is a probability for "ratio" and traces/sec for "rate"
	SamplingRate float64
}

// DefaultTracingConfig returns a default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:          false,
		ServiceName:      "tidekv",
		ServiceVersion:   "0.1.0",
		Endpoint:         "",
		Insecure:         false,
		Headers:          make(map[string]string),
		ExporterType:     "grpc",
		SamplingStrategy: SamplingAlways,
		SamplingRate:     1.0,
	}
}

// SamplingProbability converts the configured strategy to a probability in [0, 1]
func (c TracingConfig) SamplingProbability() float64 {
	var prob float64
	switch c.SamplingStrategy {
	case SamplingNever:
		return 0
	case SamplingRatio:
		prob = c.SamplingRate
	case SamplingRate:
		prob = c.SamplingRate / BaselineRequestRate
	default:
		return 1
	}
	if prob > 1.0 {
		prob = 1.0
	}
	if prob < 0 {
		prob = 0
	}
	return prob
}
