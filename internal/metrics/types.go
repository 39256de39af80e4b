package metrics

// Metric name constants following Prometheus naming conventions
// Format: tidekv_{component}_{metric}_{unit}

// Keyspace metrics
const (
	MetricKeys             = "tidekv_keys"
	MetricKeyspaceEvents   = "tidekv_keyspace_events_total"
	MetricExpirationsTotal = "tidekv_expirations_total"
	MetricIndexBuckets     = "tidekv_expiration_index_buckets"
)

// Command metrics
const (
	MetricCommandsTotal   = "tidekv_commands_total"
	MetricCommandDuration = "tidekv_command_duration_seconds"
)

// Connection metrics
const (
	MetricConnectionsActive   = "tidekv_connections_active"
	MetricConnectionsTotal    = "tidekv_connections_total"
	MetricProtocolErrorsTotal = "tidekv_protocol_errors_total"
)

// API metrics
const (
	MetricAPIRequestsTotal   = "tidekv_api_requests_total"
	MetricAPIRequestDuration = "tidekv_api_request_duration_seconds"
)

// Label name constants
const (
	LabelEvent    = "event"
	LabelReason   = "reason"
	LabelCommand  = "command"
	LabelStatus   = "status"
	LabelKind     = "kind"
	LabelMethod   = "method"
	LabelEndpoint = "endpoint"
)

// Command outcome label values
const (
	StatusOK    = "ok"
	StatusNil   = "nil"
	StatusError = "error"
)
