package tracing

// Span attribute keys following OpenTelemetry semantic conventions
const (
	// Keyspace attributes
	AttrKey        = "tidekv.key"
	AttrExpiresAt  = "tidekv.expires_at"
	AttrBatchLimit = "tidekv.reaper.batch_limit"
	AttrReaped     = "tidekv.reaper.reaped"

	// Command attributes
	AttrCommand   = "tidekv.command"
	AttrValueKind = "tidekv.value.kind"
	AttrConnID    = "tidekv.conn_id"
	AttrPeer      = "net.peer.addr"

	// Operation attributes
	AttrOperation = "tidekv.operation"
	AttrStatus    = "tidekv.status"
	AttrError     = "tidekv.error"

	// HTTP attributes (OpenTelemetry semantic conventions)
	AttrHTTPMethod       = "http.method"
	AttrHTTPRoute        = "http.route"
	AttrHTTPStatusCode   = "http.status_code"
	AttrHTTPUserAgent    = "http.user_agent"
	AttrHTTPRequestSize  = "http.request.size"
	AttrHTTPResponseSize = "http.response.size"
)
