package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/metrics"
)

// Logging logs HTTP requests and, when m is non-nil, records request metrics
// labelled by the matched route pattern
func Logging(log zerolog.Logger, m *metrics.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := wrap(w)
			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			endpoint := r.Pattern
			if endpoint == "" {
				endpoint = "unmatched"
			}
			m.RecordAPIRequest(r.Method, endpoint, ww.statusCode, duration)

			event := log.Info()
			if ww.statusCode >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("endpoint", endpoint).
				Str("remote_addr", r.RemoteAddr).
				Int("status", ww.statusCode).
				Dur("duration", duration).
				Msg("HTTP request")
		})
	}
}
