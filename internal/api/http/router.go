package http

import (
	"net/http"

	"github.com/tidekv/engine/internal/api/http/handlers"
	"github.com/tidekv/engine/internal/api/http/middleware"
	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/metrics"
	"github.com/tidekv/engine/internal/storage"
)

// Router manages HTTP routes and middleware
type Router struct {
	mux         *http.ServeMux
	storage     storage.StorageBackend
	keyHandlers *handlers.KeyHandlers
	hub         *handlers.Hub
	apiMetrics  *metrics.APIMetrics
}

// NewRouter creates a new router. hub and apiMetrics may be nil.
func NewRouter(storage storage.StorageBackend, hub *handlers.Hub, apiMetrics *metrics.APIMetrics) *Router {
	r := &Router{
		mux:         http.NewServeMux(),
		storage:     storage,
		keyHandlers: handlers.NewKeyHandlers(storage),
		hub:         hub,
		apiMetrics:  apiMetrics,
	}

	r.setupRoutes()

	return r
}

// ServeHTTP dispatches to the registered routes
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// setupRoutes sets up all HTTP routes
func (r *Router) setupRoutes() {
	log := logger.WithComponent("http.middleware")
	chain := middleware.Chain(
		middleware.Recovery(log),
		middleware.Logging(log, r.apiMetrics),
		middleware.Tracing(),
	)
	handle := func(pattern string, h http.HandlerFunc) {
		r.mux.Handle(pattern, chain(h))
	}

	handle("GET /health", handlers.HealthCheck)
	handle("GET /ready", handlers.ReadinessCheck(r.storage))

	handle("GET /api/v1/keys/{key}", r.keyHandlers.Get)
	handle("PUT /api/v1/keys/{key}", r.keyHandlers.Set)
	handle("DELETE /api/v1/keys/{key}", r.keyHandlers.Delete)
	handle("GET /api/v1/keys/{key}/ttl", r.keyHandlers.TTL)
	handle("POST /api/v1/keys/{key}/expire", r.keyHandlers.Expire)

	handle("GET /api/v1/stats", handlers.Stats(r.storage))

	if r.hub != nil {
		handle("GET /api/v1/events", handlers.ServeWebSocket(r.hub))
	}

	// Default API v1 route (for unmatched paths)
	handle("/api/v1/", func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})
}
