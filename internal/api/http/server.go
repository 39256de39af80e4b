package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/api/http/handlers"
	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/metrics"
	"github.com/tidekv/engine/internal/storage"
)

const readHeaderTimeout = 10 * time.Second

// Options configures a Server
type Options struct {
	// Hub streams store events over /api/v1/events. It must be registered as a
	// store listener to receive anything. A nil hub disables the endpoint.
	Hub *handlers.Hub
	// APIMetrics records per-request metrics (optional)
	APIMetrics *metrics.APIMetrics
}

// Server represents an HTTP server
type Server struct {
	storage    storage.StorageBackend
	httpServer *http.Server
	addr       string
	hub        *handlers.Hub
	log        zerolog.Logger
	listener   net.Listener
	ready      bool
	mu         sync.RWMutex
	router     *Router
}

// NewServer creates a new HTTP server
func NewServer(addr string, storage storage.StorageBackend, opts Options) *Server {
	s := &Server{
		storage: storage,
		addr:    addr,
		hub:     opts.Hub,
		log:     logger.WithComponent("http"),
	}

	s.router = NewRouter(storage, opts.Hub, opts.APIMetrics)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Start binds the listen address and serves in the background
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	s.log.Info().Str("addr", s.addr).Msg("Starting HTTP server")

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	if s.hub != nil {
		s.hub.Start()
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	s.ready = true
	s.log.Info().Str("addr", listener.Addr().String()).Msg("HTTP server started")

	return nil
}

// Addr returns the bound address once started, or the configured one
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully stops the HTTP server. Websocket clients are disconnected
// through the hub since Shutdown does not track hijacked connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}

	s.log.Info().Msg("Stopping HTTP server")

	if s.hub != nil {
		s.hub.Close()
	}

	s.ready = false
	if err := s.httpServer.Shutdown(ctx); err != nil {
		_ = s.httpServer.Close()
		return err
	}

	s.log.Info().Msg("HTTP server stopped")

	return nil
}

// Ready returns true if the server is ready
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}
