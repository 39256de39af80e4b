package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/tidekv/engine/internal/api/http"
	"github.com/tidekv/engine/internal/api/http/handlers"
	"github.com/tidekv/engine/internal/api/tcp"
	"github.com/tidekv/engine/internal/command"
	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/metrics"
	"github.com/tidekv/engine/internal/storage"
)

// Server runs the line protocol listener and, optionally, the HTTP admin API
// over one shared storage
type Server struct {
	storage    storage.StorageBackend
	interp     *command.Interpreter
	tcpServer  *tcp.Server
	httpServer *httpapi.Server
	log        zerolog.Logger
	ready      bool
	mu         sync.RWMutex
}

// Config holds configuration for the API server
type Config struct {
	// Addr is the line protocol listen address
	Addr string
	// MaxLineLength bounds one request line (0 = default)
	MaxLineLength int
	// IdleTimeout closes silent connections (0 = never)
	IdleTimeout time.Duration
	// HTTPAddr enables the admin API when non-empty
	HTTPAddr string
}

// Options carries optional collaborators
type Options struct {
	// CommandMetrics observes every handled request line
	CommandMetrics *metrics.CommandMetrics
	// ConnectionMetrics observes line protocol connections
	ConnectionMetrics *metrics.ConnectionMetrics
	// APIMetrics observes HTTP requests
	APIMetrics *metrics.APIMetrics
	// Hub streams store events over the admin API
	Hub *handlers.Hub
}

// NewServer creates a new API server
func NewServer(cfg Config, storage storage.StorageBackend, opts Options) *Server {
	s := &Server{
		storage: storage,
		log:     logger.WithComponent("api"),
	}

	var interpOpts []command.Option
	if opts.CommandMetrics != nil {
		interpOpts = append(interpOpts, command.WithObserver(opts.CommandMetrics))
	}
	s.interp = command.NewInterpreter(storage.Store(), interpOpts...)

	tcpOpts := tcp.Options{
		MaxLineLength: cfg.MaxLineLength,
		IdleTimeout:   cfg.IdleTimeout,
	}
	if opts.ConnectionMetrics != nil {
		tcpOpts.Observer = opts.ConnectionMetrics
	}
	s.tcpServer = tcp.NewServer(cfg.Addr, s.interp, tcpOpts)

	if cfg.HTTPAddr != "" {
		s.httpServer = httpapi.NewServer(cfg.HTTPAddr, storage, httpapi.Options{
			Hub:        opts.Hub,
			APIMetrics: opts.APIMetrics,
		})
	}

	return s
}

// Interpreter returns the interpreter shared by every connection
func (s *Server) Interpreter() *command.Interpreter {
	return s.interp
}

// Start starts storage, then the listeners
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	s.log.Info().Msg("Starting API server")

	if err := s.storage.Start(ctx); err != nil {
		return err
	}

	if err := s.tcpServer.Start(ctx); err != nil {
		_ = s.storage.Stop(ctx)
		return err
	}

	if s.httpServer != nil {
		if err := s.httpServer.Start(ctx); err != nil {
			_ = s.tcpServer.Stop(ctx)
			_ = s.storage.Stop(ctx)
			return err
		}
	}

	s.ready = true
	s.log.Info().
		Str("addr", s.tcpServer.Addr()).
		Bool("http", s.httpServer != nil).
		Msg("API server started")

	return nil
}

// Stop gracefully stops the listeners, then storage
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}

	s.log.Info().Msg("Stopping API server")

	var firstErr error
	record := func(what string, err error) {
		if err == nil {
			return
		}
		s.log.Warn().Err(err).Msgf("Error stopping %s", what)
		if firstErr == nil {
			firstErr = err
		}
	}

	if s.httpServer != nil {
		record("HTTP server", s.httpServer.Stop(ctx))
	}
	record("TCP server", s.tcpServer.Stop(ctx))
	record("storage", s.storage.Stop(ctx))

	s.ready = false
	s.log.Info().Msg("API server stopped")

	return firstErr
}

// Ready returns true if the server is ready
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready || !s.tcpServer.Ready() || !s.storage.Ready() {
		return false
	}
	return s.httpServer == nil || s.httpServer.Ready()
}

// Addr returns the line protocol address
func (s *Server) Addr() string {
	return s.tcpServer.Addr()
}

// HTTPAddr returns the admin API address, or "" when it is disabled
func (s *Server) HTTPAddr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr()
}
