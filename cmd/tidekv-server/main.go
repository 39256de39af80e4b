package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/api"
	"github.com/tidekv/engine/internal/api/http/handlers"
	"github.com/tidekv/engine/internal/config"
	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/metrics"
	"github.com/tidekv/engine/internal/storage"
	"github.com/tidekv/engine/internal/tracing"
	"github.com/tidekv/engine/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "tidekv-server: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return nil
	}

	if err := logger.Init(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Rotation:   cfg.Logging.Rotation,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.WithComponent("main")
	log.Info().Str("version", version.Short()).Msg("Starting tidekv")

	tracingCfg := tracing.DefaultTracingConfig()
	tracingCfg.Enabled = cfg.Tracing.Enabled
	tracingCfg.Endpoint = cfg.Tracing.Endpoint
	tracingCfg.ExporterType = cfg.Tracing.Exporter
	tracingCfg.Insecure = cfg.Tracing.Insecure
	tracingCfg.SamplingStrategy = cfg.Tracing.SamplingStrategy
	tracingCfg.SamplingRate = cfg.Tracing.SamplingRate
	tracingCfg.ServiceVersion = version.Get().Version
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	collector := metrics.NewRuntimeCollector()
	keyspaceMetrics := metrics.NewKeyspaceMetrics(collector)

	builder := storage.NewBuilder().
		WithConfig(&storage.Config{
			Shards:         cfg.Storage.Shards,
			ReaperInterval: cfg.Storage.ReaperInterval,
			ReaperBatch:    cfg.Storage.ReaperBatch,
		}).
		WithListener(keyspaceMetrics)

	var hub *handlers.Hub
	if cfg.Server.HTTPEnabled {
		hub = handlers.NewHub()
		builder = builder.WithListener(hub)
	}

	store, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build storage: %w", err)
	}
	metrics.RegisterIndexGauge(collector, store.Store())

	apiCfg := api.Config{
		Addr:          cfg.Server.Addr,
		MaxLineLength: cfg.Server.MaxLineLength,
		IdleTimeout:   cfg.Server.IdleTimeout,
	}
	if cfg.Server.HTTPEnabled {
		apiCfg.HTTPAddr = cfg.Server.HTTPAddr
	}
	server := api.NewServer(apiCfg, store, api.Options{
		CommandMetrics:    metrics.NewCommandMetrics(collector),
		ConnectionMetrics: metrics.NewConnectionMetrics(collector),
		APIMetrics:        metrics.NewAPIMetrics(collector),
		Hub:               hub,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, collector.GetRegistry())
		if err := metricsServer.Start(ctx); err != nil {
			_ = shutdown(log, nil, nil, provider)
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	if err := server.Start(ctx); err != nil {
		_ = shutdown(log, metricsServer, nil, provider)
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info().
		Str("addr", server.Addr()).
		Str("http_addr", server.HTTPAddr()).
		Msg("tidekv ready")

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	return shutdown(log, metricsServer, server, provider)
}

// shutdown stops the API server (and with it storage), then metrics, then
// tracing, all within shutdownTimeout
func shutdown(log zerolog.Logger, metricsServer *metrics.Server, server *api.Server, provider *tracing.Provider) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if server != nil {
		if err := server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	if err := provider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Error().Err(err).Msg("Shutdown completed with errors")
		return err
	}
	log.Info().Msg("Shutdown complete")
	return nil
}
