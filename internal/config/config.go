package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configuration
	Tracing TracingConfig `yaml:"tracing"`

	// Configuration file path
	ConfigFile string `env:"CONFIG_FILE" yaml:"-"`

	// Print the version and exit
	ShowVersion bool `yaml:"-"`
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	// Line protocol listener address
	Addr string `env:"SERVER_ADDR" envDefault:"127.0.0.1:6379" yaml:"addr"`

	// Maximum accepted command line length in bytes
	MaxLineLength int `env:"SERVER_MAX_LINE_LENGTH" envDefault:"1048576" yaml:"max_line_length"`

	// Close connections idle for this long (0 disables)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"0s" yaml:"idle_timeout"`

	// Enable the HTTP admin API
	HTTPEnabled bool `env:"HTTP_ENABLED" envDefault:"true" yaml:"http_enabled"`

	// HTTP admin API address
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080" yaml:"http_addr"`
}

// StorageConfig holds entry store configuration
type StorageConfig struct {
	// Number of entry store shards
	Shards int `env:"STORAGE_SHARDS" envDefault:"32" yaml:"shards"`

	// Active expiration sweep period (0 disables the reaper)
	ReaperInterval time.Duration `env:"STORAGE_REAPER_INTERVAL" envDefault:"0s" yaml:"reaper_interval"`

	// Maximum keys removed per sweep
	ReaperBatch int `env:"STORAGE_REAPER_BATCH" envDefault:"256" yaml:"reaper_batch"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	// Log level: "debug", "info", "warn", "error"
	Level string `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`

	// Log format: "json", "text"
	Format string `env:"LOG_FORMAT" envDefault:"json" yaml:"format"`

	// Log file path (empty for stdout)
	Output string `env:"LOG_OUTPUT" envDefault:"" yaml:"output"`

	// Enable log rotation
	Rotation bool `env:"LOG_ROTATION" envDefault:"true" yaml:"rotation"`

	// Max log file size in MB
	MaxSize int `env:"LOG_MAX_SIZE" envDefault:"100" yaml:"max_size"`

	// Number of backup files to keep
	MaxBackups int `env:"LOG_MAX_BACKUPS" envDefault:"7" yaml:"max_backups"`

	// Max age in days
	MaxAge int `env:"LOG_MAX_AGE" envDefault:"30" yaml:"max_age"`
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	// Enable Prometheus metrics
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true" yaml:"enabled"`

	// Metrics server address
	Addr string `env:"METRICS_ADDR" envDefault:":9090" yaml:"addr"`

	// Metrics path
	Path string `env:"METRICS_PATH" envDefault:"/metrics" yaml:"path"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	// Enable OpenTelemetry tracing
	Enabled bool `env:"TRACING_ENABLED" envDefault:"false" yaml:"enabled"`

	// OTLP endpoint
	Endpoint string `env:"TRACING_ENDPOINT" envDefault:"" yaml:"endpoint"`

	// Exporter: "grpc" or "http"
	Exporter string `env:"TRACING_EXPORTER" envDefault:"grpc" yaml:"exporter"`

	// Disable TLS towards the collector
	Insecure bool `env:"TRACING_INSECURE" envDefault:"false" yaml:"insecure"`

	// Sampling strategy: "always", "never", "ratio", "rate"
	SamplingStrategy string `env:"TRACING_SAMPLING_STRATEGY" envDefault:"always" yaml:"sampling_strategy"`

	// Sampling rate, interpreted per strategy
	SamplingRate float64 `env:"TRACING_SAMPLING_RATE" envDefault:"1.0" yaml:"sampling_rate"`
}

// Load loads configuration from multiple sources, later ones winning:
// 1. Default values
// 2. Environment variables
// 3. Configuration file (YAML)
// 4. Command line flags
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	fs := flag.NewFlagSet("tidekv-server", flag.ContinueOnError)
	overrides := &Config{}
	*overrides = *cfg
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Path to configuration file")
	fs.StringVar(&overrides.Server.Addr, "addr", cfg.Server.Addr, "Line protocol listen address")
	fs.StringVar(&overrides.Server.HTTPAddr, "http-addr", cfg.Server.HTTPAddr, "HTTP admin API address")
	fs.StringVar(&overrides.Logging.Level, "log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&overrides.Logging.Format, "log-format", cfg.Logging.Format, "Log format (json, text)")
	fs.DurationVar(&overrides.Storage.ReaperInterval, "reaper-interval", cfg.Storage.ReaperInterval, "Active expiration sweep period (0 disables)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	if cfg.ConfigFile != "" {
		if err := loadFromFile(cfg, cfg.ConfigFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Flags given explicitly take precedence over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = overrides.Server.Addr
		case "http-addr":
			cfg.Server.HTTPAddr = overrides.Server.HTTPAddr
		case "log-level":
			cfg.Logging.Level = overrides.Logging.Level
		case "log-format":
			cfg.Logging.Format = overrides.Logging.Format
		case "reaper-interval":
			cfg.Storage.ReaperInterval = overrides.Storage.ReaperInterval
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	if c.Server.HTTPEnabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("http server address cannot be empty")
	}

	if c.Server.MaxLineLength < 1 {
		return fmt.Errorf("max line length must be positive: %d", c.Server.MaxLineLength)
	}

	if c.Server.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout cannot be negative: %s", c.Server.IdleTimeout)
	}

	if c.Storage.Shards < 1 {
		return fmt.Errorf("storage shards must be at least 1: %d", c.Storage.Shards)
	}

	if c.Storage.ReaperInterval < 0 {
		return fmt.Errorf("reaper interval cannot be negative: %s", c.Storage.ReaperInterval)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics address cannot be empty")
	}

	validExporters := map[string]bool{
		"grpc": true,
		"http": true,
	}
	if !validExporters[strings.ToLower(c.Tracing.Exporter)] {
		return fmt.Errorf("invalid tracing exporter: %s", c.Tracing.Exporter)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	return nil
}

// loadFromFile overlays the values present in a YAML file onto cfg
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
