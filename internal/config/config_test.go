package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidekv/engine/internal/test"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          "127.0.0.1:6379",
			MaxLineLength: 1 << 20,
			HTTPEnabled:   true,
			HTTPAddr:      ":8080",
		},
		Storage: StorageConfig{Shards: 32, ReaperBatch: 256},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090", Path: "/metrics"},
		Tracing: TracingConfig{Exporter: "grpc", SamplingStrategy: "always", SamplingRate: 1},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6379", cfg.Server.Addr)
	assert.Equal(t, 1<<20, cfg.Server.MaxLineLength)
	assert.True(t, cfg.Server.HTTPEnabled)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 32, cfg.Storage.Shards)
	assert.Equal(t, time.Duration(0), cfg.Storage.ReaperInterval)
	assert.Equal(t, 256, cfg.Storage.ReaperBatch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "grpc", cfg.Tracing.Exporter)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_ADDR", "0.0.0.0:7000")
	t.Setenv("STORAGE_SHARDS", "8")
	t.Setenv("STORAGE_REAPER_INTERVAL", "250ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ENABLED", "false")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Storage.Shards)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.ReaperInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Server.HTTPEnabled)
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("SERVER_ADDR", "0.0.0.0:7000")

	cfg, err := Load([]string{"-addr", ":7001", "-log-format", "text", "-reaper-interval", "1s"})
	require.NoError(t, err)

	assert.Equal(t, ":7001", cfg.Server.Addr)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, time.Second, cfg.Storage.ReaperInterval)
}

func TestLoad_Version(t *testing.T) {
	// Invalid settings do not prevent printing the version
	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := Load([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}

func TestLoad_File(t *testing.T) {
	path := test.WriteFile(t, "tidekv.yaml", `
server:
  addr: 127.0.0.1:7100
  http_enabled: false
storage:
  shards: 4
  reaper_interval: 500ms
logging:
  level: warn
`)
	t.Setenv("LOG_FORMAT", "text")

	t.Run("file overlays environment", func(t *testing.T) {
		cfg, err := Load([]string{"-config", path})
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:7100", cfg.Server.Addr)
		assert.False(t, cfg.Server.HTTPEnabled)
		assert.Equal(t, 4, cfg.Storage.Shards)
		assert.Equal(t, 500*time.Millisecond, cfg.Storage.ReaperInterval)
		assert.Equal(t, "warn", cfg.Logging.Level)
		// Absent from the file, kept from the environment
		assert.Equal(t, "text", cfg.Logging.Format)
		assert.Equal(t, 256, cfg.Storage.ReaperBatch)
	})

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := Load([]string{"-config", path, "-addr", ":7200", "-log-level", "error"})
		require.NoError(t, err)

		assert.Equal(t, ":7200", cfg.Server.Addr)
		assert.Equal(t, "error", cfg.Logging.Level)
		assert.Equal(t, 4, cfg.Storage.Shards)
	})

	t.Run("environment file path", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", path)
		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Storage.Shards)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"-config", "/nonexistent/tidekv.yaml"})
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := test.WriteFile(t, "bad.yaml", "storage: [1, 2\n")
		_, err := Load([]string{"-config", path})
		assert.Error(t, err)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := Load([]string{"-grpc-addr", ":1"})
		assert.Error(t, err)
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Setenv("STORAGE_SHARDS", "many")
		_, err := Load(nil)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server address"},
		{"empty http addr", func(c *Config) { c.Server.HTTPAddr = "" }, "http server address"},
		{"http disabled ignores addr", func(c *Config) { c.Server.HTTPEnabled = false; c.Server.HTTPAddr = "" }, ""},
		{"zero line length", func(c *Config) { c.Server.MaxLineLength = 0 }, "max line length"},
		{"negative idle timeout", func(c *Config) { c.Server.IdleTimeout = -time.Second }, "idle timeout"},
		{"zero shards", func(c *Config) { c.Storage.Shards = 0 }, "shards"},
		{"negative reaper interval", func(c *Config) { c.Storage.ReaperInterval = -time.Second }, "reaper interval"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing exporter"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
