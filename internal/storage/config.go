package storage

import (
	"time"

	"github.com/tidekv/engine/internal/storage/kv"
)

// Config holds configuration for the storage system
type Config struct {
	// Shards is the number of entry store shards
	Shards int

	// ReaperInterval is the active expiration sweep period (0 disables the reaper)
	ReaperInterval time.Duration

	// ReaperBatch is the maximum number of keys removed per sweep
	ReaperBatch int
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Shards:         kv.DefaultShards,
		ReaperInterval: 0,
		ReaperBatch:    kv.DefaultTTLReaperBatch,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Shards < 1 {
		return ErrInvalidConfig{Field: "Shards", Reason: "must be at least one"}
	}
	if c.ReaperInterval < 0 {
		return ErrInvalidConfig{Field: "ReaperInterval", Reason: "cannot be negative"}
	}
	if c.ReaperInterval > 0 && c.ReaperBatch <= 0 {
		return ErrInvalidConfig{Field: "ReaperBatch", Reason: "must be greater than zero when the reaper is enabled"}
	}
	return nil
}

// ErrInvalidConfig indicates an invalid configuration
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return "invalid config: " + e.Field + ": " + e.Reason
}
