package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/storage/kv"
)

// Builder provides a fluent interface for building Storage instances
type Builder struct {
	config    *Config
	listeners kv.Listeners
	clock     func() time.Time
	log       zerolog.Logger
}

// NewBuilder creates a new Storage builder
func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
		log:    logger.WithComponent("storage.builder"),
	}
}

// WithConfig sets the configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// WithShards sets the number of shards (convenience method)
func (b *Builder) WithShards(n int) *Builder {
	if b.config == nil {
		b.config = DefaultConfig()
	}
	b.config.Shards = n
	return b
}

// WithReaper enables the active expiration sweep (convenience method)
func (b *Builder) WithReaper(interval time.Duration, batch int) *Builder {
	if b.config == nil {
		b.config = DefaultConfig()
	}
	b.config.ReaperInterval = interval
	b.config.ReaperBatch = batch
	return b
}

// WithListener adds a listener for store events (may be called repeatedly)
func (b *Builder) WithListener(l kv.Listener) *Builder {
	if l != nil {
		b.listeners = append(b.listeners, l)
	}
	return b
}

// WithClock replaces the wall clock (optional, mostly for tests)
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build creates the Storage instance
func (b *Builder) Build() (*Storage, error) {
	if b.config == nil {
		b.config = DefaultConfig()
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []kv.Option{kv.WithShards(b.config.Shards)}
	switch len(b.listeners) {
	case 0:
	case 1:
		opts = append(opts, kv.WithListener(b.listeners[0]))
	default:
		opts = append(opts, kv.WithListener(b.listeners))
	}
	if b.clock != nil {
		opts = append(opts, kv.WithClock(b.clock))
	}
	store := kv.NewStore(opts...)

	var reaper *kv.Reaper
	if b.config.ReaperInterval > 0 {
		reaper = kv.NewReaper(store, b.config.ReaperInterval, b.config.ReaperBatch)
	}

	b.log.Info().
		Int("shards", b.config.Shards).
		Dur("reaper_interval", b.config.ReaperInterval).
		Int("listeners", len(b.listeners)).
		Msg("Storage built successfully")

	return newStorage(store, reaper), nil
}

// BuildAndStart creates, initializes, and starts the Storage instance
func (b *Builder) BuildAndStart(ctx context.Context) (*Storage, error) {
	storage, err := b.Build()
	if err != nil {
		return nil, err
	}

	if err := storage.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start storage: %w", err)
	}

	return storage, nil
}
