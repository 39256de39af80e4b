package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/storage/kv"
)

// Storage owns the entry store shared by every connection and the optional
// reaper that sweeps it
type Storage struct {
	store  *kv.Store
	reaper *kv.Reaper
	log    zerolog.Logger
	mu     sync.RWMutex
	ready  bool
	closed bool
}

var _ StorageBackend = (*Storage)(nil)

// New creates a storage system with the default configuration
func New() (*Storage, error) {
	return NewBuilder().Build()
}

// Store returns the entry store
func (s *Storage) Store() *kv.Store {
	return s.store
}

// Stats returns a summary of the keyspace
func (s *Storage) Stats() kv.Stats {
	return s.store.Stats()
}

// Start starts background maintenance. The store itself needs no startup.
func (s *Storage) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	if s.ready {
		return nil
	}

	if s.reaper != nil {
		// The reaper outlives the caller's context; Stop ends it.
		if err := s.reaper.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to start TTL reaper: %w", err)
		}
	}

	s.ready = true
	s.log.Info().
		Int("shards", s.store.Stats().Shards).
		Bool("reaper", s.reaper != nil).
		Msg("Storage started")
	return nil
}

// Stop stops background maintenance. Entries are dropped with the process.
func (s *Storage) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	var lastErr error
	if s.reaper != nil {
		if err := s.reaper.Stop(ctx); err != nil {
			s.log.Error().Err(err).Msg("Failed to stop TTL reaper")
			lastErr = err
		}
	}

	s.ready = false
	s.closed = true
	s.log.Info().Int("keys", s.store.Len()).Msg("Storage stopped")

	return lastErr
}

// Ready returns true once started and until stopped
func (s *Storage) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func newStorage(store *kv.Store, reaper *kv.Reaper) *Storage {
	return &Storage{
		store:  store,
		reaper: reaper,
		log:    logger.WithComponent("storage"),
	}
}
