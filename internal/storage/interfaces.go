package storage

import (
	"context"

	"github.com/tidekv/engine/internal/storage/kv"
)

// Lifecycle manages component lifecycle
type Lifecycle interface {
	// Start initializes and starts the component
	Start(ctx context.Context) error
	// Stop gracefully stops the component
	Stop(ctx context.Context) error
	// Ready returns true if the component is ready
	Ready() bool
}

// StorageBackend defines the interface for storage operations
type StorageBackend interface {
	Lifecycle
	// Store returns the shared entry store
	Store() *kv.Store
	// Stats returns a summary of the keyspace
	Stats() kv.Stats
}
