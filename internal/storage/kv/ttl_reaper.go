package kv

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/logger"
)

const (
	// DefaultTTLReaperBatch is the default maximum number of keys removed per pass
	DefaultTTLReaperBatch = 256
)

// Reaper actively removes expired keys by scanning the front of the store's
// expiration index at a fixed interval. Without a reaper, expiration is
// enforced only when a key is read.
type Reaper struct {
	store    *Store
	interval time.Duration
	batch    int
	log      zerolog.Logger

	mu     sync.Mutex
	ready  bool
	stopCh chan struct{}
	done   chan struct{}
}

// NewReaper creates a reaper for store
func NewReaper(store *Store, interval time.Duration, batch int) *Reaper {
	if batch <= 0 {
		batch = DefaultTTLReaperBatch
	}
	return &Reaper{
		store:    store,
		interval: interval,
		batch:    batch,
		log:      logger.WithComponent("kv.reaper"),
	}
}

// Start launches the background goroutine
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return nil
	}

	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(ctx, r.stopCh, r.done)

	r.ready = true
	return nil
}

// Stop stops the background goroutine and waits for it to exit
func (r *Reaper) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return nil
	}

	close(r.stopCh)
	r.stopCh = nil
	r.ready = false

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready returns true while the reaper is running
func (r *Reaper) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *Reaper) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Int("batch", r.batch).Msg("TTL reaper started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("TTL reaper stopped due to context cancellation")
			return
		case <-stopCh:
			r.log.Info().Msg("TTL reaper stopped")
			return
		case <-ticker.C:
			r.reapOnce(ctx)
		}
	}
}

// reapOnce keeps draining full batches so a backlog clears within one tick
func (r *Reaper) reapOnce(ctx context.Context) int {
	total := 0
	for {
		n := r.store.ReapExpired(ctx, r.batch)
		total += n
		if n < r.batch || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		r.log.Debug().Int("deleted", total).Msg("TTL reaper completed")
	}
	return total
}
