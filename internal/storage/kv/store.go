package kv

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/logger"
)

const (
	// DefaultShards is the default number of entry shards
	DefaultShards = 32
)

// Store is the concurrent key to entry mapping with an expiration index.
//
// Keys are spread over shards, each guarded by its own mutex, so operations on
// keys in different shards never contend. Every change to an entry's deadline
// updates the ExpirationIndex inside the same shard critical section; the lock
// order is always shard, then index.
type Store struct {
	shards   []*shard
	index    *ExpirationIndex
	clock    func() time.Time
	listener Listener
	keys     atomic.Int64
	log      zerolog.Logger
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// Option configures a Store
type Option func(*Store)

// WithShards sets the number of shards (values < 1 fall back to DefaultShards)
func WithShards(n int) Option {
	return func(s *Store) {
		if n < 1 {
			n = DefaultShards
		}
		s.shards = newShards(n)
	}
}

// WithClock replaces the wall clock used for deadlines
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithListener registers a listener for committed changes
func WithListener(l Listener) Option {
	return func(s *Store) {
		s.listener = l
	}
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		shards: newShards(DefaultShards),
		index:  NewExpirationIndex(),
		clock:  time.Now,
		log:    logger.WithComponent("kv"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return shards
}

// shardFor returns the shard owning key
func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Now returns the store's current time in epoch milliseconds
func (s *Store) Now() Timestamp {
	return TimestampOf(s.clock())
}

// Index exposes the expiration index for inspection
func (s *Store) Index() *ExpirationIndex {
	return s.index
}

// Set stores value under key, replacing any previous entry and its deadline
func (s *Store) Set(ctx context.Context, key string, value Value, options SetOptions) error {
	_, span := StartSetSpan(ctx, key)
	defer span.End()

	if key == "" {
		return InvalidKeyError{Key: key, Reason: "key cannot be empty"}
	}

	entry := &Entry{Value: value.Clone()}
	if options.TTL > 0 {
		ms := options.TTL.Milliseconds()
		if ms == 0 {
			ms = 1
		}
		entry.HasExpiry = true
		entry.ExpiresAt = s.Now() + Timestamp(ms)
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	old, existed := sh.entries[key]
	if existed && old.HasExpiry {
		s.index.Remove(old.ExpiresAt, key)
	}
	sh.entries[key] = entry
	if entry.HasExpiry {
		s.index.Add(entry.ExpiresAt, key)
	}
	if !existed {
		s.keys.Add(1)
	}
	sh.mu.Unlock()

	s.emit(Event{
		Type:      EventSet,
		Key:       key,
		ExpiresAt: entry.ExpiresAt,
		HasExpiry: entry.HasExpiry,
		Created:   !existed,
	})
	return nil
}

// Get returns a copy of the value stored under key. An entry found past its
// deadline is removed and reported absent.
func (s *Store) Get(ctx context.Context, key string) (Value, bool) {
	_, span := StartGetSpan(ctx, key)
	defer span.End()

	now := s.Now()
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok {
		sh.mu.Unlock()
		RecordMiss(span)
		return Value{}, false
	}
	if e.Expired(now) {
		s.removeLocked(sh, key, e)
		sh.mu.Unlock()
		s.expired(key, e.ExpiresAt, ReasonLazy)
		RecordMiss(span)
		return Value{}, false
	}
	v := e.Value.Clone()
	sh.mu.Unlock()

	RecordHit(span)
	return v, true
}

// Delete removes key regardless of its deadline and returns the value it held
func (s *Store) Delete(ctx context.Context, key string) (Value, bool) {
	_, span := StartDeleteSpan(ctx, key)
	defer span.End()

	sh := s.shardFor(key)
	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok {
		sh.mu.Unlock()
		RecordMiss(span)
		return Value{}, false
	}
	s.removeLocked(sh, key, e)
	sh.mu.Unlock()

	RecordHit(span)
	s.emit(Event{Type: EventDelete, Key: key})
	return e.Value, true
}

// SetExpiration installs an absolute deadline on a live key, replacing any
// previous one. It returns false when the key is absent, or when it was already
// past its deadline (the key is then removed).
func (s *Store) SetExpiration(ctx context.Context, key string, at Timestamp) bool {
	_, span := StartExpireSpan(ctx, key, at)
	defer span.End()

	now := s.Now()
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok {
		sh.mu.Unlock()
		RecordMiss(span)
		return false
	}
	if e.Expired(now) {
		s.removeLocked(sh, key, e)
		sh.mu.Unlock()
		s.expired(key, e.ExpiresAt, ReasonLazy)
		RecordMiss(span)
		return false
	}
	if e.HasExpiry {
		s.index.Remove(e.ExpiresAt, key)
	}
	sh.entries[key] = &Entry{Value: e.Value, ExpiresAt: at, HasExpiry: true}
	s.index.Add(at, key)
	sh.mu.Unlock()

	RecordHit(span)
	s.emit(Event{Type: EventExpire, Key: key, ExpiresAt: at, HasExpiry: true})
	return true
}

// TimeToLive returns the absolute deadline recorded for key. It reads metadata
// only and never expires the key.
func (s *Store) TimeToLive(ctx context.Context, key string) (Timestamp, bool) {
	_, span := StartTTLSpan(ctx, key)
	defer span.End()

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || !e.HasExpiry {
		RecordMiss(span)
		return 0, false
	}
	RecordHit(span)
	return e.ExpiresAt, true
}

// ReapExpired removes up to limit keys whose deadline has passed, scanning the
// index from its earliest instant. It returns the number of keys removed.
func (s *Store) ReapExpired(ctx context.Context, limit int) int {
	_, span := StartReapSpan(ctx, limit)
	defer span.End()

	now := s.Now()
	removed := 0
	for _, due := range s.index.Due(now, limit) {
		sh := s.shardFor(due.Key)
		sh.mu.Lock()
		e, ok := sh.entries[due.Key]
		// The candidate may have been rewritten since Due released the index.
		if !ok || !e.HasExpiry || e.ExpiresAt != due.ExpiresAt || !e.Expired(now) {
			sh.mu.Unlock()
			continue
		}
		s.removeLocked(sh, due.Key, e)
		sh.mu.Unlock()

		s.expired(due.Key, due.ExpiresAt, ReasonReaper)
		removed++
	}
	RecordReaped(span, removed)
	return removed
}

// Len returns the number of resident entries, including expired entries that
// have not been observed yet
func (s *Store) Len() int {
	return int(s.keys.Load())
}

// Stats returns a summary of the store
func (s *Store) Stats() Stats {
	return Stats{
		Keys:         s.Len(),
		ExpiringKeys: s.index.Size(),
		IndexBuckets: s.index.Len(),
		Shards:       len(s.shards),
	}
}

// removeLocked deletes key from its shard and retracts its deadline.
// The caller must hold sh.mu.
func (s *Store) removeLocked(sh *shard, key string, e *Entry) {
	delete(sh.entries, key)
	if e.HasExpiry {
		s.index.Remove(e.ExpiresAt, key)
	}
	s.keys.Add(-1)
}

func (s *Store) expired(key string, at Timestamp, reason string) {
	s.log.Debug().
		Str("key", key).
		Int64("expires_at", int64(at)).
		Str("reason", reason).
		Msg("Key expired")
	s.emit(Event{Type: EventExpired, Key: key, ExpiresAt: at, HasExpiry: true, Reason: reason})
}

func (s *Store) emit(ev Event) {
	if s.listener != nil {
		s.listener.OnEvent(ev)
	}
}
