package kv

import (
	"sort"
	"sync"

	"github.com/google/btree"
)

const indexDegree = 32

// bucket holds every key sharing one exact expiration instant. A bucket in the
// tree is never empty.
type bucket struct {
	at   Timestamp
	keys map[string]struct{}
}

func bucketLess(a, b *bucket) bool {
	return a.at < b.at
}

// DueKey is a key whose recorded deadline has been reached
type DueKey struct {
	Key       string
	ExpiresAt Timestamp
}

// ExpirationIndex is an ordered mapping from expiration instant to the keys
// expiring at that instant. It is safe for concurrent use; the Store keeps it in
// lockstep with its entries.
type ExpirationIndex struct {
	mu   sync.Mutex
	tree *btree.BTreeG[*bucket]
	size int
}

// NewExpirationIndex creates an empty index
func NewExpirationIndex() *ExpirationIndex {
	return &ExpirationIndex{
		tree: btree.NewG(indexDegree, bucketLess),
	}
}

// Add records key under ts
func (idx *ExpirationIndex) Add(ts Timestamp, key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b, ok := idx.tree.Get(&bucket{at: ts})
	if !ok {
		b = &bucket{at: ts, keys: make(map[string]struct{}, 1)}
		idx.tree.ReplaceOrInsert(b)
	}
	if _, exists := b.keys[key]; !exists {
		b.keys[key] = struct{}{}
		idx.size++
	}
}

// Remove retracts key from ts and drops the bucket once it is empty.
// It reports whether the key was present.
func (idx *ExpirationIndex) Remove(ts Timestamp, key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b, ok := idx.tree.Get(&bucket{at: ts})
	if !ok {
		return false
	}
	if _, exists := b.keys[key]; !exists {
		return false
	}
	delete(b.keys, key)
	idx.size--
	if len(b.keys) == 0 {
		idx.tree.Delete(b)
	}
	return true
}

// Has reports whether key is recorded under ts
func (idx *ExpirationIndex) Has(ts Timestamp, key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b, ok := idx.tree.Get(&bucket{at: ts})
	if !ok {
		return false
	}
	_, exists := b.keys[key]
	return exists
}

// Due returns up to limit keys whose instant is at or before now, earliest
// first. A limit <= 0 means no limit. The index is not modified.
func (idx *ExpirationIndex) Due(now Timestamp, limit int) []DueKey {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var due []DueKey
	idx.tree.AscendLessThan(&bucket{at: now + 1}, func(b *bucket) bool {
		keys := make([]string, 0, len(b.keys))
		for k := range b.keys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if limit > 0 && len(due) >= limit {
				return false
			}
			due = append(due, DueKey{Key: k, ExpiresAt: b.at})
		}
		return limit <= 0 || len(due) < limit
	})
	return due
}

// Earliest returns the smallest recorded instant
func (idx *ExpirationIndex) Earliest() (Timestamp, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b, ok := idx.tree.Min()
	if !ok {
		return 0, false
	}
	return b.at, true
}

// Len returns the number of buckets
func (idx *ExpirationIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.tree.Len()
}

// Size returns the number of indexed keys
func (idx *ExpirationIndex) Size() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.size
}

// Snapshot copies the index contents, keys sorted within each bucket
func (idx *ExpirationIndex) Snapshot() map[Timestamp][]string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make(map[Timestamp][]string, idx.tree.Len())
	idx.tree.Ascend(func(b *bucket) bool {
		keys := make([]string, 0, len(b.keys))
		for k := range b.keys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out[b.at] = keys
		return true
	})
	return out
}

// Clear removes every bucket
func (idx *ExpirationIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Clear(false)
	idx.size = 0
}
