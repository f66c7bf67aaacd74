package cmap

import (
	"fmt"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the shard count used by New.
const DefaultShardCount = 16

// Map is a concurrent-safe sharded map.
type Map[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a new sharded map with the default shard count.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithShards[K, V](DefaultShardCount)
}

// NewWithShards creates a new sharded map with the specified shard count.
// shardCount must be a power of 2; anything else falls back to DefaultShardCount.
func NewWithShards[K comparable, V any](shardCount int) *Map[K, V] {
	if !IsPowerOfTwo(shardCount) {
		shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}
	return m
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	var sum uint64
	switch k := any(key).(type) {
	case string:
		sum = murmur3.Sum64([]byte(k))
	default:
		sum = murmur3.Sum64([]byte(fmt.Sprint(k)))
	}
	return m.shards[sum&m.shardMask]
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.items[key]
	return val, ok
}

// Set stores a key-value pair.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Delete removes a key.
func (m *Map[K, V]) Delete(key K) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Pop removes a key and returns its value.
// Returns the value and true if the key existed, zero value and false otherwise.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return val, ok
}

// DeleteIf removes key only if pred holds for its current value.
// The predicate runs under the shard write lock.
func (m *Map[K, V]) DeleteIf(key K, pred func(value V) bool) bool {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.items[key]
	if !ok || !pred(val) {
		return false
	}
	delete(s.items, key)
	return true
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, s := range m.shards {
		s.mu.RLock()
		count += len(s.items)
		s.mu.RUnlock()
	}
	return count
}

// Clear removes all items, one shard at a time.
func (m *Map[K, V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.items = make(map[K]V)
		s.mu.Unlock()
	}
}

// GetOrSet returns the existing value for a key, or stores and returns value if absent.
// The boolean reports whether the value was already present.
func (m *Map[K, V]) GetOrSet(key K, value V) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[key]; ok {
		return existing, true
	}
	s.items[key] = value
	return value, false
}

// Compute atomically derives a new value for key.
//
// fn receives the current value (zero if absent) and whether it exists, and
// returns the replacement plus whether to store it. Returning store=false
// leaves the slot exactly as it was. Compute returns the value held by the
// slot afterwards and whether the slot is occupied.
//
// fn runs under the shard write lock and must not call back into the map.
func (m *Map[K, V]) Compute(key K, fn func(old V, exists bool) (V, bool)) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.items[key]
	next, store := fn(old, exists)
	if !store {
		return old, exists
	}
	s.items[key] = next
	return next, true
}

// ShardCount returns the number of shards.
func (m *Map[K, V]) ShardCount() int {
	return len(m.shards)
}

// ShardStats describes the occupancy of one shard.
type ShardStats struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

// Stats returns statistics about all shards.
func (m *Map[K, V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, s := range m.shards {
		s.mu.RLock()
		stats[i] = ShardStats{Index: i, Count: len(s.items)}
		s.mu.RUnlock()
	}
	return stats
}
