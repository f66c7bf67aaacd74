// Package cmap provides the sharded concurrent map behind the minikv store.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash. Every shard owns a sync.RWMutex and a plain Go map, so operations
// on keys in different shards never contend, and no method ever holds more
// than one shard lock at a time.
//
// Read-modify-write sequences on a single key go through Compute, which runs
// the caller's closure while holding that key's shard write lock:
//
//	m := cmap.NewWithShards[string, int](32)
//	m.Compute("hits", func(old int, ok bool) (int, bool) {
//		return old + 1, true
//	})
//
// Range visits shards one at a time under their read lock; the view it
// yields is per-shard consistent only.
package cmap
