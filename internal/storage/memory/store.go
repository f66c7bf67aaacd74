package memory

import (
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/yndnr/minikv-go/internal/core/domain"
	"github.com/yndnr/minikv-go/pkg/cmap"
)

// DefaultShardCount is used when no shard count option is given.
const DefaultShardCount = 32

// Store is a concurrent key/value store with per-key expiration.
type Store struct {
	entries *cmap.Map[string, domain.Entry]

	now        func() time.Time
	logger     *slog.Logger
	shardCount int

	lazyExpired  atomic.Uint64
	sweptExpired atomic.Uint64
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source. Tests use it to control expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithShardCount sets the number of map shards. Must be a power of two.
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// WithLogger sets the store logger, also used by the sweeper.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		logger:     slog.Default(),
		shardCount: DefaultShardCount,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.entries = cmap.NewWithShards[string, domain.Entry](s.shardCount)
	if n := s.entries.ShardCount(); n != s.shardCount {
		s.logger.Warn("shard count is not a power of two, using default",
			"requested", s.shardCount, "shards", n)
		s.shardCount = n
	}
	return s
}

// Set stores value under key, replacing any previous entry and its
// expiration. A zero expiresAt means the entry never expires.
func (s *Store) Set(key, value string, expiresAt time.Time) {
	s.entries.Set(key, domain.NewEntry(value, expiresAt))
}

// Get returns the value for key. A logically expired entry is reported
// as missing and removed.
func (s *Store) Get(key string) (string, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return "", false
	}

	now := s.now()
	if e.IsExpiredAt(now) {
		s.removeExpired(key, now, &s.lazyExpired)
		return "", false
	}
	return e.Value, true
}

// Delete removes key and reports whether an entry was resident,
// including one that had already expired.
func (s *Store) Delete(key string) bool {
	_, ok := s.entries.Pop(key)
	return ok
}

// Expire sets the expiration of a resident entry to now+ttl and keeps
// its value. An expired entry that has not been removed yet is revived.
// Returns false when no entry is resident.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	deadline := s.now().Add(ttl)
	_, applied := s.entries.Compute(key, func(old domain.Entry, exists bool) (domain.Entry, bool) {
		if !exists {
			return old, false
		}
		return old.WithExpiry(deadline), true
	})
	return applied
}

// TTL reports the remaining lifetime of key.
func (s *Store) TTL(key string) domain.TTL {
	e, ok := s.entries.Get(key)
	if !ok {
		return domain.TTL{Kind: domain.TTLNoSuchKey}
	}
	if !e.HasExpiry() {
		return domain.TTL{Kind: domain.TTLNoExpiry}
	}

	now := s.now()
	if e.IsExpiredAt(now) {
		return domain.TTL{Kind: domain.TTLNoSuchKey}
	}
	return domain.TTL{Kind: domain.TTLRemaining, Remaining: e.ExpiryTime().Sub(now)}
}

// Increment adds one to the integer stored at key.
//
// A missing or expired key starts at 1 with no expiration. An existing
// integer keeps its expiration. A value that is not a base-10 int64 is
// left untouched and the result carries domain.ErrNotInteger; one at
// math.MaxInt64 is left untouched with domain.ErrIncrOverflow.
func (s *Store) Increment(key string) domain.IncrResult {
	now := s.now()
	var result domain.IncrResult

	s.entries.Compute(key, func(old domain.Entry, exists bool) (domain.Entry, bool) {
		if !exists || old.IsExpiredAt(now) {
			result = domain.IncrOK(1)
			return domain.Entry{Value: "1"}, true
		}

		n, err := strconv.ParseInt(old.Value, 10, 64)
		if err != nil {
			result = domain.IncrFailed(domain.ErrNotInteger)
			return old, false
		}
		if n == math.MaxInt64 {
			result = domain.IncrFailed(domain.ErrIncrOverflow)
			return old, false
		}

		n++
		result = domain.IncrOK(n)
		return domain.Entry{Value: strconv.FormatInt(n, 10), ExpiresAt: old.ExpiresAt}, true
	})

	return result
}

// Keys returns every resident key, expired or not, in no particular order.
func (s *Store) Keys() []string {
	return s.entries.Keys()
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.entries.Clear()
}

// Count returns the number of resident entries.
func (s *Store) Count() int {
	return s.entries.Count()
}

// Snapshot returns a copy of every entry still live at the time of the
// call.
func (s *Store) Snapshot() map[string]domain.Entry {
	now := s.now()
	out := make(map[string]domain.Entry, s.entries.Count())
	s.entries.Range(func(key string, e domain.Entry) bool {
		if !e.IsExpiredAt(now) {
			out[key] = e
		}
		return true
	})
	return out
}

// Restore inserts entries loaded from a snapshot, keeping their
// expiration. Entries already expired are dropped. Returns the number
// inserted.
func (s *Store) Restore(entries map[string]domain.Entry) int {
	now := s.now()
	restored := 0
	for key, e := range entries {
		if e.IsExpiredAt(now) {
			continue
		}
		s.entries.Set(key, e)
		restored++
	}
	return restored
}

// Stats is a point-in-time view used by metrics and /health.
type Stats struct {
	Keys         int               `json:"keys"`
	LazyExpired  uint64            `json:"lazy_expired"`
	SweptExpired uint64            `json:"swept_expired"`
	Shards       []cmap.ShardStats `json:"shards,omitempty"`
}

// Stats returns entry counts and expiration totals.
func (s *Store) Stats() Stats {
	shards := s.entries.Stats()
	total := 0
	for _, sh := range shards {
		total += sh.Count
	}
	return Stats{
		Keys:         total,
		LazyExpired:  s.lazyExpired.Load(),
		SweptExpired: s.sweptExpired.Load(),
		Shards:       shards,
	}
}

// removeExpired deletes key only if the resident entry is still expired
// at now. counter is bumped on removal.
func (s *Store) removeExpired(key string, now time.Time, counter *atomic.Uint64) bool {
	removed := s.entries.DeleteIf(key, func(cur domain.Entry) bool {
		return cur.IsExpiredAt(now)
	})
	if removed {
		counter.Add(1)
	}
	return removed
}
