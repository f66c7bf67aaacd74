package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

// Entries of one snapshot live under "e/<generation>/". currentKey names
// the generation Load reads; it only moves once a Save has fully flushed.
var (
	entryPrefix = []byte("e/")
	currentKey  = []byte("m/current")
)

// DefaultBadgerGCInterval is the value log GC period when none is configured.
const DefaultBadgerGCInterval = 10 * time.Minute

// BadgerConfig configures a BadgerPersister.
type BadgerConfig struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir string

	// InMemory runs Badger without touching disk. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// GCInterval is the period of value log garbage collection.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	Logger *slog.Logger
}

// BadgerPersister stores each snapshot entry as its own Badger key.
type BadgerPersister struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	// mu serializes saves, so generations are allocated one at a time,
	// and keeps a load from reading a generation a save is dropping.
	mu sync.Mutex

	lastGCTime atomic.Int64 // Unix milliseconds
	closed     atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerPersister opens (or creates) the database and starts the GC loop.
func NewBadgerPersister(cfg BadgerConfig) (*BadgerPersister, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, errors.New("badger: dir is required")
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultBadgerGCInterval
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	p := &BadgerPersister{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go p.gcLoop()

	logger.Info("badger persister opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return p, nil
}

// Save replaces every stored entry with entries. Entries with an
// expiration get a matching Badger TTL; those already past are skipped.
//
// The new snapshot is written under a fresh generation and becomes
// visible only after it is flushed, so a failed Save leaves the previous
// snapshot in place.
func (p *BadgerPersister) Save(ctx context.Context, entries map[string]domain.Entry) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current, _, err := p.currentGeneration()
	if err != nil {
		return 0, err
	}
	next := current + 1
	prefix := generationPrefix(next)

	// Clear leftovers of an earlier attempt that never became current.
	if err := p.db.DropPrefix(prefix); err != nil {
		return 0, fmt.Errorf("badger: clear generation %d: %w", next, err)
	}

	written, err := p.writeGeneration(prefix, entries)
	if err != nil {
		p.discard(prefix)
		return 0, err
	}

	if err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(currentKey, []byte(strconv.FormatUint(next, 10)))
	}); err != nil {
		p.discard(prefix)
		return 0, fmt.Errorf("badger: publish generation %d: %w", next, err)
	}

	if current > 0 {
		p.discard(generationPrefix(current))
	}
	return written, nil
}

func (p *BadgerPersister) writeGeneration(prefix []byte, entries map[string]domain.Entry) (int, error) {
	wb := p.db.NewWriteBatch()
	defer wb.Cancel()

	now := time.Now()
	written := 0
	for key, e := range entries {
		value, err := json.Marshal(fileEntry{Value: e.Value, ExpiresAt: e.ExpiresAt})
		if err != nil {
			return 0, fmt.Errorf("badger: marshal %q: %w", key, err)
		}

		be := badger.NewEntry(entryKey(prefix, key), value)
		if e.HasExpiry() {
			ttl := e.ExpiryTime().Sub(now)
			if ttl <= 0 {
				continue
			}
			be = be.WithTTL(ttl)
		}

		if err := wb.SetEntry(be); err != nil {
			return 0, fmt.Errorf("badger: write %q: %w", key, err)
		}
		written++
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("badger: flush: %w", err)
	}
	return written, nil
}

// discard drops a generation that is not, or is no longer, current.
func (p *BadgerPersister) discard(prefix []byte) {
	if err := p.db.DropPrefix(prefix); err != nil {
		p.logger.Warn("badger: drop stale generation", "prefix", string(prefix), "error", err)
	}
}

// currentGeneration returns the published generation. ok is false when
// nothing has been saved yet.
func (p *BadgerPersister) currentGeneration() (gen uint64, ok bool, err error) {
	err = p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(currentKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			n, err := strconv.ParseUint(string(v), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt generation %q: %w", v, err)
			}
			gen, ok = n, true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("badger: read generation: %w", err)
	}
	return gen, ok, nil
}

// Load returns every entry of the current generation Badger still
// considers live.
func (p *BadgerPersister) Load(ctx context.Context) (map[string]domain.Entry, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := map[string]domain.Entry{}
	gen, ok, err := p.currentGeneration()
	if err != nil || !ok {
		return out, err
	}
	prefix := generationPrefix(gen)

	err = p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			key := string(item.Key()[len(prefix):])

			var fe fileEntry
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &fe)
			}); err != nil {
				return fmt.Errorf("decode %q: %w", key, err)
			}
			out[key] = domain.Entry{Value: fe.Value, ExpiresAt: fe.ExpiresAt}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: load: %w", err)
	}
	return out, nil
}

// GC runs value log garbage collection until nothing more can be rewritten.
// In-memory databases have no value log and return immediately.
func (p *BadgerPersister) GC() error {
	if p.cfg.InMemory {
		return nil
	}

	start := time.Now()
	runs := 0
	for {
		err := p.db.RunValueLogGC(p.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return fmt.Errorf("badger: gc: %w", err)
		}
		runs++
	}

	p.lastGCTime.Store(time.Now().UnixMilli())
	p.logger.Debug("badger gc completed", "rewrites", runs, "elapsed", time.Since(start))
	return nil
}

// Collectors returns gauges reporting database size, for registration
// with the metrics registry.
func (p *BadgerPersister) Collectors() []prometheus.Collector {
	const ns, sub = "minikv", "badger"
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes",
		}, func() float64 {
			lsm, _ := p.db.Size()
			return float64(lsm)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes",
		}, func() float64 {
			_, vlog := p.db.Size()
			return float64(vlog)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "last_gc_timestamp_seconds",
			Help:      "Unix timestamp of the last Badger GC run",
		}, func() float64 {
			return float64(p.lastGCTime.Load()) / 1000.0
		}),
	}
}

// Close stops the GC loop and closes the database. Safe to call twice.
func (p *BadgerPersister) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(p.stopCh)
	<-p.doneCh

	if err := p.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	p.logger.Info("badger persister closed")
	return nil
}

func (p *BadgerPersister) gcLoop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.GC(); err != nil {
				p.logger.Error("auto gc failed", "error", err)
			}
		case <-p.stopCh:
			return
		}
	}
}

func generationPrefix(gen uint64) []byte {
	return fmt.Appendf(append([]byte(nil), entryPrefix...), "%016x/", gen)
}

func entryKey(prefix []byte, key string) []byte {
	k := make([]byte, 0, len(prefix)+len(key))
	k = append(k, prefix...)
	return append(k, key...)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
