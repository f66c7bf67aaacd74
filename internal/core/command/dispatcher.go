package command

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

// KV is the store surface the dispatcher drives.
type KV interface {
	Set(key, value string, expiresAt time.Time)
	Get(key string) (string, bool)
	Delete(key string) bool
	Expire(key string, ttl time.Duration) bool
	TTL(key string) domain.TTL
	Increment(key string) domain.IncrResult
	Keys() []string
	Clear()
	Snapshot() map[string]domain.Entry
}

// Saver persists a snapshot and returns the number of entries written.
type Saver interface {
	Save(ctx context.Context, entries map[string]domain.Entry) (int, error)
}

// Observer receives per-command measurements.
type Observer interface {
	ObserveCommand(command, result string, elapsed time.Duration)
	ObserveSnapshot(err error)
}

// Usage lines double as arity error messages.
const (
	usageSet    = "SET key value [EX seconds]"
	usageGet    = "GET key"
	usageDel    = "DEL key"
	usageExpire = "EXPIRE key seconds"
	usageTTL    = "TTL key"
	usageIncr   = "INCR key"
)

// Verbs lists every supported command in display order.
var Verbs = []string{"PING", "SET", "GET", "DEL", "EXPIRE", "TTL", "INCR", "KEYS", "FLUSHALL", "SAVE"}

// Dispatcher executes command lines against a KV store.
type Dispatcher struct {
	kv      KV
	saver   Saver
	metrics Observer
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithSaver sets the persister used by SAVE. Without one SAVE fails.
func WithSaver(s Saver) Option {
	return func(d *Dispatcher) {
		d.saver = s
	}
}

// WithObserver records command counts and latencies.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.metrics = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the time source used for SET ... EX.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a Dispatcher over kv.
func NewDispatcher(kv KV, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		kv:     kv,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process tokenizes line and executes it.
func (d *Dispatcher) Process(ctx context.Context, line string) string {
	tokens := Split(line)
	if len(tokens) == 0 {
		reply := Error(domain.ErrEmptyCommand)
		d.observe("unknown", reply, 0)
		return reply
	}
	return d.Call(ctx, tokens[0], tokens[1:]...)
}

// Call executes one command given as a verb and its arguments.
func (d *Dispatcher) Call(ctx context.Context, verb string, args ...string) string {
	start := time.Now()
	name := strings.ToUpper(verb)

	reply, known := d.dispatch(ctx, name, args)
	if !known {
		name = "unknown"
	}

	d.observe(name, reply, time.Since(start))
	return reply
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args []string) (string, bool) {
	switch name {
	case "PING":
		return ReplyPong, true
	case "SET":
		return d.set(args), true
	case "GET":
		return d.get(args), true
	case "DEL":
		return d.del(args), true
	case "EXPIRE":
		return d.expire(args), true
	case "TTL":
		return d.ttl(args), true
	case "INCR":
		return d.incr(args), true
	case "KEYS":
		return d.keys(), true
	case "FLUSHALL":
		d.kv.Clear()
		return ReplyOK, true
	case "SAVE":
		return d.save(ctx), true
	default:
		return Error(domain.UnknownCommand(name)), false
	}
}

// set handles SET key value [EX seconds]. A malformed EX suffix is
// ignored and the value is stored without expiration.
func (d *Dispatcher) set(args []string) string {
	if len(args) < 2 {
		return Error(domain.WrongArity(usageSet))
	}

	var expiresAt time.Time
	if len(args) >= 4 && strings.EqualFold(args[2], "EX") {
		if secs, err := parseSeconds(args[3]); err == nil {
			expiresAt = d.now().Add(secs)
		}
	}

	d.kv.Set(args[0], args[1], expiresAt)
	return ReplyOK
}

func (d *Dispatcher) get(args []string) string {
	if len(args) < 1 {
		return Error(domain.WrongArity(usageGet))
	}
	if v, ok := d.kv.Get(args[0]); ok {
		return v
	}
	return ReplyNil
}

func (d *Dispatcher) del(args []string) string {
	if len(args) < 1 {
		return Error(domain.WrongArity(usageDel))
	}
	return Bool(d.kv.Delete(args[0]))
}

func (d *Dispatcher) expire(args []string) string {
	if len(args) < 2 {
		return Error(domain.WrongArity(usageExpire))
	}
	secs, err := parseSeconds(args[1])
	if err != nil {
		return Error(domain.ErrSecondsNotInt)
	}
	return Bool(d.kv.Expire(args[0], secs))
}

func (d *Dispatcher) ttl(args []string) string {
	if len(args) < 1 {
		return Error(domain.WrongArity(usageTTL))
	}
	return Integer(d.kv.TTL(args[0]).Seconds())
}

func (d *Dispatcher) incr(args []string) string {
	if len(args) < 1 {
		return Error(domain.WrongArity(usageIncr))
	}
	r := d.kv.Increment(args[0])
	if !r.OK() {
		return Error(r.Err)
	}
	return Integer(r.Value)
}

func (d *Dispatcher) keys() string {
	keys := d.kv.Keys()
	if len(keys) == 0 {
		return ReplyEmpty
	}
	return strings.Join(keys, " ")
}

func (d *Dispatcher) save(ctx context.Context) string {
	n, err := d.Save(ctx)
	if err != nil {
		return Error(domain.ErrSaveFailed)
	}
	return Saved(n)
}

// Save snapshots the store and hands it to the configured Saver.
// The error is already logged; callers only need to report it.
func (d *Dispatcher) Save(ctx context.Context) (int, error) {
	if d.saver == nil {
		err := domain.ErrSaveFailed.WithMessage("persistence not configured")
		d.logger.Warn("save requested without a persister")
		d.observeSnapshot(err)
		return 0, err
	}

	n, err := d.saver.Save(ctx, d.kv.Snapshot())
	d.observeSnapshot(err)
	if err != nil {
		d.logger.Error("save failed", "error", err)
		return 0, domain.ErrSaveFailed.WithCause(err)
	}

	d.logger.Info("snapshot saved", "keys", n)
	return n, nil
}

func (d *Dispatcher) observe(name, reply string, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	result := "ok"
	if IsError(reply) {
		result = "error"
	}
	d.metrics.ObserveCommand(name, result, elapsed)
}

func (d *Dispatcher) observeSnapshot(err error) {
	if d.metrics != nil {
		d.metrics.ObserveSnapshot(err)
	}
}

// parseSeconds accepts a base-10 32-bit integer and returns it as a duration.
func parseSeconds(s string) (time.Duration, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
