package textserver

import (
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/minikv-go/pkg/cmap"
)

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cmap.Map[string, *bucket]
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// newIPLimiter returns nil when perSecond is not positive, which
// disables limiting.
func newIPLimiter(perSecond float64) *ipLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &ipLimiter{
		limit:   rate.Limit(perSecond),
		burst:   int(math.Max(1, math.Ceil(perSecond))),
		buckets: cmap.New[string, *bucket](),
		now:     time.Now,
	}
}

// allow consumes one token for ip.
func (l *ipLimiter) allow(ip string) bool {
	if l == nil {
		return true
	}
	b, ok := l.buckets.Get(ip)
	if !ok {
		b, _ = l.buckets.GetOrSet(ip, &bucket{lim: rate.NewLimiter(l.limit, l.burst)})
	}
	now := l.now()
	b.lastSeen.Store(now.UnixNano())
	return b.lim.AllowN(now, 1)
}

// prune drops buckets unused for longer than idle and returns how many
// were removed.
func (l *ipLimiter) prune(idle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-idle).UnixNano()

	var stale []string
	l.buckets.Range(func(ip string, b *bucket) bool {
		if b.lastSeen.Load() < cutoff {
			stale = append(stale, ip)
		}
		return true
	})

	removed := 0
	for _, ip := range stale {
		if l.buckets.DeleteIf(ip, func(b *bucket) bool { return b.lastSeen.Load() < cutoff }) {
			removed++
		}
	}
	return removed
}

func (l *ipLimiter) size() int {
	if l == nil {
		return 0
	}
	return l.buckets.Count()
}
