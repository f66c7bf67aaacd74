package memory

import (
	"sync"
	"time"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

// DefaultSweepInterval is used when StartSweeper is given a non-positive period.
const DefaultSweepInterval = time.Second

// Sweep removes every entry expired at the time of the call and returns
// how many were removed. Keys are collected shard by shard, then each is
// removed with its own DeleteIf so no lock is held across the pass.
func (s *Store) Sweep() int {
	now := s.now()

	var expired []string
	s.entries.Range(func(key string, e domain.Entry) bool {
		if e.IsExpiredAt(now) {
			expired = append(expired, key)
		}
		return true
	})

	removed := 0
	for _, key := range expired {
		if s.removeExpired(key, now, &s.sweptExpired) {
			removed++
		}
	}
	return removed
}

// StartSweeper launches the background expiration loop. The returned
// stop function signals the loop, waits for it to exit and is safe to
// call more than once. A pass already running finishes before exit.
func (s *Store) StartSweeper(period time.Duration) (stop func()) {
	if period <= 0 {
		period = DefaultSweepInterval
	}

	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			default:
			}

			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept expired keys", "removed", n)
			}

			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}
