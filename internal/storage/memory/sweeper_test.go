package memory

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestSweep(t *testing.T) {
	s, clock := newTestStore(t)

	for i := 0; i < 20; i++ {
		exp := time.Time{}
		if i%2 == 0 {
			exp = clock.Now().Add(time.Second)
		}
		s.Set(strconv.Itoa(i), "v", exp)
	}
	clock.Advance(time.Second)

	if n := s.Sweep(); n != 10 {
		t.Errorf("Sweep removed %d, want 10", n)
	}
	if s.Count() != 10 {
		t.Errorf("Count = %d, want 10", s.Count())
	}
	if got := s.Stats().SweptExpired; got != 10 {
		t.Errorf("SweptExpired = %d, want 10", got)
	}
	if n := s.Sweep(); n != 0 {
		t.Errorf("second Sweep removed %d, want 0", n)
	}
}

func TestSweep_KeepsFreshOverwrite(t *testing.T) {
	s, clock := newTestStore(t)

	s.Set("k", "old", clock.Now().Add(time.Second))
	clock.Advance(time.Second)
	s.Set("k", "new", time.Time{})

	s.Sweep()
	if v, ok := s.Get("k"); !ok || v != "new" {
		t.Errorf("Get = %q, %v; want new, true", v, ok)
	}
}

func TestStartSweeper_RemovesWithoutReads(t *testing.T) {
	s := New()
	s.Set("short", "v", time.Now().Add(50*time.Millisecond))
	s.Set("long", "v", time.Time{})

	stop := s.StartSweeper(25 * time.Millisecond)
	defer stop()

	time.Sleep(150 * time.Millisecond)

	// Keys is physical, so only the sweeper can have removed "short".
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "long" {
		t.Errorf("Keys = %v, want [long]", keys)
	}
}

func TestStartSweeper_StopIsIdempotent(t *testing.T) {
	s := New()
	stop := s.StartSweeper(10 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stop()
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
	stop()
}

func TestStartSweeper_DefaultPeriod(t *testing.T) {
	s := New()
	stop := s.StartSweeper(0)
	stop()
}
