package confloader

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minikv.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var calls atomic.Int32
	var seen atomic.Value
	w.OnChange(func(p string) {
		seen.Store(p)
		calls.Add(1)
	})

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	w.StartAsync()

	// Several quick writes are coalesced.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if !waitFor(t, func() bool { return calls.Load() > 0 }) {
		t.Fatal("callback not invoked")
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("callback invoked %d times, want 1", n)
	}

	abs, _ := filepath.Abs(path)
	if got := seen.Load(); got != abs {
		t.Errorf("callback path = %v, want %s", got, abs)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minikv.yaml")
	os.WriteFile(path, []byte("a: 1\n"), 0644)

	w, err := NewWatcher(WithDebounce(0))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var calls atomic.Int32
	w.OnChange(func(string) { calls.Add(1) })
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	w.StartAsync()

	os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644)
	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback invoked %d times for unrelated file", n)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Watch(filepath.Join(t.TempDir(), "missing", "minikv.yaml")); err == nil {
		t.Error("Watch() on missing directory should fail")
	}
}
