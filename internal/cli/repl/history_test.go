package repl

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHistory_AddAndGet(t *testing.T) {
	h := NewHistory("")
	h.Add("PING")
	h.Add("GET a")
	h.Add("GET a")

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (consecutive duplicate dropped)", h.Len())
	}
	if h.Get(0) != "GET a" || h.Get(1) != "PING" {
		t.Errorf("Get(0)=%q Get(1)=%q", h.Get(0), h.Get(1))
	}
	if h.Get(2) != "" || h.Get(-1) != "" {
		t.Error("out of range Get should return empty")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 3
	for i := 0; i < 5; i++ {
		h.Add(fmt.Sprintf("INCR %d", i))
	}
	want := []string{"INCR 2", "INCR 3", "INCR 4"}
	if got := h.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file)
	h.Add("SET a 1")
	h.Add("GET a")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded := NewHistory(file)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Entries(); !reflect.DeepEqual(got, []string{"SET a 1", "GET a"}) {
		t.Errorf("Entries() = %v", got)
	}
}

func TestHistory_NoFile(t *testing.T) {
	h := NewHistory("")
	h.Add("PING")
	if err := h.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}

	missing := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := missing.Load(); err != nil {
		t.Errorf("Load() of missing file error = %v", err)
	}
}
