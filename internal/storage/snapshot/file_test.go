package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

func testEntries() map[string]domain.Entry {
	return map[string]domain.Entry{
		"plain":   {Value: "hello world"},
		"counter": {Value: "42"},
		"ttl":     domain.NewEntry("soon", time.Now().Add(time.Hour)),
	}
}

func newFilePersister(t *testing.T, key string) *FilePersister {
	t.Helper()
	c, err := NewCipher([]byte(key), "")
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	p, err := NewFilePersister(FileConfig{
		Path:   filepath.Join(t.TempDir(), "nested", "minikv.json"),
		Cipher: c,
	})
	if err != nil {
		t.Fatalf("NewFilePersister() error = %v", err)
	}
	return p
}

func TestNewFilePersister_RequiresPath(t *testing.T) {
	if _, err := NewFilePersister(FileConfig{}); err == nil {
		t.Error("NewFilePersister without path should fail")
	}
}

func TestFilePersister_LoadMissing(t *testing.T) {
	p := newFilePersister(t, "")

	got, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Load() = %v, want empty non-nil map", got)
	}
}

func TestFilePersister_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"plain", ""},
		{"encrypted", "0123456789abcdef0123456789abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFilePersister(t, tt.key)
			ctx := context.Background()
			want := testEntries()

			n, err := p.Save(ctx, want)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if n != len(want) {
				t.Errorf("Save() = %d, want %d", n, len(want))
			}

			got, err := p.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("Load() returned %d entries, want %d", len(got), len(want))
			}
			for k, e := range want {
				if got[k] != e {
					t.Errorf("entry %q = %+v, want %+v", k, got[k], e)
				}
			}

			raw, _ := os.ReadFile(p.Path())
			if encrypted := tt.key != ""; encrypted == strings.Contains(string(raw), "hello world") {
				t.Errorf("plaintext visibility wrong for encrypted=%v: %s", encrypted, raw)
			}
		})
	}
}

func TestFilePersister_Format(t *testing.T) {
	p := newFilePersister(t, "")
	exp := time.UnixMilli(1_900_000_000_000)

	if _, err := p.Save(context.Background(), map[string]domain.Entry{
		"a": {Value: "1"},
		"b": domain.NewEntry("2", exp),
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(p.Path())
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Version   int                       `json:"version"`
		CreatedAt int64                     `json:"created_at"`
		Encrypted bool                      `json:"encrypted"`
		Entries   map[string]map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc.Version != 1 || doc.Encrypted || doc.CreatedAt == 0 {
		t.Errorf("header = %+v", doc)
	}
	if _, ok := doc.Entries["a"]["expires_at"]; ok {
		t.Error("entry without expiry should omit expires_at")
	}
	if got := doc.Entries["b"]["expires_at"]; got != float64(exp.UnixMilli()) {
		t.Errorf("b.expires_at = %v, want %d", got, exp.UnixMilli())
	}
}

func TestFilePersister_SaveReplacesAtomically(t *testing.T) {
	p := newFilePersister(t, "")
	ctx := context.Background()

	if _, err := p.Save(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Save(ctx, map[string]domain.Entry{"only": {Value: "x"}}); err != nil {
		t.Fatal(err)
	}

	got, _ := p.Load(ctx)
	if len(got) != 1 || got["only"].Value != "x" {
		t.Errorf("Load() after second Save = %v", got)
	}

	// No temp files are left behind.
	files, _ := os.ReadDir(filepath.Dir(p.Path()))
	if len(files) != 1 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Errorf("directory contains %v, want only the snapshot", names)
	}
}

func TestFilePersister_FailedSaveKeepsPrevious(t *testing.T) {
	p := newFilePersister(t, "")
	ctx := context.Background()

	if _, err := p.Save(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(p.Path())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := p.Save(cancelled, map[string]domain.Entry{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Save(cancelled) error = %v, want context.Canceled", err)
	}

	// Make the directory unwritable so the temp file cannot be created.
	dir := filepath.Dir(p.Path())
	if err := os.Chmod(dir, 0500); err != nil {
		t.Skip("chmod not supported")
	}
	defer os.Chmod(dir, 0750)

	if os.Geteuid() != 0 {
		if _, err := p.Save(ctx, map[string]domain.Entry{}); err == nil {
			t.Error("Save into read-only dir should fail")
		}
	}

	after, _ := os.ReadFile(p.Path())
	if string(before) != string(after) {
		t.Error("failed save modified the existing snapshot")
	}
}

func TestFilePersister_EncryptedErrors(t *testing.T) {
	ctx := context.Background()
	p := newFilePersister(t, "0123456789abcdef0123456789abcdef")
	if _, err := p.Save(ctx, testEntries()); err != nil {
		t.Fatal(err)
	}

	t.Run("no key", func(t *testing.T) {
		plain, _ := NewFilePersister(FileConfig{Path: p.Path()})
		if _, err := plain.Load(ctx); !errors.Is(err, ErrEncrypted) {
			t.Errorf("Load() error = %v, want ErrEncrypted", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		c, _ := NewCipher([]byte("another key of sufficient length"), "")
		other, _ := NewFilePersister(FileConfig{Path: p.Path(), Cipher: c})
		if _, err := other.Load(ctx); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("Load() error = %v, want ErrDecryptionFailed", err)
		}
	})
}

func TestFilePersister_CorruptFile(t *testing.T) {
	p := newFilePersister(t, "")
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"garbage", "not json", nil},
		{"future version", `{"version":2,"entries":{}}`, ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(p.Path(), []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := p.Load(ctx)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNopPersister(t *testing.T) {
	var p Persister = NopPersister{}
	ctx := context.Background()

	if _, err := p.Save(ctx, testEntries()); !errors.Is(err, ErrPersistenceDisabled) {
		t.Errorf("Save() error = %v, want ErrPersistenceDisabled", err)
	}
	got, err := p.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Errorf("Load() = %v, %v; want empty, nil", got, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
