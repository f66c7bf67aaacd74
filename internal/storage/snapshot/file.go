package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yndnr/minikv-go/internal/core/domain"
	"github.com/yndnr/minikv-go/pkg/crypto/adaptive"
)

const formatVersion = 1

type fileDocument struct {
	Version   int             `json:"version"`
	CreatedAt int64           `json:"created_at"`
	Encrypted bool            `json:"encrypted"`
	Entries   json.RawMessage `json:"entries,omitempty"`
	Sealed    []byte          `json:"sealed,omitempty"`
}

type fileEntry struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// FileConfig configures a FilePersister.
type FileConfig struct {
	// Path is the snapshot file. Its directory is created if missing.
	Path string

	// Cipher seals the entries when set.
	Cipher adaptive.Cipher

	Logger *slog.Logger
}

// FilePersister stores snapshots as a single JSON file.
type FilePersister struct {
	path   string
	cipher adaptive.Cipher
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFilePersister creates a persister writing to cfg.Path.
func NewFilePersister(cfg FileConfig) (*FilePersister, error) {
	if cfg.Path == "" {
		return nil, errors.New("snapshot: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FilePersister{
		path:   cfg.Path,
		cipher: cfg.Cipher,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Path returns the snapshot file path.
func (p *FilePersister) Path() string {
	return p.path
}

// Save atomically replaces the snapshot file. The previous file is left
// untouched if any step fails.
func (p *FilePersister) Save(ctx context.Context, entries map[string]domain.Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	encoded := make(map[string]fileEntry, len(entries))
	for k, e := range entries {
		encoded[k] = fileEntry{Value: e.Value, ExpiresAt: e.ExpiresAt}
	}

	body, err := json.Marshal(encoded)
	if err != nil {
		return 0, fmt.Errorf("snapshot: marshal entries: %w", err)
	}

	doc := fileDocument{
		Version:   formatVersion,
		CreatedAt: p.now().UnixMilli(),
	}
	if p.cipher != nil {
		sealed, err := p.cipher.Seal(body, sealAAD)
		if err != nil {
			return 0, fmt.Errorf("snapshot: encrypt: %w", err)
		}
		doc.Encrypted = true
		doc.Sealed = sealed
	} else {
		doc.Entries = body
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("snapshot: marshal document: %w", err)
	}

	if err := writeFileAtomic(p.path, data); err != nil {
		return 0, err
	}

	p.logger.Debug("snapshot written", "path", p.path, "keys", len(entries), "bytes", len(data))
	return len(entries), nil
}

// Load reads the snapshot file. A missing file yields an empty map.
func (p *FilePersister) Load(ctx context.Context) (map[string]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]domain.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: decode document: %w", err)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	body := []byte(doc.Entries)
	if doc.Encrypted {
		if p.cipher == nil {
			return nil, ErrEncrypted
		}
		body, err = p.cipher.Open(doc.Sealed, sealAAD)
		if err != nil {
			return nil, ErrDecryptionFailed
		}
	}

	out := map[string]domain.Entry{}
	if len(body) == 0 {
		return out, nil
	}

	var decoded map[string]fileEntry
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("snapshot: decode entries: %w", err)
	}
	for k, e := range decoded {
		out[k] = domain.Entry{Value: e.Value, ExpiresAt: e.ExpiresAt}
	}
	return out, nil
}

// Close is a no-op; the file is only open during Save and Load.
func (p *FilePersister) Close() error {
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory,
// fsyncs it and renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}
