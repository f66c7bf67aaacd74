package snapshot

import (
	"context"
	"errors"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

// Persister stores and retrieves full store snapshots.
type Persister interface {
	// Save replaces the stored snapshot and returns the number of entries written.
	Save(ctx context.Context, entries map[string]domain.Entry) (int, error)

	// Load returns the stored snapshot, or an empty map if none exists.
	Load(ctx context.Context) (map[string]domain.Entry, error)

	// Close releases resources held by the persister.
	Close() error
}

// Errors.
var (
	ErrPersistenceDisabled = errors.New("snapshot: persistence disabled")
	ErrUnsupportedVersion  = errors.New("snapshot: unsupported format version")
	ErrEncrypted           = errors.New("snapshot: file is encrypted but no key is configured")
	ErrDecryptionFailed    = errors.New("snapshot: decryption failed, wrong key or corrupted data")
	ErrClosed              = errors.New("snapshot: persister closed")
)

// NopPersister is used when persistence is turned off.
type NopPersister struct{}

// Save always fails with ErrPersistenceDisabled.
func (NopPersister) Save(context.Context, map[string]domain.Entry) (int, error) {
	return 0, ErrPersistenceDisabled
}

// Load always returns an empty snapshot.
func (NopPersister) Load(context.Context) (map[string]domain.Entry, error) {
	return map[string]domain.Entry{}, nil
}

// Close is a no-op.
func (NopPersister) Close() error { return nil }
