package snapshot

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/minikv-go/pkg/crypto/adaptive"
)

// MinKeyLength is the minimum length of a configured encryption key.
const MinKeyLength = 16

// ErrKeyTooShort is returned for keys shorter than MinKeyLength.
var ErrKeyTooShort = errors.New("snapshot: encryption key too short (minimum 16 bytes)")

// subkeyInfo binds derived keys to snapshot encryption so the same master
// key can safely serve other purposes.
const subkeyInfo = "minikv snapshot"

// sealAAD is authenticated with every sealed payload.
var sealAAD = []byte("minikv snapshot v1")

// NewCipher derives a snapshot cipher from a configured master key.
// An empty key disables encryption and returns a nil cipher.
// algorithm is "aes-gcm", "chacha20-poly1305", or empty for automatic.
func NewCipher(key []byte, algorithm string) (adaptive.Cipher, error) {
	if len(key) == 0 {
		return nil, nil
	}

	typ, err := adaptive.ParseType(algorithm)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	subkey, err := DeriveSubkey(key, subkeyInfo, adaptive.KeySize)
	if err != nil {
		return nil, err
	}
	defer ZeroKey(subkey)

	return adaptive.NewWithType(subkey, typ)
}

// DeriveSubkey derives a subkey from a master key using HKDF-SHA256.
func DeriveSubkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	return key, nil
}

// ZeroKey overwrites key material in place.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
