package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	// CipherAuto picks AES-GCM or ChaCha20-Poly1305 for the running architecture.
	CipherAuto     CipherType = "auto"
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the key length accepted by every cipher type.
const KeySize = 32

// Errors.
var (
	ErrInvalidKeySize     = fmt.Errorf("adaptive: key must be %d bytes", KeySize)
	ErrUnknownCipher      = errors.New("adaptive: unknown cipher type")
	ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the concrete algorithm, never CipherAuto.
	Type() CipherType

	// Seal encrypts plaintext and returns nonce||ciphertext||tag.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open reverses Seal. It fails if the data or additionalData was altered.
	Open(sealed, additionalData []byte) ([]byte, error)

	// Overhead is the number of bytes Seal adds to the plaintext.
	Overhead() int
}

// ParseType maps a configuration value to a CipherType. The empty
// string selects CipherAuto.
func ParseType(s string) (CipherType, error) {
	switch t := CipherType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", CipherAuto:
		return CipherAuto, nil
	case CipherAESGCM, CipherChaCha20:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCipher, s)
	}
}

// NewWithType creates a cipher of the given type.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	if t == CipherAuto {
		t = preferredType()
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch t {
	case CipherAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, t)
	}
	if err != nil {
		return nil, fmt.Errorf("adaptive: init %s: %w", t, err)
	}

	return &aeadCipher{typ: t, aead: aead}, nil
}

// preferredType returns AES-GCM where crypto/aes uses AES-NI or the ARMv8
// crypto extensions.
func preferredType() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.typ }

func (c *aeadCipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

func (c *aeadCipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: read nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Open(sealed, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, sealed[:n], sealed[n:], additionalData)
}
