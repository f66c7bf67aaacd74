package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    CipherType
		wantErr bool
	}{
		{"", CipherAuto, false},
		{"auto", CipherAuto, false},
		{"AES-GCM", CipherAESGCM, false},
		{" chacha20-poly1305 ", CipherChaCha20, false},
		{"des", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWithType_AutoPicksConcreteType(t *testing.T) {
	c, err := NewWithType(testKey(), CipherAuto)
	if err != nil {
		t.Fatalf("NewWithType(auto) error = %v", err)
	}
	if typ := c.Type(); typ != CipherAESGCM && typ != CipherChaCha20 {
		t.Errorf("Type() = %q, want a concrete algorithm", typ)
	}
}

func TestNewWithType_Errors(t *testing.T) {
	if _, err := NewWithType(make([]byte, 16), CipherAESGCM); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("short key error = %v, want ErrInvalidKeySize", err)
	}
	if _, err := NewWithType(testKey(), "rot13"); !errors.Is(err, ErrUnknownCipher) {
		t.Errorf("unknown type error = %v, want ErrUnknownCipher", err)
	}
}

func TestSealOpen(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(testKey(), typ)
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}
			if c.Type() != typ {
				t.Errorf("Type() = %q, want %q", c.Type(), typ)
			}

			plaintext := []byte(`{"a":{"value":"1"}}`)
			aad := []byte("minikv")

			sealed, err := c.Seal(plaintext, aad)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if len(sealed) != len(plaintext)+c.Overhead() {
				t.Errorf("sealed length = %d, want %d", len(sealed), len(plaintext)+c.Overhead())
			}

			opened, err := c.Open(sealed, aad)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("Open() = %q, want %q", opened, plaintext)
			}

			// Nonces are random, so sealing twice differs.
			again, _ := c.Seal(plaintext, aad)
			if bytes.Equal(sealed, again) {
				t.Error("two Seal calls produced identical output")
			}

			if _, err := c.Open(sealed, []byte("other")); err == nil {
				t.Error("Open with different additional data should fail")
			}

			tampered := append([]byte(nil), sealed...)
			tampered[len(tampered)-1] ^= 0xff
			if _, err := c.Open(tampered, aad); err == nil {
				t.Error("Open of tampered data should fail")
			}

			if _, err := c.Open(sealed[:4], aad); !errors.Is(err, ErrCiphertextTooShort) {
				t.Errorf("Open(short) error = %v, want ErrCiphertextTooShort", err)
			}
		})
	}
}

func BenchmarkSeal_1KB(b *testing.B) {
	c, _ := NewWithType(testKey(), CipherAuto)
	data := make([]byte, 1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Seal(data, nil)
	}
}
