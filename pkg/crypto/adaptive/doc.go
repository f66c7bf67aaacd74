// Package adaptive provides authenticated encryption with automatic
// algorithm selection.
//
// AES-GCM is preferred on architectures where Go's crypto/aes is
// hardware accelerated; ChaCha20-Poly1305 is used everywhere else.
// Ciphertexts carry their random nonce as a prefix, so Open needs only
// the key and the same additional data passed to Seal.
package adaptive
