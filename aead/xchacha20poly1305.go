package aead

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSizeXChaCha20Poly1305 is the fixed nonce length for
// [XChaCha20Poly1305], per spec: 24 bytes.
const NonceSizeXChaCha20Poly1305 = chacha20poly1305.NonceSizeX

// XChaCha20Poly1305 is a [Cipher] implementing XChaCha20-Poly1305, the
// documented alternate build to [AESGCM] (spec §9 substitutability note).
type XChaCha20Poly1305 struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// NewXChaCha20Poly1305 creates an XChaCha20-Poly1305 cipher using key,
// which must be [KeySize] bytes.
func NewXChaCha20Poly1305(key []byte) (*XChaCha20Poly1305, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("xchacha20poly1305: key must be %d bytes, got %d", KeySize, len(key))
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("xchacha20poly1305: new: %w", err)
	}

	return &XChaCha20Poly1305{aead: aead}, nil
}

// Seal encrypts plaintext using the given nonce; no AAD is used.
func (x *XChaCha20Poly1305) Seal(nonce, plaintext []byte) ([]byte, error) {
	if x == nil {
		return nil, fmt.Errorf("xchacha20poly1305: nil cipher")
	}

	if len(nonce) != x.NonceSize() {
		return nil, fmt.Errorf("xchacha20poly1305: nonce must be %d bytes, got %d", x.NonceSize(), len(nonce))
	}

	return x.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext using the given nonce.
func (x *XChaCha20Poly1305) Open(nonce, ciphertext []byte) ([]byte, error) {
	if x == nil {
		return nil, fmt.Errorf("xchacha20poly1305: nil cipher")
	}

	return x.aead.Open(nil, nonce, ciphertext, nil)
}

// NonceSize returns 24, the XChaCha20-Poly1305 nonce length.
func (x *XChaCha20Poly1305) NonceSize() int {
	return NonceSizeXChaCha20Poly1305
}
