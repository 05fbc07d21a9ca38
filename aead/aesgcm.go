package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// NonceSizeAESGCM is the fixed nonce length for [AESGCM], per spec: 12 bytes.
const NonceSizeAESGCM = 12

// AESGCM is a [Cipher] implementing AES-256-GCM.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates an AES-256-GCM cipher using key, which must be
// [KeySize] bytes.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aesgcm: key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: new gcm: %w", err)
	}

	return &AESGCM{aead: gcm}, nil
}

// Seal encrypts plaintext using the given nonce; no AAD is used.
func (g *AESGCM) Seal(nonce, plaintext []byte) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("aesgcm: nil cipher")
	}

	if len(nonce) != g.NonceSize() {
		return nil, fmt.Errorf("aesgcm: nonce must be %d bytes, got %d", g.NonceSize(), len(nonce))
	}

	return g.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext using the given nonce.
func (g *AESGCM) Open(nonce, ciphertext []byte) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("aesgcm: nil cipher")
	}

	return g.aead.Open(nil, nonce, ciphertext, nil)
}

// NonceSize returns 12, the AES-256-GCM nonce length.
func (g *AESGCM) NonceSize() int {
	return NonceSizeAESGCM
}
