package twoskd

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/noro/vault-core/aead"
)

// VaultKeyBytes is the length of a generated vault key.
const VaultKeyBytes = aead.KeySize

// SaltBytes is the length of a generated per-vault salt.
const SaltBytes = 16

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateVaultKey draws 32 cryptographically random bytes to serve as a
// new vault's root key.
func GenerateVaultKey() ([]byte, error) {
	b, err := randBytes(VaultKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("twoskd: generate vault key: %w", err)
	}

	return b, nil
}

// GenerateSalt draws 16 cryptographically random bytes to serve as a new
// vault's AUK salt.
func GenerateSalt() ([]byte, error) {
	b, err := randBytes(SaltBytes)
	if err != nil {
		return nil, fmt.Errorf("twoskd: generate salt: %w", err)
	}

	return b, nil
}
