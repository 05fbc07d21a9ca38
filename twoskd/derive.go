package twoskd

import "fmt"

// AUKLen is the length, in bytes, of a derived Account Unlock Key.
const AUKLen = 32

// ItemKeyLen is the length, in bytes, of a derived per-item subkey.
const ItemKeyLen = 32

// DeriveAUK derives the 32-byte Account Unlock Key from the user's
// password, the parsed secret key, and the vault's salt, using the
// deliberately expensive Argon2id parameters from spec §4.B. The secret
// key compensates for a low-entropy password by mixing 160 bits of
// server-independent randomness into the input.
func DeriveAUK(password string, secretKeyText string, salt []byte) ([]byte, error) {
	secretKeyBytes, err := ParseSecretKey(secretKeyText)
	if err != nil {
		return nil, fmt.Errorf("twoskd: derive auk: %w", err)
	}

	combined := make([]byte, 0, len(password)+len(secretKeyBytes))
	combined = append(combined, []byte(password)...)
	combined = append(combined, secretKeyBytes...)

	kdf := newArgon2idKDF(aukParams, AUKLen)

	return kdf.derive(combined, salt), nil
}

// DeriveItemKey deterministically derives the 32-byte per-item subkey from
// the vault key and an item id, using the deliberately light Argon2id
// parameters from spec §4.B (this runs on every field encrypt/decrypt).
// The item id doubles as the KDF salt, binding each item's ciphertext to
// its own identity so a record substituted by the server can't silently
// redirect decryption to a different item's key.
func DeriveItemKey(vaultKey []byte, itemID string) ([]byte, error) {
	if len(vaultKey) != VaultKeyBytes {
		return nil, fmt.Errorf("twoskd: derive item key: vault key must be %d bytes, got %d", VaultKeyBytes, len(vaultKey))
	}

	kdf := newArgon2idKDF(itemKeyParams, ItemKeyLen)

	return kdf.derive(vaultKey, []byte(itemID)), nil
}
