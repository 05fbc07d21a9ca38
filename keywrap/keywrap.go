// Package keywrap wraps and unwraps a vault key under an Account Unlock
// Key, using the same nonce-prepend AEAD envelope as item field encryption
// (spec §4.C). It is adapted from vlt-cli's vaultcrypto wrap/unwrap helpers;
// the wrapping cipher is always AES-256-GCM keyed by the AUK.
package keywrap

import (
	"fmt"

	"github.com/noro/vault-core/aead"
	"github.com/noro/vault-core/vaulterrors"
)

// Wrap encrypts vaultKey under auk, returning the nonce-prepended envelope
// to persist alongside the vault (spec §3, WrappedVaultKey).
func Wrap(auk, vaultKey []byte) ([]byte, error) {
	cipher, err := aead.NewAESGCM(auk)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindEncryption, "build wrapping cipher", err)
	}

	wrapped, err := aead.Encrypt(cipher, vaultKey)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindEncryption, "wrap vault key", err)
	}

	return wrapped, nil
}

// Unwrap decrypts a wrapped vault key envelope under auk. Any failure —
// wrong password, wrong secret key, or a tampered envelope — is reported
// uniformly as [vaulterrors.ErrInvalidPassword]; the caller must not be
// able to distinguish which of the three occurred.
func Unwrap(auk, wrapped []byte) ([]byte, error) {
	cipher, err := aead.NewAESGCM(auk)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindEncryption, "build wrapping cipher", err)
	}

	vaultKey, err := aead.Decrypt(cipher, wrapped)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindInvalidPassword, fmt.Sprintf("unwrap vault key (%d byte envelope)", len(wrapped)), err)
	}

	return vaultKey, nil
}
