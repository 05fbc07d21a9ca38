// Package twoskd implements the key derivation function and key schedule
// ("TwoSKD") at the heart of the vault core: secret-key generation and
// parsing, Account Unlock Key derivation, per-item subkey derivation, and
// vault-key/salt generation.
package twoskd

import "golang.org/x/crypto/argon2"

// Argon2Version is the Argon2id version byte mandated by the on-wire
// contract (0x13). It is informational: argon2.IDKey always uses 0x13 and
// no code in this package reads this constant.
const Argon2Version = 0x13

// Argon2Params are the cost parameters for an Argon2id derivation.
type Argon2Params struct {
	MemoryKiB   uint32 // memory cost in KiB
	Iterations  uint32 // time cost
	Parallelism uint8
}

// aukParams are the AUK derivation parameters (spec §4.B): deliberately
// expensive, since this runs once per unlock.
var aukParams = Argon2Params{
	MemoryKiB:   65536,
	Iterations:  3,
	Parallelism: 4,
}

// itemKeyParams are the per-item subkey derivation parameters (spec §4.B):
// deliberately light, since this runs on every field encrypt/decrypt.
var itemKeyParams = Argon2Params{
	MemoryKiB:   4096,
	Iterations:  1,
	Parallelism: 1,
}

// argon2idKDF derives a fixed-length key from input/salt under the given
// parameters. It is adapted from vaultcrypto.Argon2idKDF, generalized to
// carry two distinct parameter sets (heavy for the AUK, light for item
// keys) rather than one default.
type argon2idKDF struct {
	params Argon2Params
	keyLen uint32
}

func newArgon2idKDF(params Argon2Params, keyLen uint32) *argon2idKDF {
	return &argon2idKDF{params: params, keyLen: keyLen}
}

func (a *argon2idKDF) derive(input, salt []byte) []byte {
	return argon2.IDKey(input, salt, a.params.Iterations, a.params.MemoryKiB, a.params.Parallelism, a.keyLen)
}
