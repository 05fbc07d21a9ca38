// Package session implements the unlock state machine that gates access
// to field-level encrypt/decrypt: Absent, Locked, Unlocked (spec §4.E). It
// is grounded in original_source's desktop crypto.rs state machine for
// semantics, and in vaultdaemon's safeMap for its RWMutex/copy-out
// discipline around the in-memory vault key.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"sync"
	"unicode/utf8"

	"github.com/noro/vault-core/aead"
	"github.com/noro/vault-core/keywrap"
	"github.com/noro/vault-core/twoskd"
	"github.com/noro/vault-core/vaulterrors"
)

// Entry names for the three persisted keyring rows (spec §6).
const (
	EntryWrappedVaultKey = "vault_key"
	EntrySecretKey        = "secret_key"
	EntrySalt             = "vault_salt"
)

// State is one of the three crypto-session states.
type State int

const (
	// Absent means no wrapped key has been persisted yet.
	Absent State = iota
	// Locked means a wrapped key is persisted but not held in memory.
	Locked
	// Unlocked means the vault key is held in memory.
	Unlocked
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Keyring is the persistence collaborator a [Session] reads/writes its
// three entries through — a stand-in for an OS keyring (spec §6).
// [keyringstore.Store] is the in-repo reference implementation.
type Keyring interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
}

// Session is the unlock state machine. The zero value is not usable; build
// one with [New]. A Session is safe for concurrent use: encrypt_field and
// decrypt_field take a read lock just long enough to copy the vault key
// out before releasing it for the Argon2 call.
type Session struct {
	keyring Keyring

	mu       sync.RWMutex
	state    State
	vaultKey []byte
}

// New builds a Session backed by keyring. It probes the keyring to decide
// whether the session starts in Absent or Locked.
func New(ctx context.Context, keyring Keyring) (*Session, error) {
	s := &Session{keyring: keyring}

	wrapped, err := keyring.Get(ctx, EntryWrappedVaultKey)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindKeyring, "probe wrapped vault key", err)
	}

	if len(wrapped) == 0 {
		s.state = Absent
	} else {
		s.state = Locked
	}

	return s, nil
}

// IsSetup reports whether a wrapped vault key has been persisted.
func (s *Session) IsSetup() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state != Absent
}

// IsLocked reports whether the vault key is not held in memory, i.e. the
// session is Absent or Locked.
func (s *Session) IsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state != Unlocked
}

// Setup generates a fresh secret key, salt, and vault key; wraps the vault
// key under the derived AUK; persists all three via the keyring; and
// transitions to Unlocked. It is valid only from Absent and returns the
// secret-key text so the caller can show it to the user once.
func (s *Session) Setup(ctx context.Context, password string) (secretKeyText string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Absent {
		return "", vaulterrors.New(vaulterrors.KindNotSetup, "setup is only valid from the absent state")
	}

	secretKeyText, err = twoskd.GenerateSecretKey()
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "generate secret key", err)
	}

	salt, err := twoskd.GenerateSalt()
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "generate salt", err)
	}

	vaultKey, err := twoskd.GenerateVaultKey()
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "generate vault key", err)
	}

	auk, err := twoskd.DeriveAUK(password, secretKeyText, salt)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "derive auk", err)
	}
	defer zero(auk)

	wrapped, err := keywrap.Wrap(auk, vaultKey)
	if err != nil {
		return "", err
	}

	if err := s.keyring.Set(ctx, EntryWrappedVaultKey, wrapped); err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindKeyring, "persist wrapped vault key", err)
	}

	if err := s.keyring.Set(ctx, EntrySecretKey, []byte(secretKeyText)); err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindKeyring, "persist secret key", err)
	}

	if err := s.keyring.Set(ctx, EntrySalt, salt); err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindKeyring, "persist salt", err)
	}

	s.vaultKey = vaultKey
	s.state = Unlocked

	return secretKeyText, nil
}

// Unlock reads the persisted wrapped key and salt, recomputes the AUK from
// password and secretKeyText, and unwraps the vault key. It is valid only
// from Locked. Any failure transitions back to Locked; a missing blob
// reports [vaulterrors.ErrNotSetup], anything else reports
// [vaulterrors.ErrInvalidPassword].
func (s *Session) Unlock(ctx context.Context, password, secretKeyText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Locked {
		return vaulterrors.New(vaulterrors.KindNotSetup, "unlock is only valid from the locked state")
	}

	wrapped, err := s.keyring.Get(ctx, EntryWrappedVaultKey)
	if err != nil {
		return vaulterrors.Wrap(vaulterrors.KindKeyring, "read wrapped vault key", err)
	}

	if len(wrapped) == 0 {
		return vaulterrors.ErrNotSetup
	}

	salt, err := s.keyring.Get(ctx, EntrySalt)
	if err != nil {
		return vaulterrors.Wrap(vaulterrors.KindKeyring, "read salt", err)
	}

	if len(salt) == 0 {
		return vaulterrors.ErrNotSetup
	}

	auk, err := twoskd.DeriveAUK(password, secretKeyText, salt)
	if err != nil {
		return vaulterrors.Wrap(vaulterrors.KindInvalidPassword, "derive auk", err)
	}
	defer zero(auk)

	vaultKey, err := keywrap.Unwrap(auk, wrapped)
	if err != nil {
		return err
	}

	s.vaultKey = vaultKey
	s.state = Unlocked

	return nil
}

// Lock zeroes and drops the in-memory vault key and transitions to Locked.
// Idempotent: calling Lock while already Locked or Absent is a no-op.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockLocked()
}

func (s *Session) lockLocked() {
	zero(s.vaultKey)
	s.vaultKey = nil

	if s.state == Unlocked {
		s.state = Locked
	}
}

// Clear locks the session, then deletes all three persisted entries and
// transitions to Absent.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockLocked()

	for _, name := range []string{EntryWrappedVaultKey, EntrySecretKey, EntrySalt} {
		if err := s.keyring.Delete(ctx, name); err != nil {
			return vaulterrors.Wrap(vaulterrors.KindKeyring, "delete "+name, err)
		}
	}

	s.state = Absent

	return nil
}

// EncryptField derives the per-item subkey for itemID and encrypts
// plaintext under it, returning base64 ciphertext. Valid only in Unlocked.
func (s *Session) EncryptField(itemID, plaintext string) (string, error) {
	vaultKey, err := s.copyVaultKey()
	if err != nil {
		return "", err
	}
	defer zero(vaultKey)

	itemKey, err := twoskd.DeriveItemKey(vaultKey, itemID)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "derive item key", err)
	}
	defer zero(itemKey)

	cipher, err := aead.NewAESGCM(itemKey)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "build item cipher", err)
	}

	ciphertext, err := aead.Encrypt(cipher, []byte(plaintext))
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindEncryption, "encrypt field", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptField decodes base64Text, derives the per-item subkey for itemID,
// and decrypts. Valid only in Unlocked. Non-UTF-8 plaintext after
// decryption reports [vaulterrors.ErrEncryption].
func (s *Session) DecryptField(itemID, base64Text string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(base64Text)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindDecryption, "decode base64 field", err)
	}

	vaultKey, err := s.copyVaultKey()
	if err != nil {
		return "", err
	}
	defer zero(vaultKey)

	itemKey, err := twoskd.DeriveItemKey(vaultKey, itemID)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindDecryption, "derive item key", err)
	}
	defer zero(itemKey)

	cipher, err := aead.NewAESGCM(itemKey)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindDecryption, "build item cipher", err)
	}

	plaintext, err := aead.Decrypt(cipher, ciphertext)
	if err != nil {
		return "", vaulterrors.Wrap(vaulterrors.KindDecryption, "decrypt field", err)
	}

	if !utf8.Valid(plaintext) {
		return "", vaulterrors.New(vaulterrors.KindEncryption, "decrypted field is not valid UTF-8")
	}

	return string(plaintext), nil
}

// Cipher builds an AES-256-GCM [aead.Cipher] keyed with the unlocked vault
// key, for whole-vault snapshot encryption via [vault.Vault.Save]/[vault.Vault.Load].
// Valid only in Unlocked.
func (s *Session) Cipher() (aead.Cipher, error) {
	vaultKey, err := s.copyVaultKey()
	if err != nil {
		return nil, err
	}
	defer zero(vaultKey)

	cipher, err := aead.NewAESGCM(vaultKey)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindEncryption, "build vault cipher", err)
	}

	return cipher, nil
}

// copyVaultKey takes a read lock just long enough to copy the vault key
// bytes out, then releases it before the caller does any KDF work — the
// lock must never be held across an Argon2 call.
func (s *Session) copyVaultKey() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != Unlocked {
		return nil, vaulterrors.ErrLocked
	}

	out := make([]byte, len(s.vaultKey))
	copy(out, s.vaultKey)

	return out, nil
}

func zero(b []byte) {
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}
