package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/noro/vault-core/session"
	"github.com/noro/vault-core/vaulterrors"
)

// memKeyring is a minimal in-memory [session.Keyring] for tests.
type memKeyring struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKeyring() *memKeyring {
	return &memKeyring{data: make(map[string][]byte)}
}

func (m *memKeyring) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.data[name], nil
}

func (m *memKeyring) Set(_ context.Context, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[name] = append([]byte(nil), value...)

	return nil
}

func (m *memKeyring) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, name)

	return nil
}

func TestSetupAndFieldEncrypt(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s.IsSetup() {
		t.Fatal("expected not setup before Setup")
	}

	secretKey, err := s.Setup(ctx, "hunter2")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if secretKey == "" {
		t.Fatal("Setup returned empty secret key")
	}

	if s.IsLocked() {
		t.Fatal("expected unlocked after Setup")
	}

	const itemID = "11111111-1111-1111-1111-111111111111"

	ct, err := s.EncryptField(itemID, "secret")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	pt, err := s.DecryptField(itemID, ct)
	if err != nil {
		t.Fatalf("DecryptField: %v", err)
	}

	if pt != "secret" {
		t.Fatalf("DecryptField = %q, want %q", pt, "secret")
	}
}

func TestUnlockSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s1, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	secretKey, err := s1.Setup(ctx, "hunter2")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	const itemID = "11111111-1111-1111-1111-111111111111"

	ct, err := s1.EncryptField(itemID, "secret")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	s1.Lock()

	// Simulate a process restart: a fresh Session over the same keyring.
	s2, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !s2.IsSetup() {
		t.Fatal("expected IsSetup after restart")
	}

	if !s2.IsLocked() {
		t.Fatal("expected IsLocked after restart")
	}

	if err := s2.Unlock(ctx, "wrong password", secretKey); err == nil {
		t.Fatal("expected error unlocking with wrong password")
	} else if !errors.Is(err, vaulterrors.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	if !s2.IsLocked() {
		t.Fatal("expected still locked after failed unlock")
	}

	if err := s2.Unlock(ctx, "hunter2", secretKey); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	pt, err := s2.DecryptField(itemID, ct)
	if err != nil {
		t.Fatalf("DecryptField: %v", err)
	}

	if pt != "secret" {
		t.Fatalf("DecryptField = %q, want %q", pt, "secret")
	}
}

func TestLockedGatesFieldOps(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Setup(ctx, "hunter2"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	s.Lock()

	if _, err := s.EncryptField("item-1", "secret"); !errors.Is(err, vaulterrors.ErrLocked) {
		t.Fatalf("expected ErrLocked from EncryptField, got %v", err)
	}

	if _, err := s.DecryptField("item-1", "Zm9v"); !errors.Is(err, vaulterrors.ErrLocked) {
		t.Fatalf("expected ErrLocked from DecryptField, got %v", err)
	}
}

func TestClearRemovesPersistedState(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Setup(ctx, "hunter2"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if s.IsSetup() {
		t.Fatal("expected not setup after Clear")
	}

	s2, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s2.IsSetup() {
		t.Fatal("expected fresh Session over cleared keyring to report not setup")
	}
}

func TestUnlockWithMalformedSecretKeyIsInvalidPassword(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Setup(ctx, "hunter2"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	s.Lock()

	restarted, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := restarted.Unlock(ctx, "hunter2", "not-a-secret-key"); !errors.Is(err, vaulterrors.ErrInvalidPassword) {
		t.Fatalf("Unlock with malformed secret key = %v, want ErrInvalidPassword", err)
	}

	if !restarted.IsLocked() {
		t.Fatal("expected session to remain locked after a failed unlock")
	}
}

func TestDecryptFieldRejectsNonUTF8Plaintext(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Setup(ctx, "hunter2"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	// A Go string can carry arbitrary bytes, so invalid UTF-8 passes through
	// EncryptField unchanged, simulating a tampered or non-text field value.
	ct, err := s.EncryptField("item-1", string([]byte{0xff, 0xfe, 0xfd}))
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	if _, err := s.DecryptField("item-1", ct); !errors.Is(err, vaulterrors.ErrEncryption) {
		t.Fatalf("DecryptField on non-UTF-8 plaintext = %v, want ErrEncryption", err)
	}
}

func TestEncryptFieldNonceFreshness(t *testing.T) {
	ctx := context.Background()
	kr := newMemKeyring()

	s, err := session.New(ctx, kr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Setup(ctx, "hunter2"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	ct1, err := s.EncryptField("item-1", "secret")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	ct2, err := s.EncryptField("item-1", "secret")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}

	if ct1 == ct2 {
		t.Fatal("two successive EncryptField calls produced identical ciphertext")
	}
}
