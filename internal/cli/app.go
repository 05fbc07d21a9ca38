// Package cli wires the domain packages (session, vault, sync,
// keyringstore, vaultdaemon) into a cobra command tree. It is grounded on
// the teacher's internal/cmd package: a PersistentPreRun-gated log
// verbosity, a MustInitialize/Execute split, and IOStreams-injected
// command options built from genericclioptions.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/noro/vault-core/config"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/input"
	"github.com/noro/vault-core/keyringstore"
	"github.com/noro/vault-core/session"
	"github.com/noro/vault-core/vault"
)

// vaultSnapshotEntry is the keyring entry holding the whole-vault encrypted
// JSON snapshot (spec §4.F), alongside session's three key-material entries.
const vaultSnapshotEntry = "vault_data"

// App bundles the state a command needs: IO, the resolved config, and the
// vault path commands operate against. It is built fresh for every cobra
// invocation, mirroring the teacher's per-command option struct pattern.
type App struct {
	IO        *genericclioptions.IOStreams
	Config    *config.Config
	VaultPath string
}

// openKeyring opens the sqlite-backed keyring at a.VaultPath.
func (a *App) openKeyring() (*keyringstore.Store, error) {
	store, err := keyringstore.Open(a.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("open vault file %s: %w", a.VaultPath, err)
	}

	return store, nil
}

// openSession opens the keyring and probes its Absent/Locked/Unlocked state.
func (a *App) openSession(ctx context.Context) (*session.Session, error) {
	keyring, err := a.openKeyring()
	if err != nil {
		return nil, err
	}

	return session.New(ctx, keyring)
}

// unlockedSession opens the keyring-backed session and, if it's Locked,
// prompts interactively for the password (the secret key is read straight
// from the local keyring, not re-entered) to unlock it in this process.
// The raw vault key never crosses the daemon socket, so whole-vault
// snapshot operations always unlock locally rather than through the
// session-cache daemon, unlike per-field sync crypto (see crypto.go).
func (a *App) unlockedSession(ctx context.Context, keyring *keyringstore.Store) (*session.Session, error) {
	s, err := session.New(ctx, keyring)
	if err != nil {
		return nil, err
	}

	if !s.IsLocked() {
		return s, nil
	}

	secretKey, err := keyring.Get(ctx, session.EntrySecretKey)
	if err != nil {
		return nil, err
	}

	pass, err := input.PromptPassword(a.IO.ErrOut, int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}

	if err := s.Unlock(ctx, string(pass), string(secretKey)); err != nil {
		return nil, err
	}

	return s, nil
}

// loadVault reads and decrypts the whole-vault snapshot under cipher,
// building an empty [vault.Vault] if no snapshot has been saved yet.
func loadVault(ctx context.Context, keyring *keyringstore.Store, s *session.Session) (*vault.Vault, error) {
	cipher, err := s.Cipher()
	if err != nil {
		return nil, err
	}

	envelope, err := keyring.Get(ctx, vaultSnapshotEntry)
	if err != nil {
		return nil, fmt.Errorf("read vault snapshot: %w", err)
	}

	v := vault.New(cipher)

	if len(envelope) == 0 {
		return v, nil
	}

	if err := v.Load(envelope); err != nil {
		return nil, err
	}

	return v, nil
}

// saveVault encrypts and persists v's current state back to the keyring.
func saveVault(ctx context.Context, keyring *keyringstore.Store, v *vault.Vault) error {
	envelope, err := v.Save()
	if err != nil {
		return err
	}

	if err := keyring.Set(ctx, vaultSnapshotEntry, envelope); err != nil {
		return fmt.Errorf("persist vault snapshot: %w", err)
	}

	return nil
}
