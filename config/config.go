// Package config loads the TOML configuration file that ties the CLI,
// daemon, and sync adapter together: where the vault keyring file lives,
// which HTTP endpoint to sync against, plus clipboard, daemon and session
// settings that are parsed but not applied by the CLI or daemon.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk shape of a vlt config file.
type Config struct {
	// VaultPath is the keyring file's location. Defaults to
	// "$HOME/.vlt/vault.db" when empty.
	VaultPath string `toml:"vault_path"`

	// SyncBaseURL is the base URL of the sync server, e.g.
	// "https://vault.example.com". Empty disables `vlt sync`.
	SyncBaseURL string `toml:"sync_base_url"`

	// ClipboardCopyCmd is a copy command, e.g. ["xsel", "-ib"]. It is
	// parsed but not applied: the CLI always uses the clipboard package's
	// default copy command.
	ClipboardCopyCmd []string `toml:"clipboard_copy_cmd"`

	// ClipboardPasteCmd is a paste command, e.g. ["xsel", "-ob"]. It is
	// parsed but not applied: the CLI always uses the clipboard package's
	// default paste command.
	ClipboardPasteCmd []string `toml:"clipboard_paste_cmd"`

	// DaemonSocketPath is a daemon socket path. It is parsed but not
	// applied: vltd and vlt always use "/run/user/<uid>/vlt.sock".
	DaemonSocketPath string `toml:"daemon_socket_path"`

	// SessionTTL is a session cache lifetime, e.g. "15m". It is parsed but
	// not applied: `vlt unlock` takes its lifetime from the --ttl flag,
	// which defaults to "15m".
	SessionTTL string `toml:"session_ttl"`
}

// DefaultPath returns "$HOME/.config/vlt/config.toml".
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: user home dir: %w", err)
	}

	return filepath.Join(home, ".config", "vlt", "config.toml"), nil
}

// Load reads and parses the TOML config at path. A missing file is not an
// error: it yields a zero-value Config so callers can apply their own
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}

// VaultPathOrDefault returns c.VaultPath, or "$HOME/.vlt/vault.db" if unset.
func (c *Config) VaultPathOrDefault() (string, error) {
	if len(c.VaultPath) > 0 {
		return c.VaultPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: user home dir: %w", err)
	}

	return filepath.Join(home, ".vlt", "vault.db"), nil
}
