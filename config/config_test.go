package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/noro/vault-core/config"
)

func TestLoadMissingFileYieldsZeroValue(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.VaultPath != "" || cfg.SyncBaseURL != "" {
		t.Fatalf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadParsesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	contents := `
vault_path = "/tmp/vault.db"
sync_base_url = "https://vault.example.com"
clipboard_copy_cmd = ["wl-copy"]
session_ttl = "15m"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.VaultPath != "/tmp/vault.db" {
		t.Errorf("VaultPath = %q", cfg.VaultPath)
	}

	if cfg.SyncBaseURL != "https://vault.example.com" {
		t.Errorf("SyncBaseURL = %q", cfg.SyncBaseURL)
	}

	if len(cfg.ClipboardCopyCmd) != 1 || cfg.ClipboardCopyCmd[0] != "wl-copy" {
		t.Errorf("ClipboardCopyCmd = %v", cfg.ClipboardCopyCmd)
	}

	if cfg.SessionTTL != "15m" {
		t.Errorf("SessionTTL = %q", cfg.SessionTTL)
	}
}

func TestVaultPathOrDefaultFallsBackToHome(t *testing.T) {
	cfg := &config.Config{}

	path, err := cfg.VaultPathOrDefault()
	if err != nil {
		t.Fatalf("VaultPathOrDefault: %v", err)
	}

	if filepath.Base(path) != "vault.db" {
		t.Errorf("VaultPathOrDefault = %q, want basename vault.db", path)
	}
}
