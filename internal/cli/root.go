package cli

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/noro/vault-core/config"
	"github.com/noro/vault-core/genericclioptions"
)

var (
	rootCmd = &cobra.Command{
		Use:   "vlt",
		Short: "A secure, end-to-end encrypted password vault",
		Long:  "vlt is a command-line password manager built around TwoSKD key derivation and AEAD field encryption.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(verbose)
		},
	}

	verbose    bool
	configPath string
	vaultPath  string
)

// newApp resolves a config file and vault path into an [App] for a
// command's Complete step.
func newApp() (*App, error) {
	path := configPath

	if len(path) == 0 {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}

		path = defaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	resolvedVaultPath := vaultPath

	if len(resolvedVaultPath) == 0 {
		resolvedVaultPath, err = cfg.VaultPathOrDefault()
		if err != nil {
			return nil, err
		}
	}

	streams := genericclioptions.NewDefaultIOStreams()
	streams.Verbose = verbose

	return &App{
		IO:        streams,
		Config:    cfg,
		VaultPath: resolvedVaultPath,
	}, nil
}

// MustInitialize registers global flags and subcommands on the root
// command.
func MustInitialize() error {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the vlt config file (default $HOME/.config/vlt/config.toml)")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "",
		"path to the vault keyring file (overrides config)")

	rootCmd.AddCommand(
		newSetupCmd(),
		newUnlockCmd(),
		newLockCmd(),
		newCreateCmd(),
		newGetCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newListCmd(),
		newSearchCmd(),
		newGenerateCmd(),
		newSyncCmd(),
	)

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(enabled bool) {
	log.SetFlags(0)

	if enabled {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}
