package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/noro/vault-core/clierror"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/vaultdaemon"
)

type lockOptions struct {
	app *App
}

func newLockCmd() *cobra.Command {
	o := &lockOptions{}

	return &cobra.Command{
		Use:   "lock",
		Short: "lock the vault",
		Long:  "Evict the cached session from the daemon, if running, so the next command requires unlocking again.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *lockOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*lockOptions) Validate() error {
	return nil
}

func (o *lockOptions) Run() error {
	ctx := context.Background()

	client, err := vaultdaemon.Dial()
	if err != nil {
		if errors.Is(err, vaultdaemon.ErrSocketUnavailable) {
			o.app.IO.Printf("vault daemon not running; nothing to lock.\n")
			return nil
		}

		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Logout(ctx, o.app.VaultPath); err != nil {
		return err
	}

	o.app.IO.Printf("Vault locked.\n")

	return nil
}
