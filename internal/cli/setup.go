package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noro/vault-core/clierror"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/input"
	"github.com/noro/vault-core/vault"
)

// setupOptions implements [genericclioptions.CmdOptions] for `vlt setup`.
type setupOptions struct {
	app      *App
	password []byte
}

func newSetupCmd() *cobra.Command {
	o := &setupOptions{}

	return &cobra.Command{
		Use:   "setup",
		Short: "create a new vault",
		Long:  "Create a new vault, printing the one-time secret key needed to unlock it on another device.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *setupOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	pass, err := input.PromptNewPassword(app.IO.ErrOut, int(os.Stdin.Fd()), 12)
	if err != nil {
		return err
	}

	o.password = pass

	return nil
}

func (o *setupOptions) Validate() error {
	if len(o.password) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	return nil
}

func (o *setupOptions) Run() error {
	ctx := context.Background()

	s, err := o.app.openSession(ctx)
	if err != nil {
		return err
	}

	if s.IsSetup() {
		return fmt.Errorf("a vault already exists at %s", o.app.VaultPath)
	}

	secretKey, err := s.Setup(ctx, string(o.password))
	if err != nil {
		return err
	}

	keyring, err := o.app.openKeyring()
	if err != nil {
		return err
	}

	cipher, err := s.Cipher()
	if err != nil {
		return err
	}

	if err := saveVault(ctx, keyring, vault.New(cipher)); err != nil {
		return err
	}

	o.app.IO.Printf("Vault created at %s.\n", o.app.VaultPath)
	o.app.IO.Printf("Secret key (save this, it is shown only once):\n\n  %s\n\n", secretKey)

	return nil
}
