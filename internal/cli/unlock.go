package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/noro/vault-core/clierror"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/input"
	"github.com/noro/vault-core/session"
	"github.com/noro/vault-core/vaultdaemon"
)

// unlockOptions implements [genericclioptions.CmdOptions] for `vlt unlock`.
// The secret key is not re-prompted: the local keyring already holds the
// one generated at setup time, so only the password is needed to derive
// the AUK and unwrap the vault key.
type unlockOptions struct {
	app      *App
	password []byte
	ttl      string
}

func newUnlockCmd() *cobra.Command {
	o := &unlockOptions{}

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "unlock the vault and cache the session",
		Long:  "Unlock the vault with your password, caching the unlocked session with the session daemon (if running) so `vlt sync` commands can encrypt and decrypt fields without re-deriving it. Item commands always unlock the vault themselves.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}

	cmd.Flags().StringVar(&o.ttl, "ttl", "15m", "how long the cached session stays unlocked")

	return cmd
}

func (o *unlockOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	pass, err := input.PromptPassword(app.IO.ErrOut, int(os.Stdin.Fd()))
	if err != nil {
		return err
	}

	o.password = pass

	return nil
}

func (*unlockOptions) Validate() error {
	return nil
}

func (o *unlockOptions) Run() error {
	ctx := context.Background()

	keyring, err := o.app.openKeyring()
	if err != nil {
		return err
	}

	secretKey, err := keyring.Get(ctx, session.EntrySecretKey)
	if err != nil {
		return err
	}

	client, err := vaultdaemon.Dial()
	if err == nil {
		defer func() { _ = client.Close() }()

		if err := client.Login(ctx, o.app.VaultPath, string(o.password), string(secretKey), o.ttl); err != nil {
			return err
		}

		o.app.IO.Printf("Vault unlocked and cached for %s.\n", o.ttl)

		return nil
	}

	s, err := o.app.openSession(ctx)
	if err != nil {
		return err
	}

	// Without the daemon there is no process to hold the unlocked session
	// between commands; this only confirms the password is correct.
	if err := s.Unlock(ctx, string(o.password), string(secretKey)); err != nil {
		return err
	}

	o.app.IO.Errorf("vault daemon not running; each command will unlock the vault itself.\n")

	return nil
}
