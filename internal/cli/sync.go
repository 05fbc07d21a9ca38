package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/noro/vault-core/clierror"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/input"
	"github.com/noro/vault-core/keyringstore"
	"github.com/noro/vault-core/sync"
	"github.com/noro/vault-core/util"
	"github.com/noro/vault-core/vault"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "synchronize the vault with the remote service",
	}

	cmd.AddCommand(newSyncLoginCmd(), newSyncPullCmd(), newSyncPushCmd())

	return cmd
}

// newAdapter resolves the configured sync base URL, builds an
// [sync.HTTPTransport], and wires it to a [fieldCrypto] resolved either
// from the session daemon (preferred, so the AUK is derived at most once
// per unlock) or directly from a freshly-unlocked in-process session.
func newAdapter(ctx context.Context, app *App, keyring *keyringstore.Store) (*sync.Adapter, func(), error) {
	if len(app.Config.SyncBaseURL) == 0 {
		return nil, nil, errors.New("sync_base_url is not configured; set it in the vlt config file")
	}

	transport, err := sync.NewHTTPTransport(app.Config.SyncBaseURL)
	if err != nil {
		return nil, nil, err
	}

	if client, derr := dialDaemon(ctx, app.VaultPath); derr == nil {
		crypto := &daemonCrypto{ctx: ctx, client: client, vaultPath: app.VaultPath}
		cleanup := func() { _ = client.Close() }

		return sync.NewAdapter(transport, crypto), cleanup, nil
	}

	s, err := app.unlockedSession(ctx, keyring)
	if err != nil {
		return nil, nil, err
	}

	return sync.NewAdapter(transport, s), func() {}, nil
}

type syncLoginOptions struct {
	app      *App
	email    string
	password []byte
}

func newSyncLoginCmd() *cobra.Command {
	o := &syncLoginOptions{}

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "authenticate against the sync service",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.email = args[0]
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}

	return cmd
}

func (o *syncLoginOptions) Complete() error {
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

func (*syncLoginOptions) Validate() error {
	return nil
}

func (o *syncLoginOptions) Run() error {
	ctx := context.Background()

	if len(o.app.Config.SyncBaseURL) == 0 {
		return errors.New("sync_base_url is not configured; set it in the vlt config file")
	}

	transport, err := sync.NewHTTPTransport(o.app.Config.SyncBaseURL)
	if err != nil {
		return err
	}

	adapter := sync.NewAdapter(transport, noopCrypto{})

	if err := adapter.Login(ctx, o.email, string(o.password)); err != nil {
		return err
	}

	o.app.IO.Printf("Signed in as %s.\n", o.email)

	return nil
}

// noopCrypto satisfies [sync.FieldCrypto] for `sync login`, which never
// encrypts or decrypts a field.
type noopCrypto struct{}

func (noopCrypto) EncryptField(_, plaintext string) (string, error) { return plaintext, nil }
func (noopCrypto) DecryptField(_, text string) (string, error)      { return text, nil }

type syncPullOptions struct {
	app *App
}

func newSyncPullCmd() *cobra.Command {
	o := &syncPullOptions{}

	return &cobra.Command{
		Use:   "pull",
		Short: "fetch remote items and replace the local vault snapshot",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *syncPullOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*syncPullOptions) Validate() error {
	return nil
}

func (o *syncPullOptions) Run() error {
	ctx := context.Background()

	keyring, err := o.app.openKeyring()
	if err != nil {
		return err
	}

	adapter, cleanup, err := newAdapter(ctx, o.app, keyring)
	if err != nil {
		return err
	}
	defer cleanup()

	items, err := adapter.Fetch(ctx)
	if err != nil {
		return err
	}

	s, err := o.app.unlockedSession(ctx, keyring)
	if err != nil {
		return err
	}

	cipher, err := s.Cipher()
	if err != nil {
		return err
	}

	v := vault.New(cipher, vault.WithInitialData(vault.Data{Items: items}))

	if err := saveVault(ctx, keyring, v); err != nil {
		return err
	}

	o.app.IO.Printf("Pulled %d item(s) from the sync service.\n", len(items))

	return nil
}

type syncPushOptions struct {
	app *App
}

func newSyncPushCmd() *cobra.Command {
	o := &syncPushOptions{}

	return &cobra.Command{
		Use:   "push",
		Short: "create any local items missing from the remote vault",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *syncPushOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*syncPushOptions) Validate() error {
	return nil
}

func (o *syncPushOptions) Run() error {
	ctx := context.Background()

	keyring, err := o.app.openKeyring()
	if err != nil {
		return err
	}

	s, err := o.app.unlockedSession(ctx, keyring)
	if err != nil {
		return err
	}

	v, err := loadVault(ctx, keyring, s)
	if err != nil {
		return err
	}

	adapter, cleanup, err := newAdapter(ctx, o.app, keyring)
	if err != nil {
		return err
	}
	defer cleanup()

	remote, err := adapter.Fetch(ctx)
	if err != nil {
		return err
	}

	local := v.ListItems()

	localIDs := make([]string, len(local))
	for i, item := range local {
		localIDs[i] = item.ID
	}

	remoteIDs := make([]string, len(remote))
	for i, ri := range remote {
		remoteIDs[i] = ri.ID
	}

	toPush := util.SliceWithout(localIDs, remoteIDs...)

	pushed := 0

	for _, id := range toPush {
		item, ok := v.GetItem(id)
		if !ok {
			continue
		}

		if _, err := adapter.Create(ctx, item.ItemType, item.ID, item.Title, item.Data, item.Tags, item.Favorite); err != nil {
			return err
		}

		pushed++
	}

	o.app.IO.Printf("Pushed %d new item(s) to the sync service.\n", pushed)

	return nil
}
