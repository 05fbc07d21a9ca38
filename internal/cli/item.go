package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noro/vault-core/clierror"
	"github.com/noro/vault-core/clipboard"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/input"
	"github.com/noro/vault-core/util"
	"github.com/noro/vault-core/vault"
	"github.com/noro/vault-core/vaulterrors"
)

// createOptions implements [genericclioptions.CmdOptions] for `vlt create`.
type createOptions struct {
	app *App

	itemType string
	title    string
	data     string
	tags     []string
	favorite bool
}

func newCreateCmd() *cobra.Command {
	o := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "create a new vault item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.title = args[0]
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}

	cmd.Flags().StringVar(&o.itemType, "type", "login", "item type, e.g. login, note, card")
	cmd.Flags().StringVar(&o.data, "data", "", "item payload, e.g. a JSON-encoded field set")
	cmd.Flags().StringSliceVar(&o.tags, "tag", nil, "tag to attach (comma-separated or repeated)")
	cmd.Flags().BoolVar(&o.favorite, "favorite", false, "mark the item as a favorite")

	return cmd
}

func (o *createOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	if len(o.tags) == 0 {
		raw, err := input.PromptRead(app.IO.ErrOut, os.Stdin, "Enter tags (comma-separated), or press Enter to skip: ")
		if err != nil {
			return err
		}

		o.tags = util.ParseCommaSeparated(raw)
	}

	return nil
}

func (o *createOptions) Validate() error {
	if len(o.title) == 0 {
		return vaulterrors.New(vaulterrors.KindNotFound, "title must not be empty")
	}

	return nil
}

func (o *createOptions) Run() error {
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

	item := v.CreateItem(o.itemType, o.title, []byte(o.data), o.tags, o.favorite)

	if err := saveVault(ctx, keyring, v); err != nil {
		return err
	}

	o.app.IO.Printf("Created item %s (%s).\n", item.ID, item.Title)

	return nil
}

// getOptions implements [genericclioptions.CmdOptions] for `vlt get`.
type getOptions struct {
	app  *App
	id   string
	copy bool
}

func newGetCmd() *cobra.Command {
	o := &getOptions{}

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "show a vault item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.id = args[0]
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}

	cmd.Flags().BoolVar(&o.copy, "copy", false, "copy the item's data to the clipboard instead of printing it")

	return cmd
}

func (o *getOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*getOptions) Validate() error {
	return nil
}

func (o *getOptions) Run() error {
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

	item, ok := v.GetItem(o.id)
	if !ok {
		return vaulterrors.Wrap(vaulterrors.KindNotFound, "item "+o.id, nil)
	}

	if o.copy {
		if err := clipboard.Copy(string(item.Data)); err != nil {
			return err
		}

		o.app.IO.Printf("Copied %s's data to the clipboard.\n", item.Title)

		return nil
	}

	o.app.IO.Printf("%s\t%s\t%s\trev=%d\n", item.ID, item.ItemType, item.Title, item.Revision)
	o.app.IO.Printf("%s\n", item.Data)

	return nil
}

// updateOptions implements [genericclioptions.CmdOptions] for `vlt update`.
type updateOptions struct {
	app *App

	id       string
	title    string
	data     string
	tags     []string
	favorite bool

	titleSet, dataSet, tagsSet, favoriteSet bool
}

func newUpdateCmd() *cobra.Command {
	o := &updateOptions{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "update a vault item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.id = args[0]
			o.titleSet = cmd.Flags().Changed("title")
			o.dataSet = cmd.Flags().Changed("data")
			o.tagsSet = cmd.Flags().Changed("tag")
			o.favoriteSet = cmd.Flags().Changed("favorite")

			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}

	cmd.Flags().StringVar(&o.title, "title", "", "new title")
	cmd.Flags().StringVar(&o.data, "data", "", "new item payload")
	cmd.Flags().StringSliceVar(&o.tags, "tag", nil, "new tag set (repeatable)")
	cmd.Flags().BoolVar(&o.favorite, "favorite", false, "new favorite flag")

	return cmd
}

func (o *updateOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*updateOptions) Validate() error {
	return nil
}

func (o *updateOptions) Run() error {
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

	var upd vault.ItemUpdate

	if o.titleSet {
		upd.Title = &o.title
	}

	if o.dataSet {
		upd.Data = []byte(o.data)
	}

	if o.tagsSet {
		upd.Tags = o.tags
	}

	if o.favoriteSet {
		upd.Favorite = &o.favorite
	}

	item, err := v.UpdateItem(o.id, upd)
	if err != nil {
		return err
	}

	if err := saveVault(ctx, keyring, v); err != nil {
		return err
	}

	o.app.IO.Printf("Updated item %s (rev=%d).\n", item.ID, item.Revision)

	return nil
}

// deleteOptions implements [genericclioptions.CmdOptions] for `vlt delete`.
type deleteOptions struct {
	app *App
	id  string
}

func newDeleteCmd() *cobra.Command {
	o := &deleteOptions{}

	return &cobra.Command{
		Use:   "delete <id>",
		Short: "soft-delete a vault item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.id = args[0]
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *deleteOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*deleteOptions) Validate() error {
	return nil
}

func (o *deleteOptions) Run() error {
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

	if err := v.DeleteItem(o.id); err != nil {
		return err
	}

	if err := saveVault(ctx, keyring, v); err != nil {
		return err
	}

	o.app.IO.Printf("Deleted item %s.\n", o.id)

	return nil
}

// listOptions implements [genericclioptions.CmdOptions] for `vlt list`.
type listOptions struct {
	app *App
}

func newListCmd() *cobra.Command {
	o := &listOptions{}

	return &cobra.Command{
		Use:   "list",
		Short: "list vault items",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *listOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*listOptions) Validate() error {
	return nil
}

func (o *listOptions) Run() error {
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

	printItems(o.app, v.ListItems())

	return nil
}

// searchOptions implements [genericclioptions.CmdOptions] for `vlt search`.
type searchOptions struct {
	app   *App
	query string
}

func newSearchCmd() *cobra.Command {
	o := &searchOptions{}

	return &cobra.Command{
		Use:   "search <query>",
		Short: "search vault items by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.query = args[0]
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}
}

func (o *searchOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (*searchOptions) Validate() error {
	return nil
}

func (o *searchOptions) Run() error {
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

	printItems(o.app, v.SearchItems(o.query))

	return nil
}

func printItems(app *App, items []vault.Item) {
	for _, item := range items {
		tags := strings.Join(item.Tags, ",")
		app.IO.Printf("%s\t%s\t%s\ttags=%s\trev=%d\n", item.ID, item.ItemType, item.Title, tags, item.Revision)
	}
}
