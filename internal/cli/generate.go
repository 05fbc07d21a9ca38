package cli

import (
	"github.com/spf13/cobra"

	"github.com/noro/vault-core/clierror"
	"github.com/noro/vault-core/clipboard"
	"github.com/noro/vault-core/genericclioptions"
	"github.com/noro/vault-core/randstring"
)

// generateOptions implements [genericclioptions.CmdOptions] for
// `vlt generate`, a standalone password-generation utility (spec §1's
// Non-goals exclude it from the core encryption model, but it's a
// CLI-only convenience — unchanged from the teacher's randstring package).
type generateOptions struct {
	app *App

	length     int
	minLower   int
	minUpper   int
	minDigits  int
	minSymbols int
	copy       bool
}

func newGenerateCmd() *cobra.Command {
	o := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "generate a random password",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clierror.Check(genericclioptions.ExecuteCommand(o))
		},
	}

	cmd.Flags().IntVar(&o.length, "length", 20, "total password length")
	cmd.Flags().IntVar(&o.minLower, "min-lower", 1, "minimum lowercase letters")
	cmd.Flags().IntVar(&o.minUpper, "min-upper", 1, "minimum uppercase letters")
	cmd.Flags().IntVar(&o.minDigits, "min-digits", 1, "minimum digits")
	cmd.Flags().IntVar(&o.minSymbols, "min-symbols", 1, "minimum symbols")
	cmd.Flags().BoolVar(&o.copy, "copy", false, "copy the generated password to the clipboard")

	return cmd
}

func (o *generateOptions) Complete() error {
	app, err := newApp()
	if err != nil {
		return err
	}

	o.app = app

	return nil
}

func (o *generateOptions) Validate() error {
	if o.length <= 0 {
		return randstring.ErrInvalidLength
	}

	return nil
}

func (o *generateOptions) Run() error {
	pass, err := randstring.NewWithPolicy(randstring.PasswordPolicy{
		MinLowercase: o.minLower,
		MinUppercase: o.minUpper,
		MinDigits:    o.minDigits,
		MinSymbols:   o.minSymbols,
		MinLength:    o.length,
	})
	if err != nil {
		return err
	}

	if o.copy {
		if err := clipboard.Copy(pass); err != nil {
			return err
		}

		o.app.IO.Printf("Copied generated password to the clipboard.\n")

		return nil
	}

	o.app.IO.Printf("%s\n", pass)

	return nil
}
