package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const annotationNoApp = "storefront/no-app"

// rootState carries the App built for the running command.
type rootState struct {
	opts  Options
	quiet bool
	app   *App
}

// NewRootCommand builds the storefront command tree. The App is created
// before each command runs; Execute closes it afterwards.
func NewRootCommand(opts Options) (*cobra.Command, func() error) {
	s := &rootState{opts: opts}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Pizzeria storefront client",
		Long: `storefront browses the menu, manages a local cart and places orders
against the pizzeria API. Administrators can manage items and orders.

Example usage:
  storefront login cliente          # Sign in
  storefront menu --category pizza  # Browse the menu
  storefront cart add 1 --qty 2     # Add two units of item 1
  storefront checkout --phone "(11) 99999-9999" --payment pix`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoApp] == "true" {
				return nil
			}
			opts := s.opts
			if opts.Out == nil {
				opts.Out = cmd.OutOrStdout()
			}
			if opts.Err == nil {
				opts.Err = cmd.ErrOrStderr()
			}
			opts.Quiet = opts.Quiet || s.quiet
			app, err := NewApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			s.app = app
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&s.quiet, "quiet", "q", false, "only print errors and results")

	root.AddCommand(
		newLoginCmd(s),
		newLogoutCmd(s),
		newWhoamiCmd(s),
		newRegisterCmd(s),
		newProfileCmd(s),
		newMenuCmd(s),
		newCategoriesCmd(s),
		newCartCmd(s),
		newCheckoutCmd(s),
		newOrdersCmd(s),
		newAdminCmd(s),
		newWatchCmd(s),
		newStatusCmd(s),
		newMockServerCmd(s),
		newVersionCmd(),
	)

	closeApp := func() error {
		if s.app == nil {
			return nil
		}
		err := s.app.Close()
		s.app = nil
		return err
	}
	return root, closeApp
}

// Execute runs the command line and releases the App.
func Execute(ctx context.Context, args []string, opts Options) error {
	root, closeApp := NewRootCommand(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if closeErr := closeApp(); err == nil {
		err = closeErr
	}
	return err
}
