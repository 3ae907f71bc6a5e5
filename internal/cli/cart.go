package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/output"
)

func newCartCmd(s *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
		Long: `The cart is kept in local storage for 24 hours after the last change.
Each item holds between 1 and 99 units.`,
	}
	cmd.AddCommand(
		newCartShowCmd(s),
		newCartAddCmd(s),
		newCartSetCmd(s),
		newCartStepCmd(s, "inc", "Add one unit of an item", 1),
		newCartStepCmd(s, "dec", "Remove one unit of an item; the last unit removes the line", -1),
		newCartRemoveCmd(s),
		newCartClearCmd(s),
	)
	return cmd
}

func newCartShowCmd(s *rootState) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the cart contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			if asJSON {
				enc := json.NewEncoder(app.Printer.Out())
				enc.SetIndent("", "  ")
				return enc.Encode(app.Cart.OrderSummary())
			}
			snap := app.Cart.Snapshot()
			if len(snap.Lines) == 0 {
				app.Printer.Info("Your cart is empty")
				return nil
			}
			table := app.Printer.NewTable("id", "item", "qty", "unit", "subtotal")
			for _, line := range snap.Lines {
				table.AddRow(
					strconv.FormatInt(line.ItemID, 10),
					line.Name,
					strconv.Itoa(line.Quantity),
					output.Money(line.UnitPrice),
					output.Money(line.Subtotal()),
				)
			}
			if err := table.Render(); err != nil {
				return err
			}
			app.Printer.Print("%s %d item(s), %s", app.Printer.Bold("Total:"), snap.ItemCount, output.Money(snap.Total))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the checkout summary as JSON")
	return cmd
}

func newCartAddCmd(s *rootState) *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <item-id>",
		Short: "Add a menu item to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app := s.app
			if _, err := app.Catalog.Load(cmd.Context()); err != nil {
				return err
			}
			item, ok := app.Catalog.Item(id)
			if !ok {
				return domain.ErrItemNotFound
			}
			return app.Cart.AddItem(cmd.Context(), item, qty)
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 1, "number of units")
	return cmd
}

func newCartSetCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return domain.ErrInvalidQuantity
			}
			return s.app.Cart.UpdateQuantity(cmd.Context(), id, qty)
		},
	}
}

// newCartStepCmd builds inc and dec. Decrementing the last unit removes
// the line instead of failing on a zero quantity.
func newCartStepCmd(s *rootState, use, short string, delta int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := s.app.Cart
			line, ok := c.Line(id)
			if !ok {
				return domain.ErrItemNotInCart
			}
			next := line.Quantity + delta
			if next < domain.MinLineQuantity {
				return c.RemoveItem(cmd.Context(), id)
			}
			if next > domain.MaxLineQuantity {
				return domain.ErrQuantityExceeded
			}
			return c.UpdateQuantity(cmd.Context(), id, next)
		},
	}
}

func newCartRemoveCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.app.Cart.RemoveItem(cmd.Context(), id)
		},
	}
}

func newCartClearCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.app.Cart.Clear(cmd.Context())
			return nil
		},
	}
}
