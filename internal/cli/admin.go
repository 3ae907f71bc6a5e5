package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/output"
	"github.com/fastygo/storefront/usecase/admin"
	"github.com/fastygo/storefront/usecase/catalog"
)

func newAdminCmd(s *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage orders and menu items (administrators only)",
	}
	cmd.AddCommand(
		newAdminOrdersCmd(s),
		newAdminOrderCmd(s),
		newAdminStatusCmd(s),
		newAdminStatsCmd(s),
		newAdminItemsCmd(s),
		newAdminItemCreateCmd(s),
		newAdminItemEditCmd(s),
		newAdminItemToggleCmd(s),
		newAdminItemDeleteCmd(s),
	)
	return cmd
}

func newAdminOrdersCmd(s *rootState) *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List every customer's orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := optionalStatus(status)
			if err != nil {
				return err
			}
			orders, err := s.app.Admin.Orders(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return renderOrderSummaries(s.app.Printer, admin.FilterOrders(orders, "", search))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only orders in this status")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match order number or customer name")
	return cmd
}

func newAdminOrderCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "order <order-id>",
		Short: "Show any order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := s.app.Admin.Order(cmd.Context(), id)
			if err != nil {
				return err
			}
			printOrder(s.app.Printer, order)
			return nil
		},
	}
}

func newAdminStatusCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Move an order to another status",
		Long: `Move an order to another status. Valid statuses: pendente, confirmado,
preparando, pronto, saiu_entrega, entregue, cancelado.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := s.app.Admin.UpdateOrderStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			s.app.Printer.Success("%s", msg)
			return nil
		},
	}
}

func newAdminStatsCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := s.app.Admin.Stats(cmd.Context())
			if err != nil {
				return err
			}
			p := s.app.Printer
			p.Header("Orders")
			p.Print("  total:          %d", stats.TotalOrders)
			p.Print("  today:          %d", stats.OrdersToday)
			p.Print("  revenue:        %s", output.Money(stats.TotalRevenue))
			p.Print("  average ticket: %s", output.Money(stats.AverageTicket))
			if len(stats.OrdersByStatus) == 0 {
				return nil
			}
			table := p.NewTable("status", "orders")
			for _, bucket := range stats.OrdersByStatus {
				table.AddRow(p.StatusBadge(bucket.Status), strconv.Itoa(bucket.Count))
			}
			return table.Render()
		},
	}
}

func newAdminItemsCmd(s *rootState) *cobra.Command {
	var filter catalog.Filter
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List every menu item, unavailable ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := s.app.Admin.Items(cmd.Context())
			if err != nil {
				return err
			}
			items = catalog.Apply(items, filter)
			if len(items) == 0 {
				s.app.Printer.Info("No items match")
				return nil
			}
			return renderItems(s.app.Printer, items)
		},
	}
	cmd.Flags().StringVarP(&filter.Category, "category", "c", "", "only items of this category")
	cmd.Flags().StringVarP(&filter.Query, "search", "s", "", "match name, description or category")
	return cmd
}

// itemFlags binds the editable item fields. Only flags the user set are
// copied onto an input, so edits keep the remaining fields.
type itemFlags struct {
	in       domain.ItemInput
	calories int
	prepTime int
}

func (f *itemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.in.Name, "name", "", "item name")
	fs.StringVar(&f.in.Description, "description", "", "item description")
	fs.StringVar(&f.in.Category, "category", "", "pizza, bebida, sobremesa, entrada or combo")
	fs.StringVar(&f.in.Size, "size", "", "pequena, media, grande, familia, unico, 350ml, 500ml, 1l or 2l")
	fs.Float64Var(&f.in.Price, "price", 0, "price in reais")
	fs.BoolVar(&f.in.IsAvailable, "available", true, "whether the item can be ordered")
	fs.IntVar(&f.calories, "calories", 0, "calories")
	fs.IntVar(&f.prepTime, "prep-time", 0, "preparation time in minutes")
	fs.StringVar(&f.in.ImageURL, "image", "", "image URL")
	fs.StringVar(&f.in.Ingredients, "ingredients", "", "ingredients")
	fs.StringVar(&f.in.Allergens, "allergens", "", "allergens")
}

func (f *itemFlags) applyTo(fs *pflag.FlagSet, in *domain.ItemInput) {
	set := map[string]func(){
		"name":        func() { in.Name = f.in.Name },
		"description": func() { in.Description = f.in.Description },
		"category":    func() { in.Category = f.in.Category },
		"size":        func() { in.Size = f.in.Size },
		"price":       func() { in.Price = f.in.Price },
		"available":   func() { in.IsAvailable = f.in.IsAvailable },
		"calories":    func() { in.Calories = &f.calories },
		"prep-time":   func() { in.PreparationTime = &f.prepTime },
		"image":       func() { in.ImageURL = f.in.ImageURL },
		"ingredients": func() { in.Ingredients = f.in.Ingredients },
		"allergens":   func() { in.Allergens = f.in.Allergens },
	}
	fs.Visit(func(flag *pflag.Flag) {
		if apply, ok := set[flag.Name]; ok {
			apply()
		}
	})
}

func newAdminItemCreateCmd(s *rootState) *cobra.Command {
	flags := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "item-create",
		Short: "Add a menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.ItemInput{IsAvailable: true}
			flags.applyTo(cmd.Flags(), &in)
			item, err := s.app.Admin.CreateItem(cmd.Context(), in)
			if err != nil {
				return err
			}
			s.app.Printer.Success("Item #%d %s created", item.ID, item.Name)
			return nil
		},
	}
	flags.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newAdminItemEditCmd(s *rootState) *cobra.Command {
	flags := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "item-edit <item-id>",
		Short: "Change fields of a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := s.app.Admin.Item(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := domain.InputFromItem(*current)
			flags.applyTo(cmd.Flags(), &in)
			item, err := s.app.Admin.EditItem(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			s.app.Printer.Success("Item #%d %s updated", item.ID, item.Name)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newAdminItemToggleCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "item-toggle <item-id>",
		Short: "Flip the availability of a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := s.app.Admin.ToggleItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			s.app.Printer.Success("Item #%d %s is now %s", item.ID, item.Name, availability(*item))
			return nil
		},
	}
}

func newAdminItemDeleteCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "item-delete <item-id>",
		Short: "Delete a menu item",
		Long: `Delete a menu item. Items referenced by past orders are deactivated
instead of removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			removal, err := s.app.Admin.DeleteItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			if removal.Deactivated {
				s.app.Printer.Warning("Item #%d is part of past orders and was deactivated instead", id)
				return nil
			}
			s.app.Printer.Success("Item #%d deleted", id)
			return nil
		},
	}
}
