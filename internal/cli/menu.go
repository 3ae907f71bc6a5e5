package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/output"
	"github.com/fastygo/storefront/usecase/catalog"
)

func newMenuCmd(s *rootState) *cobra.Command {
	var (
		filter catalog.Filter
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List menu items",
		Long: `List the public menu. Filters run locally on the loaded menu unless
--remote is given, in which case the search runs on the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			var items []domain.MenuItem
			var err error
			if remote && filter.Query != "" {
				items, err = app.Catalog.SearchRemote(cmd.Context(), filter.Query, filter.Category)
				if err == nil && filter.AvailableOnly {
					items = catalog.Apply(items, catalog.Filter{AvailableOnly: true})
				}
			} else {
				if _, err = app.Catalog.Load(cmd.Context()); err == nil {
					items = app.Catalog.Filter(filter)
				}
			}
			if err != nil {
				return err
			}
			if len(items) == 0 {
				app.Printer.Info("No items match")
				return nil
			}
			return renderItems(app.Printer, items)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filter.Category, "category", "c", "", "only items of this category ('all' for every category)")
	f.StringVarP(&filter.Query, "search", "s", "", "match name, description or category")
	f.BoolVar(&filter.AvailableOnly, "available", false, "hide unavailable items")
	f.BoolVar(&remote, "remote", false, "search on the server")
	return cmd
}

func renderItems(p *output.Printer, items []domain.MenuItem) error {
	table := p.NewTable("id", "name", "category", "size", "price", "status")
	for _, item := range items {
		table.AddRow(
			strconv.FormatInt(item.ID, 10),
			item.Name,
			item.Category,
			item.Size,
			output.Money(item.Price),
			p.StatusBadge(availability(item)),
		)
	}
	return table.Render()
}

func availability(item domain.MenuItem) string {
	if item.IsAvailable {
		return "disponivel"
	}
	return "indisponivel"
}

func newCategoriesCmd(s *rootState) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List menu categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			var cats []domain.Category
			var err error
			if remote {
				cats, err = app.Catalog.RemoteCategories(cmd.Context())
			} else if _, err = app.Catalog.Load(cmd.Context()); err == nil {
				cats = app.Catalog.Categories()
			}
			if err != nil {
				return err
			}
			table := app.Printer.NewTable("category", "items")
			for _, c := range cats {
				count := "-"
				if c.Count > 0 {
					count = strconv.Itoa(c.Count)
				}
				table.AddRow(c.Name, count)
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server for its category list")
	return cmd
}
