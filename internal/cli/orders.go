package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/output"
)

func newCheckoutCmd(s *rootState) *cobra.Command {
	var (
		details domain.OrderDetails
		address domain.Address
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order with the cart contents",
		Long: `Place an order with every line in the cart. The cart is emptied once
the server accepts the order.

Payment methods: dinheiro, cartao_credito, cartao_debito, pix, vale_refeicao.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if details.IsDelivery {
				details.DeliveryAddress = &address
			}
			order, err := s.app.Checkout.PlaceOrder(cmd.Context(), details)
			if err != nil {
				return err
			}
			printOrder(s.app.Printer, order)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&details.CustomerName, "name", "", "customer name (defaults to the account name)")
	f.StringVar(&details.CustomerPhone, "phone", "", "phone as (11) 99999-9999")
	f.StringVar(&details.PaymentMethod, "payment", domain.PaymentPix, "payment method")
	f.StringVar(&details.Observations, "notes", "", "observations for the kitchen")
	f.BoolVar(&details.IsDelivery, "delivery", false, "deliver instead of pick up")
	f.StringVar(&address.Street, "street", "", "delivery street and number")
	f.StringVar(&address.Neighborhood, "neighborhood", "", "delivery neighborhood")
	f.StringVar(&address.City, "city", "", "delivery city")
	f.StringVar(&address.State, "state", "", "delivery state")
	f.StringVar(&address.ZipCode, "zip", "", "delivery zip code")
	f.StringVar(&address.Complement, "complement", "", "address complement")
	f.StringVar(&address.Reference, "reference", "", "address reference")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newOrdersCmd(s *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, inspect and cancel your orders",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := optionalStatus(status)
			if err != nil {
				return err
			}
			orders, err := s.app.Checkout.MyOrders(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return renderOrderSummaries(s.app.Printer, orders)
		},
	}
	list.Flags().StringVar(&status, "status", "", "only orders in this status")

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := s.app.Checkout.Order(cmd.Context(), id)
			if err != nil {
				return err
			}
			printOrder(s.app.Printer, order)
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order that was not delivered yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := s.app.Checkout.Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			if msg != "" {
				s.app.Printer.Info("%s", msg)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, cancel)
	return cmd
}

func optionalStatus(raw string) (domain.OrderStatus, error) {
	if raw == "" {
		return "", nil
	}
	return domain.ParseOrderStatus(raw)
}

func renderOrderSummaries(p *output.Printer, orders []domain.OrderSummary) error {
	if len(orders) == 0 {
		p.Info("No orders found")
		return nil
	}
	table := p.NewTable("id", "number", "customer", "status", "items", "total", "created")
	for _, o := range orders {
		table.AddRow(
			strconv.FormatInt(o.ID, 10),
			o.OrderNumber,
			o.CustomerName,
			p.StatusBadge(string(o.Status)),
			strconv.Itoa(o.ItemsCount),
			output.Money(o.TotalAmount),
			formatTime(o.CreatedAt),
		)
	}
	return table.Render()
}

func printOrder(p *output.Printer, o *domain.Order) {
	p.Header("Order " + o.OrderNumber)
	p.Print("  status:   %s", p.StatusBadge(string(o.Status)))
	p.Print("  customer: %s %s", o.CustomerName, p.Dim(o.CustomerPhone))
	if o.IsDelivery && o.DeliveryAddress != nil {
		a := o.DeliveryAddress
		p.Print("  delivery: %s, %s, %s/%s", a.Street, a.Neighborhood, a.City, a.State)
	} else {
		p.Print("  pickup at the store")
	}
	p.Print("  payment:  %s", o.PaymentMethod)
	if o.EstimatedDeliveryTime != nil {
		p.Print("  estimate: %d min", *o.EstimatedDeliveryTime)
	}

	table := p.NewTable("item", "qty", "unit", "subtotal")
	for _, line := range o.Items {
		name := "#" + strconv.FormatInt(line.ItemID, 10)
		if line.Item != nil {
			name = line.Item.Name
		}
		table.AddRow(name, strconv.Itoa(line.Quantity), output.Money(line.UnitPrice), output.Money(line.Subtotal))
	}
	_ = table.Render()

	p.Print("  subtotal: %s", output.Money(o.Subtotal))
	if o.DeliveryFee > 0 {
		p.Print("  delivery: %s", output.Money(o.DeliveryFee))
	}
	p.Print("  %s %s", p.Bold("total:"), output.Money(o.TotalAmount))
}

func formatTime(ts domain.Timestamp) string {
	t := ts.Time
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
