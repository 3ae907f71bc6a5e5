package output

import (
	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/infrastructure/monitor"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/pkg/eventbus"
	"github.com/fastygo/storefront/usecase/cart"
	"github.com/fastygo/storefront/usecase/checkout"
	"github.com/fastygo/storefront/usecase/session"
)

// Notifier turns bus events into terminal notices.
type Notifier struct {
	printer *Printer
	offs    []func()
}

// NewNotifier subscribes to the session, cart, order and connectivity
// events on bus. Close removes the subscriptions.
func NewNotifier(bus *eventbus.Bus, p *Printer) *Notifier {
	n := &Notifier{printer: p}
	n.offs = append(n.offs,
		eventbus.Listen(bus, session.EventLogin, n.onLogin),
		bus.On(session.EventLogout, func(any) { p.Info("Signed out") }),
		bus.On(session.EventExpired, func(any) {
			p.Warning("Your session expired. Sign in again with 'storefront login'.")
		}),
		bus.On(session.EventTokenRefreshed, func(any) { p.Print("%s", p.Dim("session renewed")) }),
		eventbus.Listen(bus, session.EventStorageChanged, n.onStorageChanged),
		eventbus.Listen(bus, cart.EventChange, n.onCartChange),
		eventbus.Listen(bus, checkout.EventOrderCreated, n.onOrderCreated),
		eventbus.Listen(bus, checkout.EventOrderCancelled, func(id int64) {
			p.Success("Order #%d cancelled", id)
		}),
		eventbus.Listen(bus, monitor.EventStatusChanged, n.onStatus),
	)
	return n
}

func (n *Notifier) Close() {
	for _, off := range n.offs {
		off()
	}
	n.offs = nil
}

func (n *Notifier) onLogin(s domain.Session) {
	if s.User != nil {
		n.printer.Success("Signed in as %s", s.User.DisplayName())
	}
}

func (n *Notifier) onStorageChanged(c storage.Change) {
	msg := "session updated by another client (" + c.Key + ")"
	n.printer.Print("%s", n.printer.Dim(msg))
}

func (n *Notifier) onCartChange(s cart.Snapshot) {
	n.printer.Print("Cart: %d item(s), %s", s.ItemCount, Money(s.Total))
}

func (n *Notifier) onOrderCreated(o domain.Order) {
	n.printer.Success("Order %s placed, total %s", o.OrderNumber, Money(o.TotalAmount))
}

func (n *Notifier) onStatus(s monitor.Status) {
	if s.Online() {
		n.printer.Success("Connected")
		return
	}
	if !s.API {
		n.printer.Warning("Server unreachable: %s", s.APIError)
		return
	}
	n.printer.Warning("Local storage unavailable")
}
