// Package checkout turns the cart into an order and manages the customer's
// own orders.
package checkout

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/pkg/eventbus"
	"github.com/fastygo/storefront/repository"
	"github.com/fastygo/storefront/usecase/cart"
)

const (
	EventOrderCreated   eventbus.Event = "order:created"
	EventOrderCancelled eventbus.Event = "order:cancelled"
)

// Session is the part of the session store checkout depends on.
type Session interface {
	Snapshot() domain.Session
}

type UseCase struct {
	orders  repository.OrderRepository
	cart    *cart.Store
	session Session
	bus     *eventbus.Bus
	logger  *zap.Logger
}

func New(orders repository.OrderRepository, cartStore *cart.Store, session Session, bus *eventbus.Bus, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.New(logger)
	}
	return &UseCase{orders: orders, cart: cartStore, session: session, bus: bus, logger: logger}
}

// PlaceOrder submits the cart with details. The cart is cleared only once
// the backend accepted the order.
func (uc *UseCase) PlaceOrder(ctx context.Context, details domain.OrderDetails) (*domain.Order, error) {
	current := uc.session.Snapshot()
	if !current.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	summary := uc.cart.OrderSummary()
	if len(summary.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	details.CustomerName = strings.TrimSpace(details.CustomerName)
	if details.CustomerName == "" {
		details.CustomerName = current.User.DisplayName()
	}
	if !details.IsDelivery {
		details.DeliveryAddress = nil
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	req := domain.OrderCreate{OrderDetails: details}
	for _, line := range summary.Items {
		req.Items = append(req.Items, domain.OrderLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	order, err := uc.orders.Create(ctx, req)
	if err != nil {
		uc.logger.Warn("order submission failed", zap.Int("lines", len(req.Items)), zap.Error(err))
		return nil, err
	}

	uc.cart.Clear(ctx)
	uc.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.TotalAmount),
	)
	uc.bus.Emit(EventOrderCreated, *order)
	return order, nil
}

// MyOrders lists the signed-in customer's orders, newest first.
func (uc *UseCase) MyOrders(ctx context.Context, status domain.OrderStatus) ([]domain.OrderSummary, error) {
	if !uc.session.Snapshot().IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	return uc.orders.Mine(ctx, repository.OrderFilter{Status: status})
}

func (uc *UseCase) Order(ctx context.Context, id int64) (*domain.Order, error) {
	if !uc.session.Snapshot().IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	return uc.orders.GetByID(ctx, id)
}

// Cancel asks the backend to cancel an order. Delivered or already
// cancelled orders are refused there.
func (uc *UseCase) Cancel(ctx context.Context, id int64) (string, error) {
	if !uc.session.Snapshot().IsAuthenticated() {
		return "", domain.ErrNotAuthenticated
	}
	msg, err := uc.orders.Cancel(ctx, id)
	if err != nil {
		return "", err
	}
	uc.bus.Emit(EventOrderCancelled, id)
	return msg, nil
}
