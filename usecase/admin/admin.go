// Package admin implements the back-office operations. Every call checks
// the session role before touching the network.
package admin

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/repository"
)

const (
	orderListLimit = 100
	itemListLimit  = 200
)

// Gate reports whether the current session may use admin operations.
type Gate interface {
	IsAdmin() bool
}

type UseCase struct {
	orders repository.OrderRepository
	items  repository.ItemRepository
	gate   Gate
	logger *zap.Logger
}

func New(orders repository.OrderRepository, items repository.ItemRepository, gate Gate, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{orders: orders, items: items, gate: gate, logger: logger}
}

func (uc *UseCase) authorize() error {
	if uc.gate == nil || !uc.gate.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}

// Orders lists every customer's orders, optionally narrowed server-side to
// one status.
func (uc *UseCase) Orders(ctx context.Context, status domain.OrderStatus) ([]domain.OrderSummary, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	return uc.orders.AdminList(ctx, repository.OrderFilter{Status: status, Limit: orderListLimit})
}

// FilterOrders narrows an already fetched list by status and by a
// case-insensitive match on order number or customer name.
func FilterOrders(orders []domain.OrderSummary, status domain.OrderStatus, text string) []domain.OrderSummary {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]domain.OrderSummary, 0, len(orders))
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), needle) &&
			!strings.Contains(strings.ToLower(o.CustomerName), needle) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (uc *UseCase) Order(ctx context.Context, id int64) (*domain.Order, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	return uc.orders.GetByID(ctx, id)
}

// UpdateOrderStatus validates rawStatus locally and returns the backend's
// confirmation message.
func (uc *UseCase) UpdateOrderStatus(ctx context.Context, id int64, rawStatus string) (string, error) {
	if err := uc.authorize(); err != nil {
		return "", err
	}
	status, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return "", err
	}
	msg, err := uc.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return "", err
	}
	uc.logger.Info("order status updated", zap.Int64("order_id", id), zap.String("status", string(status)))
	return msg, nil
}

func (uc *UseCase) Stats(ctx context.Context) (*domain.OrderStats, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	return uc.orders.Stats(ctx)
}

// Items lists the whole menu including unavailable entries.
func (uc *UseCase) Items(ctx context.Context) ([]domain.MenuItem, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	return uc.items.List(ctx, repository.ItemFilter{AvailableOnly: false, Limit: itemListLimit})
}

func (uc *UseCase) Item(ctx context.Context, id int64) (*domain.MenuItem, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	return uc.items.GetByID(ctx, id)
}

func (uc *UseCase) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.MenuItem, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	item, err := uc.items.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("menu item created", zap.Int64("item_id", item.ID), zap.String("name", item.Name))
	return item, nil
}

func (uc *UseCase) EditItem(ctx context.Context, id int64, in domain.ItemInput) (*domain.MenuItem, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return uc.items.Update(ctx, id, in)
}

func (uc *UseCase) ToggleItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	return uc.items.ToggleAvailability(ctx, id)
}

func (uc *UseCase) DeleteItem(ctx context.Context, id int64) (*domain.ItemRemoval, error) {
	if err := uc.authorize(); err != nil {
		return nil, err
	}
	removal, err := uc.items.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("menu item removed", zap.Int64("item_id", id), zap.Bool("deactivated", removal.Deactivated))
	return removal, nil
}
