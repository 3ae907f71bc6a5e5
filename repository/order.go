package repository

import (
	"context"

	"github.com/fastygo/storefront/domain"
)

type OrderFilter struct {
	Status domain.OrderStatus
	Skip   int
	Limit  int
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.OrderCreate) (*domain.Order, error)
	Mine(ctx context.Context, filter OrderFilter) ([]domain.OrderSummary, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Cancel(ctx context.Context, id int64) (string, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (string, error)
	AdminList(ctx context.Context, filter OrderFilter) ([]domain.OrderSummary, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}
