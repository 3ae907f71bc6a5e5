package httpapi

import (
	"context"
	"net/url"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
	"github.com/fastygo/storefront/internal/infrastructure/apiclient"
	"github.com/fastygo/storefront/repository"
)

type orderRepository struct {
	client    *apiclient.Client
	endpoints config.Endpoints
}

// NewOrderRepository instantiates an API-backed order repository.
func NewOrderRepository(client *apiclient.Client, endpoints config.Endpoints) repository.OrderRepository {
	return &orderRepository{client: client, endpoints: endpoints}
}

func (r *orderRepository) Create(ctx context.Context, order domain.OrderCreate) (*domain.Order, error) {
	var created domain.Order
	if err := r.client.Post(ctx, r.endpoints.CreateOrder, order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) Mine(ctx context.Context, filter repository.OrderFilter) ([]domain.OrderSummary, error) {
	var orders []domain.OrderSummary
	if err := r.client.Get(ctx, r.endpoints.MyOrders, orderQuery(filter), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := r.client.Get(ctx, r.endpoints.Path(r.endpoints.OrderByID, id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Cancel(ctx context.Context, id int64) (string, error) {
	var resp transport.MessageResponse
	if err := r.client.Delete(ctx, r.endpoints.Path(r.endpoints.CancelOrder, id), &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (string, error) {
	var resp transport.MessageResponse
	q := url.Values{"new_status": []string{string(status)}}
	if err := r.client.Patch(ctx, r.endpoints.Path(r.endpoints.OrderStatus, id), q, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (r *orderRepository) AdminList(ctx context.Context, filter repository.OrderFilter) ([]domain.OrderSummary, error) {
	var orders []domain.OrderSummary
	if err := r.client.Get(ctx, r.endpoints.AdminOrders, orderQuery(filter), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	var stats domain.OrderStats
	if err := r.client.Get(ctx, r.endpoints.AdminOrderStats, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
