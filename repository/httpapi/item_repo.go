package httpapi

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
	"github.com/fastygo/storefront/internal/infrastructure/apiclient"
	"github.com/fastygo/storefront/repository"
)

type itemRepository struct {
	client    *apiclient.Client
	endpoints config.Endpoints
}

// NewItemRepository instantiates an API-backed menu item repository.
func NewItemRepository(client *apiclient.Client, endpoints config.Endpoints) repository.ItemRepository {
	return &itemRepository{client: client, endpoints: endpoints}
}

// Menu reads the public menu; no credentials are sent.
func (r *itemRepository) Menu(ctx context.Context, filter repository.ItemFilter) ([]domain.MenuItem, error) {
	var items []domain.MenuItem
	err := r.client.Do(ctx, apiclient.Request{
		Method: fasthttp.MethodGet,
		Path:   r.endpoints.Menu,
		Query:  itemQuery(filter, false),
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	var options []transport.CategoryOption
	err := r.client.Do(ctx, apiclient.Request{Method: fasthttp.MethodGet, Path: r.endpoints.Categories}, &options)
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(options))
	for _, opt := range options {
		categories = append(categories, domain.Category{Name: opt.Value})
	}
	return categories, nil
}

func (r *itemRepository) Search(ctx context.Context, query string, filter repository.ItemFilter) ([]domain.MenuItem, error) {
	q := itemQuery(filter, false)
	q.Set("q", query)
	var items []domain.MenuItem
	err := r.client.Do(ctx, apiclient.Request{Method: fasthttp.MethodGet, Path: r.endpoints.SearchItems, Query: q}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]domain.MenuItem, error) {
	var items []domain.MenuItem
	if err := r.client.Get(ctx, r.endpoints.ListItems, itemQuery(filter, true), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := r.client.Get(ctx, r.endpoints.Path(r.endpoints.ItemByID, id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, in domain.ItemInput) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := r.client.Post(ctx, r.endpoints.CreateItem, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Update(ctx context.Context, id int64, in domain.ItemInput) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := r.client.Put(ctx, r.endpoints.Path(r.endpoints.EditItem, id), in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ToggleAvailability(ctx context.Context, id int64) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := r.client.Put(ctx, r.endpoints.Path(r.endpoints.ToggleAvailability, id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) (*domain.ItemRemoval, error) {
	var resp transport.DeleteItemResponse
	if err := r.client.Delete(ctx, r.endpoints.Path(r.endpoints.DeleteItem, id), &resp); err != nil {
		return nil, err
	}
	return &domain.ItemRemoval{Message: resp.Message, Deactivated: resp.Action == "deactivated"}, nil
}
