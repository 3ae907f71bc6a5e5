package repository

import (
	"context"

	"github.com/fastygo/storefront/domain"
)

// ItemFilter narrows item listings. The public menu hides unavailable
// items unless IncludeUnavailable is set.
type ItemFilter struct {
	Category           string
	AvailableOnly      bool
	IncludeUnavailable bool
	Skip               int
	Limit              int
}

type ItemRepository interface {
	Menu(ctx context.Context, filter ItemFilter) ([]domain.MenuItem, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, query string, filter ItemFilter) ([]domain.MenuItem, error)
	List(ctx context.Context, filter ItemFilter) ([]domain.MenuItem, error)
	GetByID(ctx context.Context, id int64) (*domain.MenuItem, error)
	Create(ctx context.Context, in domain.ItemInput) (*domain.MenuItem, error)
	Update(ctx context.Context, id int64, in domain.ItemInput) (*domain.MenuItem, error)
	ToggleAvailability(ctx context.Context, id int64) (*domain.MenuItem, error)
	Delete(ctx context.Context, id int64) (*domain.ItemRemoval, error)
}
