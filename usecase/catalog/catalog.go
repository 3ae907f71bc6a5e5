// Package catalog holds the public menu and the views derived from it.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/pkg/eventbus"
	"github.com/fastygo/storefront/repository"
)

// EventChange carries the freshly loaded menu.
const EventChange eventbus.Event = "menu:change"

// Filter narrows a menu. Zero values disable each criterion; Category
// "all" behaves like an empty category.
type Filter struct {
	Category      string
	Query         string
	AvailableOnly bool
}

// Apply returns the items matching f, keeping their order.
func Apply(items []domain.MenuItem, f Filter) []domain.MenuItem {
	needle := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if f.Category != "" && f.Category != domain.CategoryAll && item.Category != f.Category {
			continue
		}
		if f.AvailableOnly && !item.IsAvailable {
			continue
		}
		if needle != "" && !matches(item, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matches(item domain.MenuItem, needle string) bool {
	for _, field := range []string{item.Name, item.Description, item.Category} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// CategoriesOf returns the distinct categories of items sorted by name, with
// their item counts.
func CategoriesOf(items []domain.MenuItem) []domain.Category {
	counts := make(map[string]int)
	for _, item := range items {
		if item.Category != "" {
			counts[item.Category]++
		}
	}
	out := make([]domain.Category, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.Category{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type Catalog struct {
	items  repository.ItemRepository
	bus    *eventbus.Bus
	logger *zap.Logger

	mu       sync.RWMutex
	menu     []domain.MenuItem
	loadedAt time.Time
}

func New(items repository.ItemRepository, bus *eventbus.Bus, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.New(logger)
	}
	return &Catalog{items: items, bus: bus, logger: logger}
}

// Load fetches the public menu, sold-out items included, and replaces the
// cached copy.
func (c *Catalog) Load(ctx context.Context) ([]domain.MenuItem, error) {
	menu, err := c.items.Menu(ctx, repository.ItemFilter{IncludeUnavailable: true})
	if err != nil {
		c.logger.Warn("menu load failed", zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	c.menu = menu
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("menu loaded", zap.Int("items", len(menu)))
	c.bus.Emit(EventChange, c.Items())
	return c.Items(), nil
}

// Items returns a copy of the cached menu.
func (c *Catalog) Items() []domain.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.MenuItem(nil), c.menu...)
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loadedAt.IsZero()
}

func (c *Catalog) Item(id int64) (domain.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.menu {
		if item.ID == id {
			return item, true
		}
	}
	return domain.MenuItem{}, false
}

func (c *Catalog) Categories() []domain.Category {
	return CategoriesOf(c.Items())
}

func (c *Catalog) Filter(f Filter) []domain.MenuItem {
	return Apply(c.Items(), f)
}

func (c *Catalog) FilterByCategory(category string) []domain.MenuItem {
	return c.Filter(Filter{Category: category})
}

func (c *Catalog) Search(query string) []domain.MenuItem {
	return c.Filter(Filter{Query: query})
}

func (c *Catalog) Available() []domain.MenuItem {
	return c.Filter(Filter{AvailableOnly: true})
}

// SearchRemote asks the backend instead of filtering the cached menu.
func (c *Catalog) SearchRemote(ctx context.Context, query string, category string) ([]domain.MenuItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewError(domain.ErrCodeValidation, "search query is empty")
	}
	return c.items.Search(ctx, query, repository.ItemFilter{Category: category})
}

// RemoteCategories lists every category the backend accepts, including
// empty ones.
func (c *Catalog) RemoteCategories(ctx context.Context) ([]domain.Category, error) {
	return c.items.Categories(ctx)
}
