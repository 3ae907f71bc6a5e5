// Package cart keeps the shopping cart and persists it between runs.
package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/pkg/eventbus"
)

// EventChange carries a Snapshot after every mutation.
const EventChange eventbus.Event = "cart:change"

type Config struct {
	StorageKey string
	Expiry     time.Duration
}

// Snapshot is an immutable view of the cart.
type Snapshot struct {
	Lines     []domain.CartLine
	Total     float64
	ItemCount int
}

type Store struct {
	storage *storage.Store
	bus     *eventbus.Bus
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time

	mu    sync.Mutex
	lines []domain.CartLine
	total float64
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(st *storage.Store, bus *eventbus.Bus, logger *zap.Logger, cfg Config, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.New(logger)
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "hashtag_pizzaria_cart"
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	s := &Store{
		storage: st,
		bus:     bus,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore replaces the in-memory cart with the persisted one. A missing or
// expired record yields an empty cart.
func (s *Store) Restore(ctx context.Context) Snapshot {
	var lines []domain.CartLine
	if !s.storage.Get(ctx, s.cfg.StorageKey, &lines) {
		lines = nil
	}

	s.mu.Lock()
	s.lines = lines
	s.recalculate()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("cart restored", zap.Int("lines", len(snap.Lines)))
	return snap
}

// AddItem adds qty units of item, merging into an existing line. The cart
// is left unchanged on error.
func (s *Store) AddItem(ctx context.Context, item domain.MenuItem, qty int) error {
	if item.ID <= 0 {
		return domain.ErrInvalidItem
	}
	if !domain.ValidQuantity(qty) {
		return domain.ErrInvalidQuantity
	}
	if !item.IsAvailable {
		return domain.ErrInvalidItem
	}

	return s.mutate(ctx, func() error {
		if i := s.indexLocked(item.ID); i >= 0 {
			next := s.lines[i].Quantity + qty
			if next > domain.MaxLineQuantity {
				return domain.ErrQuantityExceeded
			}
			s.lines[i].Quantity = next
			return nil
		}
		s.lines = append(s.lines, domain.CartLine{
			ItemID:      item.ID,
			Name:        item.Name,
			Description: item.Description,
			UnitPrice:   item.Price,
			Category:    item.Category,
			ImageURL:    item.ImageURL,
			Quantity:    qty,
			AddedAt:     s.now().UnixMilli(),
		})
		return nil
	})
}

func (s *Store) RemoveItem(ctx context.Context, itemID int64) error {
	return s.mutate(ctx, func() error {
		i := s.indexLocked(itemID)
		if i < 0 {
			return domain.ErrItemNotInCart
		}
		s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
		return nil
	})
}

// UpdateQuantity sets the quantity of an existing line. Values below the
// minimum are rejected rather than removing the line.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, qty int) error {
	if !domain.ValidQuantity(qty) {
		return domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, func() error {
		i := s.indexLocked(itemID)
		if i < 0 {
			return domain.ErrItemNotInCart
		}
		s.lines[i].Quantity = qty
		return nil
	})
}

func (s *Store) Clear(ctx context.Context) {
	_ = s.mutate(ctx, func() error {
		s.lines = nil
		return nil
	})
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Lines() []domain.CartLine {
	return s.Snapshot().Lines
}

func (s *Store) Line(itemID int64) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(itemID); i >= 0 {
		return s.lines[i], true
	}
	return domain.CartLine{}, false
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// OrderSummary is the checkout projection of the cart.
func (s *Store) OrderSummary() domain.CartSummary {
	snap := s.Snapshot()
	items := make([]domain.OrderSummaryLine, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, domain.OrderSummaryLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return domain.CartSummary{Items: items, Total: snap.Total, ItemCount: snap.ItemCount}
}

// mutate applies fn under the lock. On success the cart is persisted with a
// fresh expiry and EventChange is emitted outside the lock.
func (s *Store) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	backup := append([]domain.CartLine(nil), s.lines...)
	if err := fn(); err != nil {
		s.lines = backup
		s.mu.Unlock()
		return err
	}
	s.recalculate()
	snap := s.snapshotLocked()
	s.storage.Set(ctx, s.cfg.StorageKey, snap.Lines, s.cfg.Expiry)
	s.mu.Unlock()

	s.bus.Emit(EventChange, snap)
	return nil
}

func (s *Store) recalculate() {
	var total float64
	for _, line := range s.lines {
		total += line.Subtotal()
	}
	s.total = total
}

func (s *Store) snapshotLocked() Snapshot {
	lines := append([]domain.CartLine{}, s.lines...)
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return Snapshot{Lines: lines, Total: s.total, ItemCount: count}
}

func (s *Store) indexLocked(itemID int64) int {
	for i, line := range s.lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}
