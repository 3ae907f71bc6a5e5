package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/pkg/eventbus"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

var (
	margherita = domain.MenuItem{ID: 1, Name: "Pizza Margherita", Category: domain.CategoryPizza, Price: 45.90, IsAvailable: true}
	coke       = domain.MenuItem{ID: 4, Name: "Coca-Cola", Category: domain.CategoryBebida, Price: 12, IsAvailable: true}
	soldOut    = domain.MenuItem{ID: 3, Name: "Pizza de Banana", Price: 38, IsAvailable: false}
)

type fixture struct {
	cart  *Store
	local *storage.Memory
	st    *storage.Store
	bus   *eventbus.Bus
	clk   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		local: storage.NewMemory(),
		bus:   eventbus.New(nil),
		clk:   &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.st = storage.New(f.local, nil, storage.WithClock(f.clk.Now))
	f.cart = f.reopen()
	return f
}

func (f *fixture) reopen() *Store {
	return New(f.st, f.bus, nil, Config{}, WithClock(f.clk.Now))
}

func TestAddItemComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.AddItem(ctx, margherita, 2))
	require.NoError(t, f.cart.AddItem(ctx, coke, 1))

	assert.InDelta(t, 103.80, f.cart.Total(), 1e-9)
	assert.Equal(t, 3, f.cart.ItemCount())
	line, ok := f.cart.Line(margherita.ID)
	require.True(t, ok)
	assert.Equal(t, f.clk.t.UnixMilli(), line.AddedAt)
	assert.Equal(t, "Pizza Margherita", line.Name)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.AddItem(ctx, margherita, 2))
	require.NoError(t, f.cart.AddItem(ctx, margherita, 3))

	lines := f.cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddItemRejectsOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddItem(ctx, margherita, 98))

	err := f.cart.AddItem(ctx, margherita, 2)

	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)
	assert.Equal(t, domain.ErrCodeQuantityExceeded, domain.CodeOf(err))
	line, _ := f.cart.Line(margherita.ID)
	assert.Equal(t, 98, line.Quantity)

	require.NoError(t, f.cart.AddItem(ctx, margherita, 1))
	line, _ = f.cart.Line(margherita.ID)
	assert.Equal(t, 99, line.Quantity)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, tc := range map[string]struct {
		item domain.MenuItem
		qty  int
	}{
		"zero quantity":    {margherita, 0},
		"negative":         {margherita, -1},
		"above maximum":    {margherita, 100},
		"unavailable item": {soldOut, 1},
		"missing id":       {domain.MenuItem{Name: "ghost", IsAvailable: true}, 1},
	} {
		t.Run(name, func(t *testing.T) {
			err := f.cart.AddItem(ctx, tc.item, tc.qty)
			assert.Equal(t, domain.ErrCodeInvalidQuantity, domain.CodeOf(err))
			assert.True(t, f.cart.IsEmpty())
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddItem(ctx, coke, 3))

	require.NoError(t, f.cart.UpdateQuantity(ctx, coke.ID, 7))
	assert.InDelta(t, 84.0, f.cart.Total(), 1e-9)

	err := f.cart.UpdateQuantity(ctx, coke.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	line, ok := f.cart.Line(coke.ID)
	require.True(t, ok, "below minimum does not remove the line")
	assert.Equal(t, 7, line.Quantity)

	assert.ErrorIs(t, f.cart.UpdateQuantity(ctx, 999, 1), domain.ErrItemNotInCart)
	assert.ErrorIs(t, f.cart.UpdateQuantity(ctx, coke.ID, 100), domain.ErrInvalidQuantity)
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddItem(ctx, margherita, 1))
	require.NoError(t, f.cart.AddItem(ctx, coke, 2))

	require.NoError(t, f.cart.RemoveItem(ctx, margherita.ID))
	assert.InDelta(t, 24.0, f.cart.Total(), 1e-9)

	err := f.cart.RemoveItem(ctx, margherita.ID)
	assert.Equal(t, domain.ErrCodeNotFound, domain.CodeOf(err))

	f.cart.Clear(ctx)
	assert.True(t, f.cart.IsEmpty())
	assert.Zero(t, f.cart.Total())
	assert.Zero(t, f.cart.ItemCount())
}

func TestOrderSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddItem(ctx, margherita, 2))
	require.NoError(t, f.cart.AddItem(ctx, coke, 1))

	summary := f.cart.OrderSummary()

	assert.Equal(t, []domain.OrderSummaryLine{{ItemID: 1, Quantity: 2}, {ItemID: 4, Quantity: 1}}, summary.Items)
	assert.InDelta(t, 103.80, summary.Total, 1e-9)
	assert.Equal(t, 3, summary.ItemCount)

	raw, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"item_id":1,"quantity":2},{"item_id":4,"quantity":1}],"total":103.8,"item_count":3}`, string(raw))
}

func TestPersistsAndRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddItem(ctx, margherita, 2))

	raw, ok, err := f.local.Get(ctx, "hashtag_pizzaria_cart")
	require.NoError(t, err)
	require.True(t, ok)
	var env struct {
		Value  []map[string]any `json:"value"`
		Expiry int64            `json:"expiry"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, f.clk.t.Add(24*time.Hour).UnixMilli(), env.Expiry)
	require.Len(t, env.Value, 1)
	assert.EqualValues(t, 1, env.Value[0]["id"])
	assert.EqualValues(t, 45.9, env.Value[0]["price"])

	restored := f.reopen().Restore(ctx)
	assert.Equal(t, f.cart.Lines(), restored.Lines)
	assert.InDelta(t, 91.80, restored.Total, 1e-9)
}

func TestExpiryRollsWithEveryChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.AddItem(ctx, coke, 1))

	f.clk.t = f.clk.t.Add(23 * time.Hour)
	require.NoError(t, f.cart.UpdateQuantity(ctx, coke.ID, 2))
	f.clk.t = f.clk.t.Add(23 * time.Hour)
	assert.Len(t, f.reopen().Restore(ctx).Lines, 1)

	f.clk.t = f.clk.t.Add(time.Hour + time.Millisecond)
	assert.Empty(t, f.reopen().Restore(ctx).Lines)
}

func TestEmitsChangeOnlyOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var snaps []Snapshot
	eventbus.Listen(f.bus, EventChange, func(s Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, f.cart.AddItem(ctx, coke, 2))
	_ = f.cart.AddItem(ctx, coke, 98)
	_ = f.cart.RemoveItem(ctx, 42)
	f.cart.Clear(ctx)

	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[0].ItemCount)
	assert.InDelta(t, 24.0, snaps[0].Total, 1e-9)
	assert.Empty(t, snaps[1].Lines)
}
