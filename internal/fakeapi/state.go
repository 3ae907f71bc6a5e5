package fakeapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/storefront/domain"
)

// Seeded accounts.
const (
	AdminLogin       = "admin"
	AdminPassword    = "Admin@123"
	CustomerLogin    = "cliente"
	CustomerPassword = "Cliente@123"
)

const deliveryFee = 5.0

// passwordCost keeps hashing cheap; every test server seeds accounts.
const passwordCost = bcrypt.MinCost

type account struct {
	user         domain.User
	passwordHash []byte
}

func hashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
}

func (a *account) checkPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(plain)) == nil
}

type state struct {
	mu  sync.Mutex
	now func() time.Time

	users  map[int64]*account
	items  map[int64]*domain.MenuItem
	orders map[int64]*domain.Order

	nextUser      int64
	nextItem      int64
	nextOrder     int64
	nextOrderLine int64
}

func newState(now func() time.Time) *state {
	st := &state{
		now:    now,
		users:  make(map[int64]*account),
		items:  make(map[int64]*domain.MenuItem),
		orders: make(map[int64]*domain.Order),
	}
	st.seed()
	return st
}

func (st *state) seed() {
	st.addUser(domain.User{Username: AdminLogin, Email: "admin@pizzaria.com", FullName: "Administrador", IsAdmin: true}, mustHash(AdminPassword))
	st.addUser(domain.User{Username: CustomerLogin, Email: "cliente@pizzaria.com", FullName: "Cliente Teste"}, mustHash(CustomerPassword))

	minutes := func(v int) *int { return &v }
	menu := []domain.ItemInput{
		{Name: "Pizza Margherita", Description: "Molho de tomate, mussarela e manjericão", Category: domain.CategoryPizza, Size: "grande", Price: 45.90, IsAvailable: true, PreparationTime: minutes(25), Ingredients: "tomate, mussarela, manjericão"},
		{Name: "Pizza Calabresa", Description: "Calabresa fatiada com cebola", Category: domain.CategoryPizza, Size: "grande", Price: 42.50, IsAvailable: true, PreparationTime: minutes(25), Ingredients: "calabresa, cebola, mussarela"},
		{Name: "Pizza de Banana", Description: "Banana com canela e açúcar", Category: domain.CategoryPizza, Size: "media", Price: 38.00, IsAvailable: false, PreparationTime: minutes(20)},
		{Name: "Coca-Cola", Description: "Refrigerante gelado", Category: domain.CategoryBebida, Size: "2l", Price: 12.00, IsAvailable: true},
		{Name: "Pudim", Description: "Pudim de leite condensado", Category: domain.CategorySobremesa, Size: "unico", Price: 15.00, IsAvailable: true, Allergens: "leite, ovos"},
		{Name: "Bruschetta", Description: "Pão italiano com tomate", Category: domain.CategoryEntrada, Size: "unico", Price: 22.00, IsAvailable: true, Allergens: "glúten"},
	}
	for _, in := range menu {
		st.addItem(in)
	}
}

func mustHash(plain string) []byte {
	hash, err := hashPassword(plain)
	if err != nil {
		panic(err)
	}
	return hash
}

func (st *state) addUser(u domain.User, passwordHash []byte) *account {
	st.nextUser++
	now := domain.Timestamp{Time: st.now()}
	u.ID = st.nextUser
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now, now
	acc := &account{user: u, passwordHash: passwordHash}
	st.users[u.ID] = acc
	return acc
}

func (st *state) addItem(in domain.ItemInput) *domain.MenuItem {
	st.nextItem++
	now := domain.Timestamp{Time: st.now()}
	item := applyInput(domain.MenuItem{ID: st.nextItem, CreatedAt: now}, in)
	item.UpdatedAt = now
	st.items[item.ID] = &item
	return &item
}

func applyInput(item domain.MenuItem, in domain.ItemInput) domain.MenuItem {
	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.Category = in.Category
	item.Size = in.Size
	item.Price = in.Price
	item.IsAvailable = in.IsAvailable
	item.Calories = in.Calories
	item.PreparationTime = in.PreparationTime
	item.ImageURL = in.ImageURL
	item.Ingredients = in.Ingredients
	item.Allergens = in.Allergens
	return item
}

func (st *state) findLogin(login string) *account {
	login = strings.ToLower(strings.TrimSpace(login))
	for _, acc := range st.users {
		if strings.ToLower(acc.user.Username) == login || strings.ToLower(acc.user.Email) == login {
			return acc
		}
	}
	return nil
}

func (st *state) sortedItems() []domain.MenuItem {
	out := make([]domain.MenuItem, 0, len(st.items))
	for _, item := range st.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedOrders returns orders newest first.
func (st *state) sortedOrders(keep func(*domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0, len(st.orders))
	for _, order := range st.orders {
		if keep(order) {
			out = append(out, *order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (st *state) itemInOrders(id int64) bool {
	for _, order := range st.orders {
		for _, line := range order.Items {
			if line.ItemID == id {
				return true
			}
		}
	}
	return false
}

func summarize(o domain.Order) domain.OrderSummary {
	count := 0
	for _, line := range o.Items {
		count += line.Quantity
	}
	return domain.OrderSummary{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		Status:       o.Status,
		TotalAmount:  o.TotalAmount,
		CreatedAt:    o.CreatedAt,
		ItemsCount:   count,
	}
}

func window[T any](in []T, skip, limit int) []T {
	if skip >= len(in) {
		return []T{}
	}
	in = in[skip:]
	if limit >= 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
