package domain

// Quantity bounds for a single cart line.
const (
	MinLineQuantity = 1
	MaxLineQuantity = 99
)

// CartLine is one menu item in the cart. JSON names match previously persisted carts.
type CartLine struct {
	ItemID      int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	UnitPrice   float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Quantity    int     `json:"quantity"`
	AddedAt     int64   `json:"addedAt"`
}

// Subtotal is the line price times quantity.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// ValidQuantity reports whether qty fits the per-line bounds.
func ValidQuantity(qty int) bool {
	return qty >= MinLineQuantity && qty <= MaxLineQuantity
}

// OrderSummaryLine is the item reference sent at checkout.
type OrderSummaryLine struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// CartSummary is the checkout-ready projection of the cart.
type CartSummary struct {
	Items     []OrderSummaryLine `json:"items"`
	Total     float64            `json:"total"`
	ItemCount int                `json:"item_count"`
}
