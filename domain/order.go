package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pendente"
	OrderConfirmed  OrderStatus = "confirmado"
	OrderPreparing  OrderStatus = "preparando"
	OrderReady      OrderStatus = "pronto"
	OrderDispatched OrderStatus = "saiu_entrega"
	OrderDelivered  OrderStatus = "entregue"
	OrderCancelled  OrderStatus = "cancelado"
)

var orderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
	OrderDispatched, OrderDelivered, OrderCancelled,
}

// OrderStatuses returns every valid status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

func (s OrderStatus) Valid() bool {
	for _, candidate := range orderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this state may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s != OrderDelivered && s != OrderCancelled
}

// ParseOrderStatus normalises user input and validates it.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", NewError(ErrCodeValidation, fmt.Sprintf("invalid order status %q", raw))
	}
	return status, nil
}

// PaymentMethod values accepted by the backend.
const (
	PaymentCash        = "dinheiro"
	PaymentCreditCard  = "cartao_credito"
	PaymentDebitCard   = "cartao_debito"
	PaymentPix         = "pix"
	PaymentMealVoucher = "vale_refeicao"
)

var paymentMethods = []string{PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPix, PaymentMealVoucher}

func IsValidPaymentMethod(method string) bool {
	return contains(paymentMethods, method)
}

// Address is a delivery address.
type Address struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Complement   string `json:"complement,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// OrderLine is an item reference inside an order request.
type OrderLine struct {
	ItemID       int64  `json:"item_id"`
	Quantity     int    `json:"quantity"`
	Observations string `json:"observations,omitempty"`
}

// OrderDetails are the customer-supplied checkout fields.
type OrderDetails struct {
	CustomerName    string   `json:"customer_name,omitempty"`
	CustomerPhone   string   `json:"customer_phone"`
	IsDelivery      bool     `json:"is_delivery"`
	DeliveryAddress *Address `json:"delivery_address,omitempty"`
	PaymentMethod   string   `json:"payment_method"`
	Observations    string   `json:"observations,omitempty"`
}

var phonePattern = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)

// Validate checks the details before they are sent with an order.
func (d OrderDetails) Validate() error {
	if !phonePattern.MatchString(d.CustomerPhone) {
		return NewError(ErrCodeValidation, "phone must look like (11) 99999-9999")
	}
	if !IsValidPaymentMethod(d.PaymentMethod) {
		return NewError(ErrCodeValidation, "unknown payment method "+d.PaymentMethod)
	}
	if d.IsDelivery {
		if d.DeliveryAddress == nil || strings.TrimSpace(d.DeliveryAddress.Street) == "" {
			return NewError(ErrCodeValidation, "delivery orders need an address")
		}
	}
	return nil
}

// OrderCreate is the payload for a new order.
type OrderCreate struct {
	OrderDetails
	Items []OrderLine `json:"items"`
}

// OrderItem is a line of a placed order.
type OrderItem struct {
	ID           int64     `json:"id"`
	ItemID       int64     `json:"item_id"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Subtotal     float64   `json:"subtotal"`
	Observations string    `json:"observations,omitempty"`
	Item         *MenuItem `json:"item,omitempty"`
}

// Order is the full remote order record.
type Order struct {
	ID                    int64       `json:"id"`
	OrderNumber           string      `json:"order_number"`
	UserID                int64       `json:"user_id"`
	CustomerName          string      `json:"customer_name"`
	CustomerPhone         string      `json:"customer_phone"`
	IsDelivery            bool        `json:"is_delivery"`
	DeliveryAddress       *Address    `json:"delivery_address,omitempty"`
	PaymentMethod         string      `json:"payment_method"`
	Observations          string      `json:"observations,omitempty"`
	Status                OrderStatus `json:"status"`
	Items                 []OrderItem `json:"items"`
	Subtotal              float64     `json:"subtotal"`
	DeliveryFee           float64     `json:"delivery_fee"`
	TotalAmount           float64     `json:"total_amount"`
	EstimatedDeliveryTime *int        `json:"estimated_delivery_time,omitempty"`
	CreatedAt             Timestamp   `json:"created_at"`
	UpdatedAt             Timestamp   `json:"updated_at"`
}

// OrderSummary is the list projection of an order.
type OrderSummary struct {
	ID           int64       `json:"id"`
	OrderNumber  string      `json:"order_number"`
	CustomerName string      `json:"customer_name"`
	Status       OrderStatus `json:"status"`
	TotalAmount  float64     `json:"total_amount"`
	CreatedAt    Timestamp   `json:"created_at"`
	ItemsCount   int         `json:"items_count"`
}

// StatusCount is one bucket of the per-status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// OrderStats is the admin dashboard aggregate.
type OrderStats struct {
	TotalOrders    int           `json:"total_orders"`
	OrdersToday    int           `json:"orders_today"`
	TotalRevenue   float64       `json:"total_revenue"`
	AverageTicket  float64       `json:"average_ticket"`
	OrdersByStatus []StatusCount `json:"orders_by_status"`
}
