package fakeapi

import (
	"fmt"
	"math"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
)

func (s *Server) createOrder(ctx *fasthttp.RequestCtx, user domain.User) {
	var req domain.OrderCreate
	if err := decodeBody(ctx, &req); err != nil {
		s.respondError(ctx, err)
		return
	}
	if len(req.Items) == 0 {
		s.invalid(ctx, "items", "order must contain at least one item")
		return
	}
	if err := req.OrderDetails.Validate(); err != nil {
		s.invalid(ctx, "order", err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	now := domain.Timestamp{Time: s.now()}
	order := domain.Order{
		UserID:          user.ID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		IsDelivery:      req.IsDelivery,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Observations:    req.Observations,
		Status:          domain.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.CustomerName == "" {
		order.CustomerName = user.FullName
	}

	for _, line := range req.Items {
		if line.Quantity < domain.MinLineQuantity || line.Quantity > domain.MaxLineQuantity {
			s.invalid(ctx, "quantity", "quantity must be between 1 and 99")
			return
		}
		item, ok := s.state.items[line.ItemID]
		if !ok {
			s.fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Item com ID %d não encontrado", line.ItemID))
			return
		}
		if !item.IsAvailable {
			s.fail(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Item '%s' não está disponível", item.Name))
			return
		}
		s.state.nextOrderLine++
		snapshot := *item
		subtotal := round2(item.Price * float64(line.Quantity))
		order.Items = append(order.Items, domain.OrderItem{
			ID:           s.state.nextOrderLine,
			ItemID:       item.ID,
			Quantity:     line.Quantity,
			UnitPrice:    item.Price,
			Subtotal:     subtotal,
			Observations: line.Observations,
			Item:         &snapshot,
		})
		order.Subtotal = round2(order.Subtotal + subtotal)
	}
	if order.IsDelivery {
		order.DeliveryFee = deliveryFee
	}
	order.TotalAmount = round2(order.Subtotal + order.DeliveryFee)
	eta := 40
	order.EstimatedDeliveryTime = &eta

	s.state.nextOrder++
	order.ID = s.state.nextOrder
	order.OrderNumber = fmt.Sprintf("PED%06d", order.ID)
	s.state.orders[order.ID] = &order

	respondJSON(ctx, fasthttp.StatusCreated, order)
}

func (s *Server) myOrders(ctx *fasthttp.RequestCtx, user domain.User) {
	s.respondSummaries(ctx, 20, func(o *domain.Order) bool { return o.UserID == user.ID })
}

func (s *Server) allOrders(ctx *fasthttp.RequestCtx, _ domain.User) {
	s.respondSummaries(ctx, 50, func(*domain.Order) bool { return true })
}

func (s *Server) respondSummaries(ctx *fasthttp.RequestCtx, defaultLimit int, keep func(*domain.Order) bool) {
	status := domain.OrderStatus(ctx.QueryArgs().Peek("status_filter"))
	if status != "" && !status.Valid() {
		s.fail(ctx, fasthttp.StatusBadRequest, "Status inválido")
		return
	}

	s.state.mu.Lock()
	orders := s.state.sortedOrders(func(o *domain.Order) bool {
		return keep(o) && (status == "" || o.Status == status)
	})
	s.state.mu.Unlock()

	out := make([]domain.OrderSummary, 0, len(orders))
	for _, o := range window(orders, queryInt(ctx, "skip", 0), queryInt(ctx, "limit", defaultLimit)) {
		out = append(out, summarize(o))
	}
	respondJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) getOrder(ctx *fasthttp.RequestCtx, user domain.User) {
	s.withOrder(ctx, user, func(order *domain.Order) {
		respondJSON(ctx, fasthttp.StatusOK, order)
	})
}

func (s *Server) updateOrderStatus(ctx *fasthttp.RequestCtx, user domain.User) {
	status := domain.OrderStatus(ctx.QueryArgs().Peek("new_status"))
	if !status.Valid() {
		s.fail(ctx, fasthttp.StatusBadRequest, "Status inválido")
		return
	}
	s.withOrder(ctx, user, func(order *domain.Order) {
		order.Status = status
		order.UpdatedAt = domain.Timestamp{Time: s.now()}
		respondJSON(ctx, fasthttp.StatusOK, transport.MessageResponse{
			Message: fmt.Sprintf("Status do pedido %s atualizado para %s", order.OrderNumber, status),
		})
	})
}

func (s *Server) cancelOrder(ctx *fasthttp.RequestCtx, user domain.User) {
	s.withOrder(ctx, user, func(order *domain.Order) {
		if !order.Status.Cancellable() {
			s.fail(ctx, fasthttp.StatusBadRequest, "Não é possível cancelar um pedido entregue ou já cancelado")
			return
		}
		order.Status = domain.OrderCancelled
		order.UpdatedAt = domain.Timestamp{Time: s.now()}
		respondJSON(ctx, fasthttp.StatusOK, transport.MessageResponse{
			Message: fmt.Sprintf("Pedido %s cancelado com sucesso", order.OrderNumber),
		})
	})
}

func (s *Server) orderStats(ctx *fasthttp.RequestCtx, _ domain.User) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	stats := domain.OrderStats{}
	counts := make(map[domain.OrderStatus]int)
	today := s.now().Truncate(24 * time.Hour)
	for _, order := range s.state.orders {
		stats.TotalOrders++
		counts[order.Status]++
		if !order.CreatedAt.Before(today) {
			stats.OrdersToday++
		}
		if order.Status != domain.OrderCancelled {
			stats.TotalRevenue = round2(stats.TotalRevenue + order.TotalAmount)
		}
	}
	if stats.TotalOrders > 0 {
		stats.AverageTicket = round2(stats.TotalRevenue / float64(stats.TotalOrders))
	}
	for _, status := range domain.OrderStatuses() {
		if n := counts[status]; n > 0 {
			stats.OrdersByStatus = append(stats.OrdersByStatus, domain.StatusCount{Status: string(status), Count: n})
		}
	}
	respondJSON(ctx, fasthttp.StatusOK, stats)
}

// withOrder runs fn with the state locked. Customers only reach their own
// orders; administrators reach all of them.
func (s *Server) withOrder(ctx *fasthttp.RequestCtx, user domain.User, fn func(order *domain.Order)) {
	id, ok := pathID(ctx)
	if !ok {
		s.invalid(ctx, "order_id", "value is not a valid integer")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	order, ok := s.state.orders[id]
	if !ok {
		s.fail(ctx, fasthttp.StatusNotFound, "Pedido não encontrado")
		return
	}
	if order.UserID != user.ID && !user.IsAdmin {
		s.fail(ctx, fasthttp.StatusForbidden, "Acesso negado")
		return
	}
	fn(order)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
