package fakeapi

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
)

func (s *Server) menu(ctx *fasthttp.RequestCtx) {
	s.respondItems(ctx, "", 100)
}

func (s *Server) listItems(ctx *fasthttp.RequestCtx, _ domain.User) {
	s.respondItems(ctx, "", 100)
}

func (s *Server) search(ctx *fasthttp.RequestCtx) {
	q := strings.TrimSpace(string(ctx.QueryArgs().Peek("q")))
	if q == "" {
		s.invalid(ctx, "q", "field required")
		return
	}
	s.respondItems(ctx, q, 20)
}

func (s *Server) respondItems(ctx *fasthttp.RequestCtx, query string, defaultLimit int) {
	category := string(ctx.QueryArgs().Peek("category"))
	if category != "" && !domain.IsValidCategory(category) {
		s.invalid(ctx, "category", "invalid category")
		return
	}
	availableOnly := queryBool(ctx, "available_only", true)
	needle := strings.ToLower(query)

	s.state.mu.Lock()
	all := s.state.sortedItems()
	s.state.mu.Unlock()

	items := make([]domain.MenuItem, 0, len(all))
	for _, item := range all {
		if category != "" && item.Category != category {
			continue
		}
		if availableOnly && !item.IsAvailable {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			continue
		}
		items = append(items, item)
	}
	respondJSON(ctx, fasthttp.StatusOK, window(items, queryInt(ctx, "skip", 0), queryInt(ctx, "limit", defaultLimit)))
}

func (s *Server) categories(ctx *fasthttp.RequestCtx) {
	names := domain.Categories()
	out := make([]transport.CategoryOption, 0, len(names))
	for _, name := range names {
		out = append(out, transport.CategoryOption{Value: name, Label: strings.ToUpper(name[:1]) + name[1:]})
	}
	respondJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) getItem(ctx *fasthttp.RequestCtx, _ domain.User) {
	s.withItem(ctx, func(item *domain.MenuItem) {
		respondJSON(ctx, fasthttp.StatusOK, item)
	})
}

func (s *Server) createItem(ctx *fasthttp.RequestCtx, _ domain.User) {
	var in domain.ItemInput
	if err := decodeBody(ctx, &in); err != nil {
		s.respondError(ctx, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.invalid(ctx, "item", err.Error())
		return
	}
	s.state.mu.Lock()
	item := s.state.addItem(in)
	s.state.mu.Unlock()
	respondJSON(ctx, fasthttp.StatusCreated, item)
}

func (s *Server) editItem(ctx *fasthttp.RequestCtx, _ domain.User) {
	var in domain.ItemInput
	if err := decodeBody(ctx, &in); err != nil {
		s.respondError(ctx, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.invalid(ctx, "item", err.Error())
		return
	}
	s.withItem(ctx, func(item *domain.MenuItem) {
		*item = applyInput(*item, in)
		item.UpdatedAt = domain.Timestamp{Time: s.now()}
		respondJSON(ctx, fasthttp.StatusOK, item)
	})
}

func (s *Server) toggleItem(ctx *fasthttp.RequestCtx, _ domain.User) {
	s.withItem(ctx, func(item *domain.MenuItem) {
		item.IsAvailable = !item.IsAvailable
		item.UpdatedAt = domain.Timestamp{Time: s.now()}
		respondJSON(ctx, fasthttp.StatusOK, item)
	})
}

func (s *Server) deleteItem(ctx *fasthttp.RequestCtx, _ domain.User) {
	s.withItem(ctx, func(item *domain.MenuItem) {
		if s.state.itemInOrders(item.ID) {
			item.IsAvailable = false
			respondJSON(ctx, fasthttp.StatusOK, transport.DeleteItemResponse{
				Message: fmt.Sprintf("Item '%s' foi desativado pois está sendo usado em pedidos", item.Name),
				Action:  "deactivated",
			})
			return
		}
		delete(s.state.items, item.ID)
		respondJSON(ctx, fasthttp.StatusOK, transport.DeleteItemResponse{
			Message: fmt.Sprintf("Item '%s' deletado com sucesso", item.Name),
			Action:  "deleted",
		})
	})
}

// withItem runs fn with the state locked and the addressed item resolved.
func (s *Server) withItem(ctx *fasthttp.RequestCtx, fn func(item *domain.MenuItem)) {
	id, ok := pathID(ctx)
	if !ok {
		s.invalid(ctx, "id", "value is not a valid integer")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	item, ok := s.state.items[id]
	if !ok {
		s.fail(ctx, fasthttp.StatusNotFound, fmt.Sprintf("Item com ID %d não encontrado", id))
		return
	}
	fn(item)
}
