package fakeapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
)

type harness struct {
	t      *testing.T
	server *Server
	client *fasthttp.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := New(config.MockConfig{JWTSecret: "test"}, nil)
	client, stop := srv.ServeInmemory()
	t.Cleanup(func() { _ = stop() })
	return &harness{t: t, server: srv, client: client}
}

func (h *harness) call(method, path, token string, body any, out any) int {
	h.t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://mock" + path)
	req.Header.SetMethod(method)
	if token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		req.SetBodyRaw(raw)
	}
	require.NoError(h.t, h.client.DoTimeout(req, resp, time.Second))
	if out != nil && len(resp.Body()) > 0 {
		require.NoError(h.t, json.Unmarshal(resp.Body(), out))
	}
	return resp.StatusCode()
}

func (h *harness) login(login, password string) transport.TokenResponse {
	h.t.Helper()
	var tokens transport.TokenResponse
	status := h.call(fasthttp.MethodPost, "/auth/login", "", transport.LoginRequest{EmailOrUsername: login, Password: password}, &tokens)
	require.Equal(h.t, fasthttp.StatusOK, status)
	return tokens
}

func TestLoginIssuesTokenPair(t *testing.T) {
	h := newHarness(t)
	tokens := h.login(AdminLogin, AdminPassword)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	require.NotNil(t, tokens.User)
	assert.True(t, tokens.User.IsAdmin)

	var errBody transport.ErrorResponse
	status := h.call(fasthttp.MethodPost, "/auth/login", "", transport.LoginRequest{EmailOrUsername: AdminLogin, Password: "nope"}, &errBody)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
	assert.Contains(t, string(errBody.Detail), "incorretos")
}

func TestRefreshOmitsUserAndKeepsRefreshToken(t *testing.T) {
	h := newHarness(t)
	tokens := h.login(CustomerLogin, CustomerPassword)

	var refreshed transport.TokenResponse
	status := h.call(fasthttp.MethodPost, "/auth/refresh", "", transport.RefreshRequest{RefreshToken: tokens.RefreshToken}, &refreshed)
	require.Equal(t, fasthttp.StatusOK, status)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)
	assert.Nil(t, refreshed.User)

	status = h.call(fasthttp.MethodPost, "/auth/refresh", "", transport.RefreshRequest{RefreshToken: tokens.AccessToken}, nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, status, "access tokens are not refresh tokens")
}

func TestExpireAccessTokens(t *testing.T) {
	h := newHarness(t)
	tokens := h.login(CustomerLogin, CustomerPassword)
	require.Equal(t, fasthttp.StatusOK, h.call(fasthttp.MethodGet, "/users/me", tokens.AccessToken, nil, nil))

	h.server.ExpireAccessTokens()

	assert.Equal(t, fasthttp.StatusUnauthorized, h.call(fasthttp.MethodGet, "/users/me", tokens.AccessToken, nil, nil))
	assert.Equal(t, fasthttp.StatusOK, h.call(fasthttp.MethodPost, "/auth/refresh", "", transport.RefreshRequest{RefreshToken: tokens.RefreshToken}, nil))

	h.server.RevokeSessions()
	assert.Equal(t, fasthttp.StatusUnauthorized, h.call(fasthttp.MethodPost, "/auth/refresh", "", transport.RefreshRequest{RefreshToken: tokens.RefreshToken}, nil))
}

func TestMenuHidesUnavailableItems(t *testing.T) {
	h := newHarness(t)
	var items []domain.MenuItem
	require.Equal(t, fasthttp.StatusOK, h.call(fasthttp.MethodGet, "/items/menu", "", nil, &items))
	for _, item := range items {
		assert.True(t, item.IsAvailable, item.Name)
	}

	var pizzas []domain.MenuItem
	h.call(fasthttp.MethodGet, "/items/menu?category=pizza", "", nil, &pizzas)
	assert.Len(t, pizzas, 2)

	var all []domain.MenuItem
	admin := h.login(AdminLogin, AdminPassword)
	h.call(fasthttp.MethodGet, "/items/list-items?available_only=false", admin.AccessToken, nil, &all)
	assert.Len(t, all, len(items)+1)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	h := newHarness(t)
	customer := h.login(CustomerLogin, CustomerPassword)

	assert.Equal(t, fasthttp.StatusForbidden, h.call(fasthttp.MethodGet, "/orders/admin/stats", customer.AccessToken, nil, nil))
	assert.Equal(t, fasthttp.StatusUnauthorized, h.call(fasthttp.MethodGet, "/orders/admin/stats", "", nil, nil))
}

func TestOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	customer := h.login(CustomerLogin, CustomerPassword)
	admin := h.login(AdminLogin, AdminPassword)

	var order domain.Order
	status := h.call(fasthttp.MethodPost, "/orders/create-order", customer.AccessToken, domain.OrderCreate{
		OrderDetails: domain.OrderDetails{CustomerPhone: "(11) 98765-4321", PaymentMethod: domain.PaymentPix},
		Items:        []domain.OrderLine{{ItemID: 1, Quantity: 2}, {ItemID: 4, Quantity: 1}},
	}, &order)
	require.Equal(t, fasthttp.StatusCreated, status)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.InDelta(t, 103.80, order.TotalAmount, 0.001)
	assert.Equal(t, "PED000001", order.OrderNumber)

	var mine []domain.OrderSummary
	h.call(fasthttp.MethodGet, "/orders/my-orders", customer.AccessToken, nil, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, 3, mine[0].ItemsCount)

	var msg transport.MessageResponse
	status = h.call(fasthttp.MethodPatch, "/orders/1/status?new_status=entregue", admin.AccessToken, nil, &msg)
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, msg.Message, "entregue")

	assert.Equal(t, fasthttp.StatusBadRequest, h.call(fasthttp.MethodDelete, "/orders/1/cancel", customer.AccessToken, nil, nil))

	var stats domain.OrderStats
	h.call(fasthttp.MethodGet, "/orders/admin/stats", admin.AccessToken, nil, &stats)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.InDelta(t, 103.80, stats.TotalRevenue, 0.001)
}

func TestDeleteItemDeactivatesWhenOrdered(t *testing.T) {
	h := newHarness(t)
	customer := h.login(CustomerLogin, CustomerPassword)
	admin := h.login(AdminLogin, AdminPassword)

	h.call(fasthttp.MethodPost, "/orders/create-order", customer.AccessToken, domain.OrderCreate{
		OrderDetails: domain.OrderDetails{CustomerPhone: "(11) 98765-4321", PaymentMethod: domain.PaymentCash},
		Items:        []domain.OrderLine{{ItemID: 2, Quantity: 1}},
	}, nil)

	var res transport.DeleteItemResponse
	require.Equal(t, fasthttp.StatusOK, h.call(fasthttp.MethodDelete, "/items/delete-item/2", admin.AccessToken, nil, &res))
	assert.Equal(t, "deactivated", res.Action)

	require.Equal(t, fasthttp.StatusOK, h.call(fasthttp.MethodDelete, "/items/delete-item/5", admin.AccessToken, nil, &res))
	assert.Equal(t, "deleted", res.Action)
	assert.Equal(t, fasthttp.StatusNotFound, h.call(fasthttp.MethodGet, "/items/get-item/5", admin.AccessToken, nil, nil))
}

func TestRegisterValidatesPassword(t *testing.T) {
	h := newHarness(t)
	reg := domain.Registration{Email: "novo@example.com", Username: "novo", Password: "fraca", ConfirmPassword: "fraca"}
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, h.call(fasthttp.MethodPost, "/auth/register", "", reg, nil))

	reg.Password, reg.ConfirmPassword = "Forte@123", "Forte@123"
	var user domain.User
	require.Equal(t, fasthttp.StatusCreated, h.call(fasthttp.MethodPost, "/auth/register", "", reg, &user))
	assert.Equal(t, "novo", user.Username)
	assert.Equal(t, fasthttp.StatusBadRequest, h.call(fasthttp.MethodPost, "/auth/register", "", reg, nil))
}

func TestPasswordsAreStoredHashed(t *testing.T) {
	h := newHarness(t)
	reg := domain.Registration{Email: "novo@example.com", Username: "novo", Password: "Forte@123", ConfirmPassword: "Forte@123"}
	require.Equal(t, fasthttp.StatusCreated, h.call(fasthttp.MethodPost, "/auth/register", "", reg, nil))

	for login, password := range map[string]string{CustomerLogin: CustomerPassword, "novo": "Forte@123"} {
		h.server.state.mu.Lock()
		acc := h.server.state.findLogin(login)
		h.server.state.mu.Unlock()
		require.NotNil(t, acc, login)
		assert.NotContains(t, string(acc.passwordHash), password)
		assert.NoError(t, bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)))
	}

	h.login("novo", "Forte@123")
	assert.Equal(t, fasthttp.StatusUnauthorized,
		h.call(fasthttp.MethodPost, "/auth/login", "", transport.LoginRequest{EmailOrUsername: "novo", Password: "forte@123"}, nil))
}

func TestRequestIDEchoed(t *testing.T) {
	h := newHarness(t)
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://mock/")
	req.Header.Set("X-Request-ID", "abc-123")

	require.NoError(t, h.client.DoTimeout(req, resp, time.Second))
	assert.Equal(t, "abc-123", string(resp.Header.Peek("X-Request-ID")))
}
