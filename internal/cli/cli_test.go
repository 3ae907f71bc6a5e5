package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
	"github.com/fastygo/storefront/internal/fakeapi"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
)

type harness struct {
	t       *testing.T
	server  *fakeapi.Server
	backend *storage.Memory
	opts    Options
}

func testConfig() *config.Config {
	return &config.Config{
		AppName: "storefront",
		API: config.APIConfig{
			BaseURL:       "http://mock",
			Timeout:       2 * time.Second,
			RetryAttempts: 1,
			RetryBackoff:  time.Millisecond,
			Endpoints:     config.DefaultEndpoints(),
		},
		Storage: config.StorageConfig{Driver: config.StorageMemory},
		Session: config.SessionConfig{
			ValidateInterval: time.Minute,
			ValidateTimeout:  time.Second,
			ExpiryBuffer:     time.Minute,
		},
		Cart: config.CartConfig{
			Expiry:     24 * time.Hour,
			StorageKey: "hashtag_pizzaria_cart",
		},
		Monitor: config.MonitorConfig{Interval: time.Minute},
		Context: config.ContextConfig{ShutdownTimeout: time.Second},
		Logger:  config.LoggerConfig{Level: "error", Encoding: "console", Output: "discard"},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.New(config.MockConfig{JWTSecret: "cli-test"}, zaptest.NewLogger(t))
	doer, stop := srv.ServeInmemory()
	t.Cleanup(func() { _ = stop() })

	backend := storage.NewMemory()
	return &harness{
		t:       t,
		server:  srv,
		backend: backend,
		opts:    Options{Config: testConfig(), Backend: backend, Doer: doer},
	}
}

// run executes one command line against a fresh App sharing the harness
// storage, the way separate invocations share the local database.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	opts := h.opts
	opts.Out, opts.Err = out, errOut
	err := Execute(context.Background(), args, opts)
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	require.NoError(h.t, err, "storefront %s\nstderr: %s", strings.Join(args, " "), errOut)
	return out
}

func (h *harness) login(user, password string) {
	h.t.Helper()
	h.mustRun("login", user, "--password", password)
}

func TestVersionDoesNotBuildApp(t *testing.T) {
	out := new(bytes.Buffer)
	root, closeApp := NewRootCommand(Options{Config: &config.Config{}})
	root.SetOut(out)
	root.SetArgs([]string{"version", "--short"})

	require.NoError(t, root.Execute())
	require.NoError(t, closeApp())
	assert.Equal(t, "dev\n", out.String())
}

func TestMenuFilters(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("menu")
	assert.Contains(t, out, "Pizza Margherita")
	assert.Contains(t, out, "R$ 45,90")
	assert.Contains(t, out, "[indisponivel]")

	out = h.mustRun("menu", "--category", "bebida")
	assert.Contains(t, out, "Coca-Cola")
	assert.NotContains(t, out, "Margherita")

	out = h.mustRun("menu", "--available", "--search", "banana")
	assert.Contains(t, out, "No items match")

	out = h.mustRun("menu", "--remote", "--search", "calabresa")
	assert.Contains(t, out, "Pizza Calabresa")

	out = h.mustRun("categories")
	assert.Contains(t, out, "pizza")
	assert.Contains(t, out, "sobremesa")
}

func TestCartPersistsBetweenRuns(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("cart", "add", "1", "--qty", "2")
	assert.Contains(t, out, "Cart: 2 item(s), R$ 91,80")
	h.mustRun("cart", "add", "4")

	out = h.mustRun("cart", "show")
	assert.Contains(t, out, "Pizza Margherita")
	assert.Contains(t, out, "Coca-Cola")
	assert.Contains(t, out, "3 item(s), R$ 103,80")

	h.mustRun("cart", "inc", "1")
	h.mustRun("cart", "dec", "4")
	out = h.mustRun("cart", "show", "--json")
	var summary domain.CartSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, []domain.OrderSummaryLine{{ItemID: 1, Quantity: 3}}, summary.Items)

	h.mustRun("cart", "set", "1", "99")
	_, _, err := h.run("cart", "inc", "1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeQuantityExceeded))
	_, _, err = h.run("cart", "add", "1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeQuantityExceeded))

	_, _, err = h.run("cart", "add", "3")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidQuantity), "unavailable items are refused")
	_, _, err = h.run("cart", "set", "1", "0")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, _, err = h.run("cart", "add", "999")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	h.mustRun("cart", "clear")
	out = h.mustRun("cart", "show")
	assert.Contains(t, out, "Your cart is empty")
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	out := new(bytes.Buffer)
	opts := h.opts
	opts.Out, opts.Err = out, new(bytes.Buffer)

	root, closeApp := NewRootCommand(opts)
	root.SetIn(strings.NewReader(fakeapi.CustomerPassword + "\n"))
	root.SetArgs([]string{"login", fakeapi.CustomerLogin})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.NoError(t, closeApp())
	assert.Contains(t, out.String(), "Signed in as Cliente Teste")

	assert.Contains(t, h.mustRun("whoami", "--offline"), "cliente")
}

func TestSessionCommands(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("whoami")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, _, err = h.run("login", fakeapi.CustomerLogin, "--password", "wrong")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	h.login(fakeapi.CustomerLogin, fakeapi.CustomerPassword)
	out := h.mustRun("whoami")
	assert.Contains(t, out, "Cliente Teste")
	assert.Contains(t, out, "(customer)")

	out = h.mustRun("profile", "--name", "Cliente Renomeado")
	assert.Contains(t, out, "Profile updated")
	assert.Contains(t, h.mustRun("whoami", "--offline"), "Cliente Renomeado")

	out = h.mustRun("logout")
	assert.Contains(t, out, "Signed out")
	_, _, err = h.run("whoami", "--offline")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestRegisterValidatesLocally(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("register", "--email", "nova@example.com", "--username", "nova", "--password", "fraca")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	out := h.mustRun("register", "--email", "nova@example.com", "--username", "nova", "--password", "Forte@123")
	assert.Contains(t, out, "Account nova created")
	h.login("nova", "Forte@123")
}

func TestCheckoutAndOrders(t *testing.T) {
	h := newHarness(t)
	h.mustRun("cart", "add", "1", "--qty", "2")

	_, _, err := h.run("checkout", "--phone", "(11) 99999-9999")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	h.login(fakeapi.CustomerLogin, fakeapi.CustomerPassword)
	_, _, err = h.run("checkout", "--phone", "11999999999")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
	_, _, err = h.run("checkout", "--phone", "(11) 99999-9999", "--delivery")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation), "delivery needs a street")

	out := h.mustRun("checkout", "--phone", "(11) 99999-9999", "--delivery",
		"--street", "Rua A, 10", "--neighborhood", "Centro", "--city", "São Paulo", "--state", "SP", "--zip", "01000-000")
	assert.Contains(t, out, "Order PED000001 placed, total R$ 96,80")
	assert.Contains(t, out, "Cliente Teste")
	assert.Contains(t, h.mustRun("cart", "show"), "Your cart is empty")

	_, _, err = h.run("checkout", "--phone", "(11) 99999-9999")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	out = h.mustRun("orders", "list")
	assert.Contains(t, out, "PED000001")
	assert.Contains(t, out, "[pendente]")

	out = h.mustRun("orders", "show", "1")
	assert.Contains(t, out, "Pizza Margherita")
	assert.Contains(t, out, "R$ 5,00")

	out = h.mustRun("orders", "cancel", "1")
	assert.Contains(t, out, "Order #1 cancelled")
	assert.Contains(t, h.mustRun("orders", "list", "--status", "cancelado"), "PED000001")

	_, _, err = h.run("orders", "list", "--status", "perdido")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)

	h.login(fakeapi.CustomerLogin, fakeapi.CustomerPassword)
	h.mustRun("cart", "add", "2")
	h.mustRun("checkout", "--phone", "(11) 98888-7777")
	_, _, err := h.run("admin", "stats")
	assert.ErrorIs(t, err, domain.ErrAdminRequired)

	h.login(fakeapi.AdminLogin, fakeapi.AdminPassword)

	out := h.mustRun("admin", "orders", "--search", "cliente")
	assert.Contains(t, out, "PED000001")
	out = h.mustRun("admin", "status", "1", "preparando")
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, h.mustRun("admin", "order", "1"), "[preparando]")
	_, _, err = h.run("admin", "status", "1", "voando")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	out = h.mustRun("admin", "stats")
	assert.Contains(t, out, "total:          1")

	out = h.mustRun("admin", "item-create", "--name", "Pizza Portuguesa", "--category", "pizza", "--size", "grande", "--price", "49.9")
	assert.Contains(t, out, "Item #7 Pizza Portuguesa created")
	_, _, err = h.run("admin", "item-create", "--name", "X", "--category", "pizza", "--price", "10")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	out = h.mustRun("admin", "item-edit", "7", "--price", "51.5")
	assert.Contains(t, out, "Pizza Portuguesa updated")
	out = h.mustRun("admin", "items", "--search", "portuguesa")
	assert.Contains(t, out, "R$ 51,50")

	out = h.mustRun("admin", "item-toggle", "7")
	assert.Contains(t, out, "is now indisponivel")

	out = h.mustRun("admin", "item-delete", "7")
	assert.Contains(t, out, "Item #7 deleted")
	_, errOut, err := h.run("admin", "item-delete", "2")
	require.NoError(t, err)
	assert.Contains(t, errOut, "was deactivated instead")
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	h := newHarness(t)
	h.login(fakeapi.CustomerLogin, fakeapi.CustomerPassword)

	h.server.ExpireAccessTokens()
	h.mustRun("orders", "list")

	h.server.RevokeSessions()
	_, errOut, err := h.run("orders", "list")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	assert.Contains(t, errOut, "Your session expired")

	_, _, err = h.run("whoami", "--offline")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestStatusAndWatch(t *testing.T) {
	h := newHarness(t)
	h.login(fakeapi.AdminLogin, fakeapi.AdminPassword)

	out := h.mustRun("status")
	assert.Contains(t, out, "[online]")
	assert.Contains(t, out, "Administrador (admin)")
	assert.Contains(t, out, "0 item(s), R$ 0,00")

	out = h.mustRun("watch", "--duration", "50ms")
	assert.Contains(t, out, "Watching session and connectivity")
}
