// Package fakeapi is an in-memory implementation of the pizzeria backend.
// It backs the `mock-server` command and the integration tests.
package fakeapi

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/config"
)

// Server serves the backend routes from memory.
type Server struct {
	state      *state
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
	srv        *fasthttp.Server

	accessGen  atomic.Int64
	refreshGen atomic.Int64
}

type Option func(*Server)

// WithClock replaces time.Now for timestamps and token lifetimes.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(cfg config.MockConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "storefront-dev-secret"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	s := &Server{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.TokenTTL,
		refreshTTL: 7 * 24 * time.Hour,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = newState(s.now)
	s.srv = &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "storefront-mock",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed request handler.
func (s *Server) Handler() fasthttp.RequestHandler {
	r := router.New()

	r.GET("/", s.health)

	r.POST("/auth/login", s.login)
	r.POST("/auth/refresh", s.refresh)
	r.POST("/auth/register", s.register)

	r.GET("/users/me", s.authenticated(s.me))
	r.PUT("/users/me", s.authenticated(s.updateMe))

	r.GET("/items/menu", s.menu)
	r.GET("/items/categories", s.categories)
	r.GET("/items/search", s.search)
	r.GET("/items/list-items", s.admin(s.listItems))
	r.GET("/items/get-item/{id}", s.authenticated(s.getItem))
	r.POST("/items/create-item", s.admin(s.createItem))
	r.PUT("/items/edit-item/{id}", s.admin(s.editItem))
	r.PUT("/items/toggle-availability/{id}", s.admin(s.toggleItem))
	r.DELETE("/items/delete-item/{id}", s.admin(s.deleteItem))

	r.POST("/orders/create-order", s.authenticated(s.createOrder))
	r.GET("/orders/my-orders", s.authenticated(s.myOrders))
	r.GET("/orders/admin/all-orders", s.admin(s.allOrders))
	r.GET("/orders/admin/stats", s.admin(s.orderStats))
	r.GET("/orders/{id}", s.authenticated(s.getOrder))
	r.PATCH("/orders/{id}/status", s.admin(s.updateOrderStatus))
	r.DELETE("/orders/{id}/cancel", s.authenticated(s.cancelOrder))

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		s.fail(ctx, fasthttp.StatusNotFound, "Not Found")
	}

	return s.requestID(r.Handler)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("mock backend listening", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// ServeInmemory serves on an in-memory listener and returns a client wired
// to it together with a function that stops serving.
func (s *Server) ServeInmemory() (*fasthttp.Client, func() error) {
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		if err := s.srv.Serve(ln); err != nil {
			s.logger.Debug("in-memory listener closed", zap.Error(err))
		}
	}()
	client := &fasthttp.Client{
		Dial:                      func(string) (net.Conn, error) { return ln.Dial() },
		MaxIdemponentCallAttempts: 1,
	}
	return client, ln.Close
}

// ExpireAccessTokens invalidates every access token issued so far while
// leaving refresh tokens usable.
func (s *Server) ExpireAccessTokens() {
	s.accessGen.Add(1)
}

// RevokeSessions invalidates every token issued so far.
func (s *Server) RevokeSessions() {
	s.accessGen.Add(1)
	s.refreshGen.Add(1)
}
