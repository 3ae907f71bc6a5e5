package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

// WorkerFunc is a background loop that returns once ctx is done.
type WorkerFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

type worker struct {
	name string
	fn   WorkerFunc
}

// Manager runs background workers, coordinates graceful shutdown hooks and
// reacts to OS signals.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	hooks   []hook
	workers []worker
}

// New creates a lifecycle manager with the desired timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown hook. Hooks are executed in reverse order.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Go adds a background worker started by Run.
func (m *Manager) Go(name string, fn WorkerFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, worker{name: name, fn: fn})
}

// Run starts every worker and blocks until ctx is cancelled or one of them
// fails. The remaining workers are cancelled, then the shutdown hooks run.
// Workers returning context.Canceled count as a clean stop.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	workers := append([]worker(nil), m.workers...)
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			m.logger.Info("component started", zap.String("component", w.name))
			err := w.fn(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("component failed", zap.String("component", w.name), zap.Error(err))
				return fmt.Errorf("%s: %w", w.name, err)
			}
			return nil
		})
	}
	runErr := g.Wait()

	return errors.Join(runErr, m.Shutdown(context.Background()))
}

// Shutdown executes all registered hooks, respecting the configured timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result error
	for i := len(m.hooks) - 1; i >= 0; i-- {
		h := m.hooks[i]
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}
	return result
}

// Listen blocks until an OS termination signal is received and then invokes the provided cancel function.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
