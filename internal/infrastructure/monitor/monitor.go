// Package monitor periodically probes the backend and the local storage.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/pkg/eventbus"
)

// EventStatusChanged carries a Status whenever Online flips.
const EventStatusChanged eventbus.Event = "monitor:status"

// CheckFunc probes one dependency; a nil error means reachable.
type CheckFunc func(ctx context.Context) error

type Monitor struct {
	api     CheckFunc
	storage *storage.Store
	bus     *eventbus.Bus

	status   Status
	checked  bool
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Monitor)

// WithBus publishes EventStatusChanged on bus.
func WithBus(bus *eventbus.Bus) Option {
	return func(m *Monitor) { m.bus = bus }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(api CheckFunc, store *storage.Store, interval time.Duration, logger *zap.Logger, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		api:      api,
		storage:  store,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Start() {
	go func() { _ = m.Run(context.Background()) }()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Run probes immediately and then on every tick until ctx is done or Stop
// is called.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-m.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check runs both probes once and records the result.
func (m *Monitor) Check(ctx context.Context) Status {
	status := Status{LastCheck: m.now()}
	status.API, status.APILatency, status.APIError = m.checkAPI(ctx)
	status.Storage, status.StorageKeys = m.checkStorage(ctx)

	m.mu.Lock()
	flipped := !m.checked || m.status.Online() != status.Online()
	m.status = status
	m.checked = true
	m.mu.Unlock()

	if flipped {
		m.logger.Info("connectivity changed",
			zap.Bool("api", status.API),
			zap.Bool("storage", status.Storage))
		if m.bus != nil {
			m.bus.Emit(EventStatusChanged, status)
		}
	}
	return status
}

func (m *Monitor) checkAPI(ctx context.Context) (bool, time.Duration, string) {
	if m.api == nil {
		return false, 0, "no probe configured"
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	start := time.Now()
	if err := m.api(ctx); err != nil {
		m.logger.Debug("api probe failed", zap.Error(err))
		return false, time.Since(start), err.Error()
	}
	return true, time.Since(start), ""
}

func (m *Monitor) checkStorage(ctx context.Context) (bool, int) {
	if m.storage == nil {
		return false, 0
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.storage.Ping(ctx); err != nil {
		m.logger.Warn("storage ping failed", zap.Error(err))
		return false, 0
	}
	count, err := m.storage.Count(ctx)
	if err != nil {
		m.logger.Warn("storage key count failed", zap.Error(err))
		return false, 0
	}
	return true, count
}
