// Package cli wires the storefront services together and exposes them as
// cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/config"
	"github.com/fastygo/storefront/internal/infrastructure/apiclient"
	"github.com/fastygo/storefront/internal/infrastructure/monitor"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/internal/output"
	"github.com/fastygo/storefront/internal/services/lifecycle"
	"github.com/fastygo/storefront/pkg/eventbus"
	"github.com/fastygo/storefront/pkg/logger"
	"github.com/fastygo/storefront/repository/httpapi"
	"github.com/fastygo/storefront/usecase/admin"
	"github.com/fastygo/storefront/usecase/cart"
	"github.com/fastygo/storefront/usecase/catalog"
	"github.com/fastygo/storefront/usecase/checkout"
	"github.com/fastygo/storefront/usecase/profile"
	"github.com/fastygo/storefront/usecase/session"
)

// Options override parts of the composition, mostly for tests.
type Options struct {
	// Config is loaded from the environment when nil.
	Config *config.Config
	// Backend replaces the configured local storage backend.
	Backend storage.Backend
	// Doer replaces the fasthttp client used by the transport.
	Doer apiclient.Doer

	Out   io.Writer
	Err   io.Writer
	Quiet bool
}

// App holds every service a command may need.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Bus       *eventbus.Bus
	Storage   *storage.Store
	Transport *apiclient.Transport
	Client    *apiclient.Client
	Session   *session.Store
	Validator *session.Validator
	Catalog   *catalog.Catalog
	Cart      *cart.Store
	Checkout  *checkout.UseCase
	Admin     *admin.UseCase
	Profile   *profile.UseCase
	Monitor   *monitor.Monitor
	Lifecycle *lifecycle.Manager
	Printer   *output.Printer
	Notifier  *output.Notifier
}

// NewApp builds the service graph. Session and cart state are restored
// from storage and expired entries are purged before it returns.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, &output.CLIError{Summary: "Invalid configuration", Detail: err.Error(), ExitCode: output.ExitConfigErr}
		}
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	backend := opts.Backend
	if backend == nil {
		if backend, err = storage.OpenBackend(ctx, cfg, log); err != nil {
			return nil, &output.CLIError{
				Summary:    "Local storage unavailable",
				Detail:     err.Error(),
				Suggestion: "check STORAGE_DRIVER and BOLTDB_PATH",
				ExitCode:   output.ExitConfigErr,
			}
		}
	}

	app := &App{
		Config:    cfg,
		Logger:    log,
		Bus:       eventbus.New(log),
		Storage:   storage.New(backend, log, storage.WithSessionArea(storage.NewMemory())),
		Lifecycle: lifecycle.New(cfg.Context.ShutdownTimeout, log),
		Printer: output.NewPrinter(output.PrinterOptions{
			Out:    opts.Out,
			Err:    opts.Err,
			Colors: output.ResolveColors(cfg.Output.Colors),
			Quiet:  opts.Quiet,
		}),
	}

	if purged, err := app.Storage.PurgeExpired(ctx); err != nil {
		log.Warn("expired entry cleanup failed", zap.Error(err))
	} else if purged > 0 {
		log.Debug("expired entries removed", zap.Int("count", purged))
	}

	var transportOpts []apiclient.TransportOption
	if opts.Doer != nil {
		transportOpts = append(transportOpts, apiclient.WithDoer(opts.Doer))
	}
	app.Transport = apiclient.NewTransport(cfg.API, log, transportOpts...)
	endpoints := cfg.API.Endpoints

	app.Session = session.New(app.Storage, apiclient.NewAuthAPI(app.Transport, endpoints), app.Bus, log,
		session.Config{ExpiryBuffer: cfg.Session.ExpiryBuffer})
	app.Session.Restore(ctx)
	app.Validator = session.NewValidator(app.Session, log, session.ValidatorConfig{
		Interval: cfg.Session.ValidateInterval,
		Timeout:  cfg.Session.ValidateTimeout,
	})

	app.Client = apiclient.New(app.Transport, app.Session, log,
		apiclient.WithRetryPolicy(apiclient.DefaultRetryPolicy(cfg.API.RetryAttempts, cfg.API.RetryBackoff)),
		apiclient.WithAuthRetryPolicy(apiclient.DefaultAuthRetryPolicy(endpoints)))

	items := httpapi.NewItemRepository(app.Client, endpoints)
	orders := httpapi.NewOrderRepository(app.Client, endpoints)
	users := httpapi.NewUserRepository(app.Client, endpoints)

	app.Catalog = catalog.New(items, app.Bus, log)
	app.Cart = cart.New(app.Storage, app.Bus, log, cart.Config{
		StorageKey: cfg.Cart.StorageKey,
		Expiry:     cfg.Cart.Expiry,
	})
	app.Cart.Restore(ctx)
	app.Checkout = checkout.New(orders, app.Cart, app.Session, app.Bus, log)
	app.Admin = admin.New(orders, items, app.Session, log)
	app.Profile = profile.New(users, apiclient.NewAuthAPI(app.Transport, endpoints), app.Session, log)

	app.Monitor = monitor.New(func(ctx context.Context) error {
		return app.Transport.Ping(ctx, endpoints.Health)
	}, app.Storage, cfg.Monitor.Interval, log, monitor.WithBus(app.Bus))

	app.Notifier = output.NewNotifier(app.Bus, app.Printer)
	return app, nil
}

// Close releases storage and flushes the logger.
func (a *App) Close() error {
	a.Notifier.Close()
	err := a.Storage.Close()
	_ = a.Logger.Sync()
	return err
}
