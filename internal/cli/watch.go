package cli

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/fakeapi"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/internal/output"
)

func newWatchCmd(s *rootState) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the session and the connection until interrupted",
		Long: `Keep running in the foreground: follow sign-ins and sign-outs made by
other clients sharing the storage, re-validate the session on a schedule and
report connectivity changes. Stops on Ctrl+C or after --duration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			m := app.Lifecycle
			m.Listen(cancel)
			m.Go("session-sync", func(ctx context.Context) error {
				err := app.Session.Sync(ctx)
				if errors.Is(err, storage.ErrWatchUnsupported) {
					app.Printer.Warning("The %s storage driver cannot follow other clients; cross-client sync is off",
						app.Config.Storage.Driver)
					<-ctx.Done()
					return nil
				}
				return err
			})
			m.Go("session-validator", func(ctx context.Context) error {
				if err := app.Session.Validate(ctx); err != nil {
					app.Logger.Debug("initial session validation failed", zap.Error(err))
				}
				app.Validator.Start()
				<-ctx.Done()
				return nil
			})
			m.Register("session-validator", func(ctx context.Context) error {
				app.Validator.Stop(ctx)
				return nil
			})
			m.Go("monitor", app.Monitor.Run)

			app.Printer.Info("Watching session and connectivity. Press Ctrl+C to stop.")
			return m.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func newStatusCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server, local storage, session and cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			p := app.Printer
			status := app.Monitor.Check(cmd.Context())

			api := p.StatusBadge("online") + " " + status.APILatency.Round(time.Millisecond).String()
			if !status.API {
				api = p.StatusBadge("offline") + " " + status.APIError
			}
			store := p.StatusBadge("online") + " " + strconv.Itoa(status.StorageKeys) + " key(s)"
			if !status.Storage {
				store = p.StatusBadge("offline")
			}
			who := "anonymous"
			if user := app.Session.User(); app.Session.IsAuthenticated() {
				who = user.DisplayName()
				if user.IsAdmin {
					who += " (admin)"
				}
			}
			snap := app.Cart.Snapshot()

			table := p.NewTable("check", "state")
			table.AddRow("api "+app.Config.API.BaseURL, api)
			table.AddRow("storage "+app.Config.Storage.Driver, store)
			table.AddRow("session", who)
			table.AddRow("cart", strconv.Itoa(snap.ItemCount)+" item(s), "+output.Money(snap.Total))
			return table.Render()
		},
	}
}

func newMockServerCmd(s *rootState) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-process pizzeria API for local testing",
		Long: `Serve a self-contained pizzeria API with a seeded menu and two accounts:
admin / Admin@123 and cliente / Cliente@123. State lives in memory only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			if addr == "" {
				addr = app.Config.Mock.Addr
			}
			srv := fakeapi.New(app.Config.Mock, app.Logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			m := app.Lifecycle
			m.Listen(cancel)
			m.Go("mock-api", func(ctx context.Context) error {
				errCh := make(chan error, 1)
				go func() { errCh <- srv.ListenAndServe(addr) }()
				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
					return nil
				}
			})
			m.Register("mock-api", srv.Shutdown)

			app.Printer.Success("Mock API listening on http://%s", addr)
			return m.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to MOCK_ADDR)")
	return cmd
}
