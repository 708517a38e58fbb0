// Package app wires the dashboard core with fx. The daemon and the TUI share
// this graph; they differ only in Params.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/config"
	"github.com/matheus3301/wuzdash/internal/creds"
	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/lock"
	"github.com/matheus3301/wuzdash/internal/logging"
	"github.com/matheus3301/wuzdash/internal/metrics"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/outbox"
	"github.com/matheus3301/wuzdash/internal/poll"
	"github.com/matheus3301/wuzdash/internal/profile"
	"github.com/matheus3301/wuzdash/internal/status"
	"github.com/matheus3301/wuzdash/internal/store"
	intsync "github.com/matheus3301/wuzdash/internal/sync"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile  string
	Binary   string
	Settings config.Settings
	// Console tees logs to stderr.
	Console bool
	Debug   bool
	// ServeMetrics opens the /metrics and /healthz listener.
	ServeMetrics bool
	// Notifier receives user-facing notices in addition to the bus.
	Notifier notify.Notifier
}

// New builds the application. extra options can populate or decorate
// components, as the TUI does to reach the controller.
func New(p Params, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		Module(p),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
	}
	return fx.New(append(opts, extra...)...)
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("wuzdash",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideVault,
			provideClient,
			provideSyncEngine,
			provideCadence,
			provideSender,
			provideNotifier,
			provideController,
			provideMetricsServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if p.Debug {
		level = zapcore.DebugLevel
	}
	return logging.New(profile.LogPath(p.Profile, p.Binary), p.Profile, logging.Options{
		Console: p.Console,
		Level:   level,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile), p.Binary)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so a second poller fails before touching
// the database.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideVault(p Params, db *store.DB) *creds.Vault {
	return creds.NewVault(db, p.Settings.SessionTTLHours)
}

func provideClient(p Params, vault *creds.Vault, logger *zap.Logger) *gateway.Client {
	return gateway.New(p.Settings.BaseURL, p.Settings.RequestTimeout.Duration, vault, logger.Named("gateway"))
}

func provideSyncEngine(db *store.DB, b *bus.Bus, vault *creds.Vault, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, vault, logger)
}

func provideCadence(p Params) *poll.Cadence {
	return poll.NewCadence(p.Settings.FastInterval.Duration, p.Settings.SteadyInterval.Duration)
}

func provideSender(db *store.DB, client *gateway.Client, vault *creds.Vault, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, vault, outbox.ClientRoute(client), b, logger)
}

func provideNotifier(p Params, b *bus.Bus) notify.Notifier {
	n := notify.Multi{notify.NewBus(b)}
	if p.Notifier != nil {
		n = append(n, p.Notifier)
	}
	return n
}

func provideController(
	client *gateway.Client,
	vault *creds.Vault,
	engine *intsync.Engine,
	machine *status.Machine,
	cadence *poll.Cadence,
	sender *outbox.Sender,
	notifier notify.Notifier,
	b *bus.Bus,
	logger *zap.Logger,
) *dashboard.Controller {
	return dashboard.New(dashboard.Deps{
		Client:    client,
		Vault:     vault,
		Engine:    engine,
		Machine:   machine,
		Cadence:   cadence,
		Scheduler: poll.RealScheduler{},
		Outbox:    sender,
		Notifier:  notifier,
		Bus:       b,
		Logger:    logger,
	})
}

// provideMetricsServer returns nil when the listener is disabled.
func provideMetricsServer(p Params, ctrl *dashboard.Controller, logger *zap.Logger) (*metrics.Server, error) {
	if !p.ServeMetrics || p.Settings.MetricsAddr == "" {
		return nil, nil
	}
	return metrics.NewServer(p.Settings.MetricsAddr, ctrl.Health, logger.Named("metrics"))
}

func registerLifecycle(lc fx.Lifecycle, ctrl *dashboard.Controller, srv *metrics.Server, sender *outbox.Sender, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := ctrl.Bootstrap(runCtx); err != nil {
				return err
			}
			ctrl.Watch(runCtx)
			sender.Start(runCtx)

			if srv != nil {
				go func() {
					if err := srv.Start(); err != nil {
						logger.Error("metrics server error", zap.Error(err))
					}
				}()
				logger.Info("metrics listening", zap.String("addr", srv.Addr()))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			ctrl.Close()
			sender.Stop()
			if srv != nil {
				srv.Stop(ctx)
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("stopped")
			return nil
		},
	})
}
