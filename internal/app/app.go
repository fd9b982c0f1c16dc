// Package app assembles the listing bot: store, wizards, publisher and Telegram routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/bootstrap"
	"github.com/m3rciful/zalogbot/core/logger"
	"github.com/m3rciful/zalogbot/core/metrics"
	tg "github.com/m3rciful/zalogbot/core/telegram"
	"github.com/m3rciful/zalogbot/core/telegram/router"
	"github.com/m3rciful/zalogbot/core/telegram/state"
	"github.com/m3rciful/zalogbot/core/telegram/ui"
	"github.com/m3rciful/zalogbot/internal/intake"
	"github.com/m3rciful/zalogbot/internal/publisher"
	"github.com/m3rciful/zalogbot/internal/search"
	"github.com/m3rciful/zalogbot/internal/store"
)

// App holds everything a running bot needs.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	store    store.Store
	sessions state.Manager
	search   *search.Wizard
	intake   *intake.Wizard
	pub      *publisher.Publisher
	registry *tg.Registry
	metrics  *metrics.Server

	botMu sync.RWMutex
	bot   publisher.Sender
}

// Bootstrap initializes logging, the store chain, the demo data and the wizards.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.DatabaseConfig(),
	})
	if err != nil {
		return nil, err
	}

	a, err := assemble(cfg, infra, baseStore(cfg, infra))
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	if cfg.Store.SeedDemo {
		if err := bootstrap.Seed[store.Store](ctx, a.store, DemoSeeder()); err != nil {
			_ = infra.Close()
			return nil, err
		}
	}
	logger.Info(ctx, logger.CompApp, "bootstrap",
		slog.String("store", cfg.Store.Driver),
		slog.Duration("cache_ttl", cfg.Store.CacheTTL),
		slog.Bool("seed_demo", cfg.Store.SeedDemo),
		slog.Bool("channel", cfg.Channel.Channel != ""),
		slog.Bool("metrics", cfg.Metrics.Listen != ""),
	)
	return a, nil
}

func baseStore(cfg *Config, infra *bootstrap.Result) store.Store {
	if infra != nil && infra.DB != nil {
		return store.NewPostgres(infra.DB)
	}
	return store.NewMemory()
}

// assemble wires the components around base. It performs no I/O.
func assemble(cfg *Config, infra *bootstrap.Result, base store.Store) (*App, error) {
	var st store.Store = base
	if cfg.Store.CacheTTL > 0 {
		st = store.NewCached(st, cfg.Store.CacheTTL)
	}
	st = store.Observe(st)

	sessions := state.NewMemoryManager(state.Options{TTL: cfg.Intake.SessionTTL, Size: cfg.Intake.Sessions})
	a := &App{
		cfg:      cfg,
		infra:    infra,
		store:    st,
		sessions: sessions,
		search:   search.New(st, cfg.Search),
		intake: intake.New(sessions, st, intake.Options{
			MinYear:     cfg.Intake.MinYear,
			MaxYear:     cfg.Intake.MaxYear,
			PhonePrefix: cfg.Intake.PhonePrefix,
		}),
		pub:      publisher.New(st, cfg.Channel),
		registry: tg.NewRegistry(),
	}
	if err := a.register(); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	if cfg.Metrics.Listen != "" {
		checks := map[string]metrics.Check{}
		if infra != nil && infra.DB != nil {
			checks["postgres"] = infra.DB
		}
		a.metrics = metrics.New(cfg.Metrics.Listen, checks)
	}
	return a, nil
}

var _ ui.FallbackProvider = (*App)(nil)

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	cfg := &a.cfg.Config
	return tg.RunOptions{
		Config:      cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(cfg, a.onRateLimited),
		Routes:      a.routes,
		OnStart:     a.onRunStart,
		OnStop:      a.onRunStop,
	}, nil
}

func (a *App) routes(rt tg.Runtime) []tg.Route {
	routes := router.CommandRoutes(rt.Registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.onAdminReject,
	})
	return append(routes,
		router.CallbackRoute(rt.Registry),
		router.TextRoute(a.sessions, rt.Registry, a.UnknownText()),
		a.mediaRoute(tele.OnPhoto),
		a.mediaRoute(tele.OnDocument),
	)
}

func (a *App) onRunStart(ctx context.Context, rt tg.Runtime) error {
	if rt.Bot != nil {
		a.setBot(rt.Bot)
	}
	if a.metrics != nil {
		if err := a.metrics.Start(ctx); err != nil {
			return fmt.Errorf("app: metrics listener: %w", err)
		}
	}
	return nil
}

func (a *App) onRunStop(ctx context.Context, _ tg.Runtime) error {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Shutdown(ctx)
}

func (a *App) setBot(b publisher.Sender) {
	a.botMu.Lock()
	a.bot = b
	a.botMu.Unlock()
}

func (a *App) sender() publisher.Sender {
	a.botMu.RLock()
	defer a.botMu.RUnlock()
	return a.bot
}

// Close implements cmd.TelegramApp.
func (a *App) Close() error {
	if a == nil || a.infra == nil {
		return nil
	}
	return a.infra.Close()
}
