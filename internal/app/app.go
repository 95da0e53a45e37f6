// Package app wires configuration, storage and the Telegram runtime of the bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/salonbot/core/bootstrap"
	coreconfig "github.com/m3rciful/salonbot/core/config"
	coretelegram "github.com/m3rciful/salonbot/core/telegram"
	"github.com/m3rciful/salonbot/internal/assets"
	"github.com/m3rciful/salonbot/internal/auth"
	"github.com/m3rciful/salonbot/internal/bot"
	"github.com/m3rciful/salonbot/internal/health"
	"github.com/m3rciful/salonbot/internal/metrics"
	"github.com/m3rciful/salonbot/internal/reviews"
	"github.com/m3rciful/salonbot/internal/session"
	"github.com/m3rciful/salonbot/internal/tgbot"
)

// App holds the wired bot.
type App struct {
	cfg *Config

	Assets   *assets.Store
	Reviews  *reviews.Store
	Sessions session.Store
	Router   *bot.Router

	transport *tgbot.Transport
	adapter   *tgbot.Adapter
	registry  *prometheus.Registry
	health    *health.Server
	infra     *bootstrap.Result
}

// BootstrapOptions overrides parts of Bootstrap for tests.
type BootstrapOptions struct {
	LoggerInit func(*coreconfig.Config) error
}

// Bootstrap opens storage and sessions and builds the router.
func Bootstrap(ctx context.Context, cfg *Config, opts BootstrapOptions) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{cfg: cfg}

	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		LoggerInit: opts.LoggerInit,
		Steps: []bootstrap.Step{
			{Name: "assets", Open: a.openAssets},
			{Name: "reviews", Open: a.openReviews},
			{Name: "sessions", Open: a.openSessions},
		},
	})
	if err != nil {
		return nil, err
	}
	a.infra = infra

	router, err := bot.New(bot.Deps{
		Assets:   a.Assets,
		Reviews:  a.Reviews,
		Sessions: a.Sessions,
		Auth:     auth.NewGate(cfg.Salon.MasterPassword),
		Contact:  cfg.Salon.MasterContact,
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	a.Router = router
	a.transport = tgbot.NewTransport(cfg.Telegram.Token)
	a.adapter = tgbot.NewAdapter(router, a.transport)

	a.registry = metrics.InitRegistry()
	if cfg.Health.Listen != "" {
		a.health, err = health.New(health.Options{
			Listen:      cfg.Health.Listen,
			Environment: cfg.Health.Environment,
			RunMode:     cfg.Telegram.RunMode,
			Dirs:        []string{a.Assets.Dir(), filepath.Dir(a.Reviews.Path()), a.Reviews.BackupDir()},
			Reviews:     a.Reviews,
			Assets:      a.Assets,
			Metrics:     metrics.Handler(a.registry),
		})
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) openAssets(context.Context) (func() error, error) {
	s, err := assets.New(a.cfg.Storage.AssetsDir)
	if err != nil {
		return nil, err
	}
	a.Assets = s
	return nil, nil
}

func (a *App) openReviews(context.Context) (func() error, error) {
	s, err := reviews.Open(a.cfg.Storage.ReviewsFile, a.cfg.Storage.BackupDir)
	if err != nil {
		return nil, err
	}
	a.Reviews = s
	return nil, nil
}

func (a *App) openSessions(ctx context.Context) (func() error, error) {
	opts := []session.Option{session.WithPendingTTL(a.cfg.Session.PendingTTL)}
	if a.cfg.Session.KeyPrefix != "" {
		opts = append(opts, session.WithKeyPrefix(a.cfg.Session.KeyPrefix))
	}

	if a.cfg.Session.Backend != SessionRedis {
		a.Sessions = session.NewMemoryStore(opts...)
		return nil, nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Session.Redis.Addr,
		Password: a.cfg.Session.Redis.Password,
		DB:       a.cfg.Session.Redis.DB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", a.cfg.Session.Redis.Addr, err)
	}
	a.Sessions = session.NewRedisStore(rc, opts...)
	return rc.Close, nil
}

// CoreConfig returns the core part of the configuration.
func (a *App) CoreConfig() *coreconfig.Config { return &a.cfg.Config }

// TelegramRunOptions builds the runtime options: middlewares, routes and the
// hook that binds the transport once the bot exists.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.adapter == nil {
		return coretelegram.RunOptions{}, errors.New("app: not bootstrapped")
	}
	return coretelegram.RunOptions{
		Config: &a.cfg.Config,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, coretelegram.MiddlewareHooks{
			OnLimited: a.adapter.OnLimited,
			Observe:   metrics.ObserveUpdate,
		}),
		Routes:  a.adapter.Routes(),
		OnStart: a.adapter.OnStart,
	}, nil
}

// Services returns the servers running beside the bot.
func (a *App) Services() []func(ctx context.Context) error {
	if a.health == nil {
		return nil
	}
	return []func(ctx context.Context) error{a.health.Run}
}

// Close releases sessions and other opened infrastructure.
func (a *App) Close() error {
	return a.infra.Close()
}
