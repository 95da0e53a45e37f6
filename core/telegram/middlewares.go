package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/salonbot/core/config"
	"github.com/m3rciful/salonbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareHooks customizes DefaultMiddlewares.
type MiddlewareHooks struct {
	OnLimited func(tele.Context) error
	Observe   middleware.ObserveFunc
}

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, hooks MiddlewareHooks) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:  interval,
					Burst:     cfg.RateLimit.Burst,
					Exclude:   ex,
					OnLimited: hooks.OnLimited,
				}),
			})
		}
	}

	if hooks.Observe != nil {
		mws = append(mws, Middleware{Name: "metrics", Use: middleware.MetricsMiddleware(hooks.Observe)})
	}
	return mws
}
