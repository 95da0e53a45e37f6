package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/salonbot/core/logger"
	tghelpers "github.com/m3rciful/salonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"
)

// RateLimitOptions configures the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// UpdateKind classifies an update for exclusions and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

type userLimiters struct {
	mu    sync.Mutex
	every rate.Limit
	burst int
	set   map[int64]*rate.Limiter
}

func (u *userLimiters) get(id int64) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.set[id]
	if !ok {
		l = rate.NewLimiter(u.every, u.burst)
		u.set[id] = l
	}
	return l
}

// RateLimitMiddleware drops updates from a user that arrive faster than one per
// Interval once Burst is spent.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	limiters := &userLimiters{
		every: rate.Every(opts.Interval),
		burst: opts.Burst,
		set:   make(map[int64]*rate.Limiter),
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if limiters.get(user.ID).Allow() {
				return next(c)
			}

			ctx := tghelpers.BuildContext(nil, c)
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("outcome", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
