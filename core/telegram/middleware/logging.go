package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/salonbot/core/logger"
	"github.com/m3rciful/salonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/salonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers recently logged update ids so a middleware applied on
// several branches logs each update once.
type seenUpdates struct {
	mu      sync.Mutex
	keepFor time.Duration
	ids     map[int]time.Time
}

var recent = &seenUpdates{keepFor: 10 * time.Second, ids: make(map[int]time.Time)}

func (s *seenUpdates) mark(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ts := range s.ids {
		if now.Sub(ts) > s.keepFor {
			delete(s.ids, k)
		}
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = now
	return true
}

// LoggerMiddleware builds the request context for the update and logs its receipt.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(nil, c)
		upd := c.Update()

		if logger.ShouldSampleDebug() && recent.mark(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user := c.Sender(); user != nil {
				if user.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
				}
				if user.LanguageCode != "" {
					attrs = append(attrs, slog.String("lang", user.LanguageCode))
				}
			}
			switch {
			case upd.Callback != nil:
				key, payload := callbacks.Parse(upd.Callback)
				attrs = append(attrs,
					slog.String("cb_key", logger.SanitizeLimit(key, 128)),
					slog.String("payload", logger.SanitizeLimit(payload, 256)),
				)
			case upd.Message != nil:
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
