package middleware

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// ObserveFunc receives one call per handled update.
type ObserveFunc func(kind string, took time.Duration, err error)

// MetricsMiddleware reports update kind, handling time and result to observe.
func MetricsMiddleware(observe ObserveFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if observe == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			observe(UpdateKind(c.Update()), time.Since(start), err)
			return err
		}
	}
}
