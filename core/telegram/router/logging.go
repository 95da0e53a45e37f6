package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/salonbot/core/logger"
	tghelpers "github.com/m3rciful/salonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Summary describes a finished handler run.
type Summary struct {
	Outcome string
	Extras  []slog.Attr
}

// Handled runs fn under handler name and logs one handler.handled line with
// duration, outcome and error code.
func Handled(c tele.Context, name string, fn func() (Summary, error)) error {
	start := time.Now()
	name = NormalizeHandlerName(name)
	ctx := tghelpers.WithHandler(c, name)

	sum, err := fn()
	outcome := sum.Outcome
	if outcome == "" {
		outcome = "ok"
		if err != nil {
			outcome = "fail"
		}
	}
	status := "ok"
	if err != nil {
		status = "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Duration("duration", logger.Took(start)),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", ErrorCode(err)),
			slog.String("cause", name),
		)
	}
	attrs = append(attrs, sum.Extras...)
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
	return err
}

// NormalizeHandlerName lowercases name and replaces spaces for log keys.
func NormalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// ErrorCode returns the Code() of the first error in the chain that has one,
// otherwise the upper-cased type name.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var c interface{ Code() string }
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
