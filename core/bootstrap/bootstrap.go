package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/salonbot/core/config"
	"github.com/m3rciful/salonbot/core/logger"
)

// Step opens one piece of infrastructure. The returned cleanup may be nil.
type Step struct {
	Name string
	Open func(ctx context.Context) (cleanup func() error, err error)
}

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config
	Steps  []Step

	LoggerInit func(*coreconfig.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	cleanups []func() error
}

// Close releases everything opened by Run in reverse order.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		errs = append(errs, r.cleanups[i]())
	}
	r.cleanups = nil
	return errors.Join(errs...)
}

// Run initializes the logger, then opens each step in order. When a step
// fails, the ones already opened are closed again.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	for _, step := range opts.Steps {
		start := time.Now()
		cleanup, err := step.Open(ctx)
		if err != nil {
			logger.LogEvent(ctx, logger.App, slog.LevelError, "bootstrap.step",
				slog.String("op", step.Name),
				slog.String("outcome", "fail"),
				slog.Any("err", err),
			)
			if cerr := res.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return nil, fmt.Errorf("bootstrap: %s: %w", step.Name, err)
		}
		if cleanup != nil {
			res.cleanups = append(res.cleanups, cleanup)
		}
		logger.LogEvent(ctx, logger.App, slog.LevelInfo, "bootstrap.step",
			slog.String("op", step.Name),
			slog.String("outcome", "ok"),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return res, nil
}
