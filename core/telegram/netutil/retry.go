package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"
)

// ShouldRetry reports whether a network error is transient: dial failures and
// timeouts produced by net/http while talking to the Bot API.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Timeout() || opErr.Op == "dial") {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}
	return false
}

// Do runs fn up to attempts times with linear backoff while ShouldRetry holds.
// It returns the number of attempts made and the last error.
func Do(ctx context.Context, attempts int, backoff time.Duration, fn func() error) (int, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return attempt, nil
		}
		if !ShouldRetry(err) || attempt == attempts {
			return attempt, err
		}
		timer := time.NewTimer(backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
	return attempts, err
}
