package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/salonbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 10 * time.Second
	defaultClientTimeout     = 60 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Bot API calls.
// Long polling requests hold the connection for the poll timeout, so the
// client timeout must stay above telegram.longpoll_timeout_seconds.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   defaultClientTimeout,
		Transport: &retryTransport{base: transport, attempts: defaultRetryAttempts, backoff: defaultRetryBackoff},
	}
}

// retryTransport replays requests whose body can be rewound.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.attempts
	if req.Body != nil && req.GetBody == nil {
		attempts = 1
	}

	var resp *http.Response
	first := true
	_, err := netutil.Do(req.Context(), attempts, t.backoff, func() error {
		curr := req
		if !first {
			curr = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return err
				}
				curr.Body = body
			}
		}
		first = false
		var err error
		resp, err = base.RoundTrip(curr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
