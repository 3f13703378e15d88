// Package httpds downloads source tables over HTTP(S). Transient failures
// (transport errors, 429 and 5xx responses) are retried with exponential
// backoff, and TLS verification can be disabled per source.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config configures the client. Zero values get defaults:
// Timeout 30s, InitialBackoff 200ms, MaxBackoff 5s. MaxRetries counts the
// attempts after the first one; 0 disables retrying.
type Config struct {
	Timeout            time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	InsecureSkipVerify bool

	// UserAgent is sent with every request when set.
	UserAgent string

	// Transport replaces the default transport. InsecureSkipVerify is not
	// applied to a caller-supplied transport.
	Transport http.RoundTripper
}

// Client is an http.Client with a retry loop around GET.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	userAgent      string

	// wait blocks for d or until ctx is done; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in per source
			},
		}
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		userAgent:      cfg.UserAgent,
		wait:           waitContext,
	}
}

// Get issues a GET for url, retrying transient failures. A non-retryable
// response is returned as is, whatever its status; the caller closes its
// body. When every attempt fails the last error is returned.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, errors.New("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt-1, c.maxBackoff)); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		_ = resp.Body.Close()
		lastErr = &StatusError{URL: url, Code: resp.StatusCode}
	}
	return nil, fmt.Errorf("httpds: GET %s failed after %d attempt(s): %w", url, c.maxRetries+1, lastErr)
}

// isRetryableStatus reports whether code is worth another attempt: 429 and
// any 5xx.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoffDuration returns initial * 2^retry, capped at max.
func backoffDuration(initial time.Duration, retry int, max time.Duration) time.Duration {
	if initial >= max {
		return max
	}
	d := initial
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}

func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
