// Package fetch retrieves article pages over HTTP with a bounded retry
// policy and a shared outbound rate limit.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"marketpulse/internal/logger"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0"

const maxBodyBytes = 10 << 20

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsRetryable reports whether err is transient: a 500, 502, 503 or 504
// response, a per-attempt timeout, or a transport failure. Cancellation or
// expiry of the caller's context is not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	// Client.Timeout failures wrap context.DeadlineExceeded but arrive as
	// transport errors, since fetchOnce only surfaces bare context errors
	// when the caller's context is done.
	var transportErr *transportError
	if errors.As(err, &transportErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// Options configures a Client.
type Options struct {
	Timeout           time.Duration // Per-attempt timeout
	MaxAttempts       int           // Total attempts including the first
	BackoffBase       time.Duration // Delay before the second attempt, doubled afterwards
	UserAgent         string
	RequestsPerSecond float64 // Zero disables rate limiting
	Burst             int
}

// DefaultOptions matches the behaviour expected of article retrieval:
// 10s timeout, 3 attempts and a 1s backoff factor.
func DefaultOptions() Options {
	return Options{
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		BackoffBase: time.Second,
		UserAgent:   DefaultUserAgent,
	}
}

// Client fetches pages. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient creates a client. Zero option fields fall back to DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BackoffBase < 0 {
		opts.BackoffBase = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: limiter,
		log:     logger.Get(),
	}
}

// FetchPage returns the body of url, retrying transient failures with
// exponential backoff.
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
		}

		retryable := IsRetryable(err)
		c.log.Debug("fetch attempt failed", "url", url, "attempt", attempt, "retryable", retryable, "error", err)
		if !retryable || attempt == c.opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
		case <-time.After(c.backoff(attempt)):
		}
	}
	return nil, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(float64(c.opts.BackoffBase) * math.Pow(2, float64(attempt-1)))
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, ctx.Err())
		}
		return nil, &transportError{err: fmt.Errorf("fetching %s: %w", url, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("reading body from %s: %w", url, err)}
	}
	return body, nil
}
