// Package httpx holds the HTTP policy shared by the metadata providers and the
// Blogger client: one client with a timeout, typed status errors, and bounded
// exponential-backoff retry of replayable requests.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/sling"

	"github.com/pfrederiksen/moviepost/internal/logger"
)

const (
	// DefaultTimeout bounds a single request including the body read.
	DefaultTimeout = 15 * time.Second
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries = 2
	// UserAgent is sent on every outgoing request.
	UserAgent = "moviepost/1.0 (+https://github.com/pfrederiksen/moviepost)"
)

// RetryInterval is the first backoff interval. Tests shorten it.
var RetryInterval = 500 * time.Millisecond

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Temporary reports whether the status is worth retrying (5xx and 429).
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// NewClient returns an http.Client with the given timeout, or DefaultTimeout when zero.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewSling returns a sling builder rooted at base. base must end with "/".
func NewSling(base string, client *http.Client) *sling.Sling {
	if client == nil {
		client = NewClient(0)
	}
	return sling.New().Client(client).Base(base).Set("User-Agent", UserAgent)
}

// Retry runs op until it succeeds, returns a permanent error, or the retry
// budget is spent. Only GET and HEAD are retried; other methods run once.
func Retry(ctx context.Context, method string, op func() error) error {
	retries := uint64(MaxRetries)
	if method != http.MethodGet && method != http.MethodHead {
		retries = 0
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)

	notify := func(err error, wait time.Duration) {
		logger.Debug("Retrying HTTP request", logger.Fields{
			"method": method,
			"wait":   wait.String(),
			"error":  err.Error(),
		})
		logger.IncrCounter("http.retries")
	}

	return backoff.RetryNotify(op, policy, notify)
}

// Classify turns the outcome of a request into the error Retry expects:
// 4xx and context cancellation are permanent, 5xx, 429 and network errors are not.
func Classify(ctx context.Context, req *http.Request, resp *http.Response, err error) error {
	if resp == nil {
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, ErrBlockedAddress) {
			return backoff.Permanent(err)
		}
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Method: req.Method, URL: redact(req)}
		if se.Temporary() {
			return se
		}
		return backoff.Permanent(se)
	}

	if err != nil {
		return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// Receive sends the request built by s with ctx, decoding 2xx bodies into
// success and other bodies into failure. Non-2xx responses return a *StatusError.
func Receive(ctx context.Context, s *sling.Sling, success, failure interface{}) (*http.Response, error) {
	req, err := s.Request()
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	var last *http.Response
	err = Retry(ctx, req.Method, func() error {
		resp, err := s.Do(req.Clone(ctx), success, failure)
		last = resp
		return Classify(ctx, req, resp, err)
	})
	return last, err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// redact drops the query string so API keys never reach logs or error text.
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
