// Package upstream wraps outbound HTTP calls to third-party services with
// exponential backoff and a per-service circuit breaker.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by services that do not override it.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// NoRetry surfaces the first failure to the caller.
var NoRetry = BackoffConfig{
	MaxRetries:      0,
	InitialInterval: DefaultBackoff.InitialInterval,
}

var (
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")
	ErrUnexpected  = errors.New("unexpected status code")
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// StatusError carries the status code and a body excerpt of a failed call.
type StatusError struct {
	Code int
	Body string
	kind error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", e.kind, e.Code)
	}
	return fmt.Sprintf("%v: %d: %s", e.kind, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

// Client executes requests for one upstream service.
type Client struct {
	name    string
	http    *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// Option adjusts the breaker settings of a Client.
type Option func(*gobreaker.Settings)

// WithoutTripping keeps the breaker closed no matter how many calls fail.
// Failures are still returned to the caller.
func WithoutTripping() Option {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	}
}

// NewClient creates a Client with its own circuit breaker. The breaker opens
// after more than 5 consecutive failures unless WithoutTripping is given.
func NewClient(name string, httpClient *http.Client, backoff BackoffConfig, opts ...Option) *Client {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	cb := gobreaker.NewCircuitBreaker(settings)

	return &Client{
		name:    name,
		http:    httpClient,
		backoff: backoff,
		circuit: cb,
	}
}

// Name returns the service name used for the breaker.
func (c *Client) Name() string {
	return c.name
}

// Do executes the request built by buildRequest with retries, exponential
// backoff, and the circuit breaker. Only 2xx responses are returned; the
// caller must close the body.
func (c *Client) Do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if c.http == nil {
		return nil, errNoHTTPClient
	}
	if c.backoff.MaxRetries < 0 || c.backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.http.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()

			kind := ErrUnexpected
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				kind = ErrRateLimited
			case resp.StatusCode >= 500:
				kind = ErrServer
			}
			return nil, &StatusError{Code: resp.StatusCode, Body: string(body), kind: kind}
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w: %v", c.name, ErrCircuitOpen, err)
		}

		// 4xx other than 429 will not get better by retrying.
		if errors.Is(err, ErrUnexpected) || attempt >= c.backoff.MaxRetries {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.backoff.MaxInterval && c.backoff.MaxInterval > 0 {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
