// Package provider holds the upstream HTTP adapters that supply QC evidence
// and keyword search results.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrUpstreamStatus indicates a non-2xx HTTP response
	ErrUpstreamStatus = errors.New("provider: upstream returned error status")
	// ErrUpstreamAuth indicates the upstream rejected or throttled our credentials
	ErrUpstreamAuth = errors.New("provider: upstream rejected credentials")
	// ErrCircuitOpen indicates the breaker is refusing calls to a failing upstream
	ErrCircuitOpen = errors.New("provider: circuit breaker open")
)

// StatusError carries the HTTP status of a failed upstream call
type StatusError struct {
	Code int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream HTTP %d", e.Code)
}

// Unwrap classifies 401/403/429 as auth failures
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return ErrUpstreamAuth
	default:
		return ErrUpstreamStatus
	}
}

// ClientConfig configures one upstream HTTP client
type ClientConfig struct {
	BaseURL string
	// Timeout bounds every request
	Timeout time.Duration
	// RatePerSecond of 0 disables client-side rate limiting
	RatePerSecond float64
	Burst         int
	// BreakerFailures consecutive failures open the circuit; 0 disables it
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func (c ClientConfig) withDefaults(baseURL string) ClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 4 * time.Second
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	return c
}

// client is a resty client guarded by a rate limiter and a circuit breaker
type client struct {
	name    string
	http    *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func newClient(name string, cfg ClientConfig, logger *zap.Logger) *client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &client{
		name:   name,
		logger: logger,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	if cfg.BreakerFailures > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			IsSuccessful: func(err error) bool {
				// a rejected key is not an outage
				return err == nil || errors.Is(err, ErrUpstreamAuth)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Upstream circuit breaker state changed",
					zap.String("upstream", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// get performs a GET through the limiter and breaker.
// Non-2xx responses are returned as *StatusError.
func (c *client) get(ctx context.Context, path string, query map[string]string, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limiter: %w", c.name, err)
		}
	}

	call := func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetHeaders(headers).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return nil, fmt.Errorf("%s: %w", c.name, &StatusError{Code: resp.StatusCode()})
		}
		return resp.Body(), nil
	}

	if c.breaker == nil {
		body, err := call()
		if err != nil {
			return nil, err
		}
		return body.([]byte), nil
	}

	body, err := c.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	}
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}
