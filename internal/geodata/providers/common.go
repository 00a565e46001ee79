package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/geo-dashboard/internal/geodata"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings shared by all
// providers.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig

	// RateLimit is the steady request rate per upstream; <= 0 disables limiting.
	RateLimit float64
	Burst     int

	Logger *zap.Logger
}

const maxBodyBytes = 4 << 20

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNoAPIKey      = errors.New("api key is not configured")
)

// statusError carries a non-success HTTP answer.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.status)
	}
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// endpoint is the per-upstream plumbing every provider embeds: base URL,
// circuit breaker, rate limiter and retry policy.
type endpoint struct {
	name     string
	category geodata.Category
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Option customizes a provider.
type Option func(*endpoint)

// WithBaseURL points a provider at a different host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(e *endpoint) {
		e.baseURL = strings.TrimRight(u, "/")
	}
}

func newEndpoint(name string, category geodata.Category, baseURL string, cfg HTTPClientConfig, opts ...Option) *endpoint {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	e := &endpoint{
		name:     name,
		category: category,
		baseURL:  baseURL,
		httpCfg:  cfg,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger.With(zap.String("provider", name)),
	}

	e.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A 4xx answer means the upstream is alive; only outages trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUnexpected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Info("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// do executes the request with rate limiting, retries, exponential backoff and
// a circuit breaker, and returns the response body. Every error it returns is
// a *geodata.FetchError.
func (e *endpoint) do(ctx context.Context, buildRequest func() (*http.Request, error)) ([]byte, error) {
	cfg := e.httpCfg
	if cfg.Client == nil {
		return nil, e.fail(errNoHTTPClient)
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, e.fail(errInvalidConfig)
	}

	var attempt int

	for {
		if err := e.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next token lands after the deadline.
			if _, ok := ctx.Deadline(); ok && !errors.Is(ctx.Err(), context.Canceled) {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return nil, e.fail(fmt.Errorf("rate limit wait: %w", err))
		}

		req, err := buildRequest()
		if err != nil {
			return nil, e.fail(err)
		}
		req = req.WithContext(ctx)

		result, err := e.circuit.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				se := &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
				switch {
				case resp.StatusCode == http.StatusTooManyRequests:
					return nil, fmt.Errorf("%w: %w", errRateLimited, se)
				case resp.StatusCode >= 500:
					return nil, fmt.Errorf("%w: %w", errServerError, se)
				default:
					return nil, fmt.Errorf("%w: %w", errUnexpected, se)
				}
			}

			return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, e.fail(fmt.Errorf("unexpected result type from circuit breaker"))
			}
			return body, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, e.fail(fmt.Errorf("%w: %v", errCircuitOpen, err))
		}
		if !retryable(ctx, err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, e.fail(err)
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}
		e.logger.Debug("retrying request",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, e.fail(ctx.Err())
		case <-timer.C:
		}

		attempt++
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, errUnexpected) {
		return false
	}
	return true
}

// fail classifies err into the fetch error taxonomy.
func (e *endpoint) fail(err error) *geodata.FetchError {
	fe := &geodata.FetchError{Category: e.category, Source: e.name, Err: err}

	var se *statusError
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		fe.Kind = geodata.KindTimeout
	case errors.As(err, &se):
		fe.Kind = geodata.KindUpstreamRejected
		fe.Status = se.status
	case errors.Is(err, errNoAPIKey):
		fe.Kind = geodata.KindUpstreamRejected
	default:
		fe.Kind = geodata.KindUnreachable
	}
	return fe
}

// malformed reports a body that could not be decoded.
func (e *endpoint) malformed(err error) *geodata.FetchError {
	return geodata.Rejected(e.category, e.name, http.StatusOK, err)
}
