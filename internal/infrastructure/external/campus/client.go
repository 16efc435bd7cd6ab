package campus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/circuitbreaker"
	"github.com/campus-hub/class-routine-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the campus feed client.
type ClientConfig struct {
	// BaseURL is the feed base URL
	BaseURL string

	// RoutinePath is the path of the routine endpoint
	RoutinePath string

	// APIKey is sent as a bearer token when set
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for feed rate limiting
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		RoutinePath:       "/api/routine",
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the campus feed client. It implements schedule.Feed.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
	mapper      *Mapper
}

var _ schedule.Feed = (*Client)(nil)

// NewClient creates a new feed client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.RoutinePath == "" {
		config.RoutinePath = "/api/routine"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.CampusFeedBreaker(func(name string, from, to circuitbreaker.State) {
			config.Logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		retrier: retry.CampusFeedRetrier(),
		mapper:  NewMapper(),
	}
}

// LoadSnapshot fetches the whole routine payload: session records, course
// records, teacher records, and the remote version token. A body carrying a
// failure status is decided here and surfaced as shared.ErrFeedFailure; the
// caller never inspects response shapes.
func (c *Client) LoadSnapshot(ctx context.Context) (*schedule.FeedPayload, error) {
	var env RoutineEnvelopeDTO

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSingleRequest(ctx, c.config.RoutinePath, &env)
		})
	})
	if err != nil {
		return nil, err
	}

	if msg, failed := env.failureStatus(); failed {
		return nil, shared.WrapError("campus", "LoadSnapshot", shared.ErrExternalService,
			"feed reported failure: "+msg, shared.ErrFeedFailure)
	}

	payload := c.mapper.PayloadFromEnvelope(&env)

	if c.config.Debug {
		c.logger.Debug("feed payload loaded",
			"version", payload.Version,
			"sessions", len(payload.Sessions),
			"courses", len(payload.Courses),
			"teachers", len(payload.Teachers))
	}
	return payload, nil
}

// doSingleRequest performs a single HTTP GET against the feed.
func (c *Client) doSingleRequest(ctx context.Context, path string, result any) error {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return retry.Permanent(fmt.Errorf("rate limiter: %w", err))
	}

	fullURL := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if c.config.Debug {
		c.logger.Debug("feed request", "url", fullURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are worth another attempt.
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.rateLimiter.RecordRateLimitHit(retryAfter)
		return retry.Retryable(&RateLimitError{
			RetryAfter: retryAfter,
			Message:    "feed rate limit exceeded",
		})
	}

	if resp.StatusCode >= 500 {
		return retry.Retryable(fmt.Errorf("feed error: status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return retry.Permanent(fmt.Errorf("feed error: status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return retry.Permanent(shared.WrapError("campus", "Parse", shared.ErrInvalidFormat,
			"malformed feed response", err))
	}
	return nil
}

// IsHealthy checks if the feed is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+c.config.RoutinePath, nil)
	if err != nil {
		return false
	}
	req.Method = http.MethodHead

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// ClientStatus is the current status of the client's protection layers.
type ClientStatus struct {
	RateLimiter  RateLimiterStatus
	BreakerState circuitbreaker.State
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:  c.rateLimiter.Status(),
		BreakerState: c.breaker.State(),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
