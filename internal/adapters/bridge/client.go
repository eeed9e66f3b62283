package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/ports"
)

// RequestRecorder observes bridge traffic. Status code 0 means no answer arrived.
type RequestRecorder interface {
	RecordRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordRetry(method, endpoint, reason string)
	RecordRateLimitWait(method, endpoint string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordRequest(string, string, int, time.Duration) {}
func (noopRecorder) RecordRetry(string, string, string)               {}
func (noopRecorder) RecordRateLimitWait(string, string, time.Duration) {}

// Client is the HTTP client for the host plugin's local endpoint
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *CircuitBreaker
	baseURL     string
	token       string
	maxRetries  int
	backoffBase time.Duration
	clock       shared.Clock
	recorder    RequestRecorder
}

// NewClient creates a client from the bridge config. A nil clock uses RealClock.
func NewClient(cfg config.BridgeConfig, clock shared.Clock) *Client {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.Requests), cfg.RateLimit.Burst),
		breaker:     NewCircuitBreaker(cfg.CircuitBreaker.MaxFailures, cfg.CircuitBreaker.Timeout, clock),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		maxRetries:  cfg.Retry.MaxAttempts,
		backoffBase: cfg.Retry.BackoffBase,
		clock:       clock,
		recorder:    noopRecorder{},
	}
}

// SetRecorder installs a traffic recorder; nil restores the no-op recorder
func (c *Client) SetRecorder(recorder RequestRecorder) {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	c.recorder = recorder
}

// FetchState polls the current host state
func (c *Client) FetchState(ctx context.Context) (*ports.HostState, error) {
	var state ports.HostState
	if err := c.call(ctx, http.MethodGet, "/v1/state", nil, &state); err != nil {
		return nil, fmt.Errorf("failed to fetch host state: %w", err)
	}
	return &state, nil
}

// FetchCapabilities asks which items the engine's target list can hold
func (c *Client) FetchCapabilities(ctx context.Context) (*ports.EngineCapabilities, error) {
	var caps ports.EngineCapabilities
	if err := c.call(ctx, http.MethodGet, "/v1/engine/capabilities", nil, &caps); err != nil {
		return nil, fmt.Errorf("failed to fetch engine capabilities: %w", err)
	}
	return &caps, nil
}

// SendCommand posts one command
func (c *Client) SendCommand(ctx context.Context, cmd ports.HostCommand) error {
	if err := c.call(ctx, http.MethodPost, "/v1/commands", cmd, nil); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd.Type, err)
	}
	return nil
}

// BreakerState exposes the circuit state for health reporting
func (c *Client) BreakerState() CircuitState {
	return c.breaker.State()
}

func (c *Client) call(ctx context.Context, method, path string, body, result interface{}) error {
	return c.breaker.Call(func() error {
		return c.request(ctx, method, path, body, result)
	})
}

// request performs one HTTP exchange with rate limiting and exponential backoff on
// network errors and 5xx answers. 4xx answers are not retried.
func (c *Client) request(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	var lastErr *retryableError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.recorder.RecordRetry(method, path, lastErr.reason)
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<(attempt-1))))
		}

		waitStart := time.Now()
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
		c.recorder.RecordRateLimitWait(method, path, time.Since(waitStart))

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		sentAt := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.recorder.RecordRequest(method, path, 0, time.Since(sentAt))
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			lastErr = &retryableError{reason: "network", message: fmt.Sprintf("network error: %v", err)}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.recorder.RecordRequest(method, path, resp.StatusCode, time.Since(sentAt))
		if err != nil {
			lastErr = &retryableError{reason: "read", message: fmt.Sprintf("failed to read response: %v", err)}
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &retryableError{reason: strconv.Itoa(resp.StatusCode), message: fmt.Sprintf("host error (%d)", resp.StatusCode)}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("host error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return fmt.Errorf("max retries exceeded")
}

// retryableError marks failures worth another attempt
type retryableError struct {
	reason  string
	message string
}

func (e *retryableError) Error() string {
	return e.message
}

// addJitter spreads retries by up to +/-10%
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5+1)) - d/10
	return d + jitter
}
