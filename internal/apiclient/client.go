// Package apiclient talks to the propdocs REST API. Calls go through a
// circuit breaker; reads are retried with exponential backoff.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sony/gobreaker"
)

// Identity headers understood by the server
const (
	headerUserID    = "X-User-ID"
	headerUserName  = "X-User-Name"
	headerUserEmail = "X-User-Email"
)

// NoRetries as Config.MaxRetries sends every GET once.
const NoRetries = -1

// Config configures a Client
type Config struct {
	BaseURL    string
	UserID     string
	UserName   string
	UserEmail  string
	Timeout    time.Duration
	MaxRetries int // GET retries; 0 takes the default, NoRetries disables them
	RetryDelay time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
	Logger     *slog.Logger
}

func (c Config) validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.UserEmail, is.EmailFormat),
		validation.Field(&c.MaxRetries, validation.Min(NoRetries)),
	)
}

// Client is a propdocs API client
type Client struct {
	baseURL        string
	userID         string
	userName       string
	userEmail      string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
	logger         *slog.Logger
}

// New creates a client. Zero durations and retries take defaults.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 3
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userID:     cfg.UserID,
		userName:   cfg.UserName,
		userEmail:  cfg.UserEmail,
		httpClient: cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
	c.circuitBreaker = c.createCircuitBreaker()
	return c, nil
}

// createCircuitBreaker trips on server failures only; API errors below 500
// are answers, not outages.
func (c *Client) createCircuitBreaker() *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "propdocs-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.callWithRetry(ctx, http.MethodGet, path, nil, result, c.maxRetries)
}

// send issues a mutation. Mutations are not retried.
func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.callWithRetry(ctx, method, path, reqBody, result, 0)
}

func (c *Client) callWithRetry(ctx context.Context, method, path string, reqBody []byte, result any, retries int) error {
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			c.logger.Debug("retrying request", "method", method, "path", path, "attempt", attempt, "error", lastErr)
		}

		response, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doHTTPCall(ctx, method, path, reqBody)
		})
		if err == nil {
			respBody := response.([]byte)
			if result != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, result); err != nil {
					return fmt.Errorf("unmarshal response: %w", err)
				}
			}
			return nil
		}

		lastErr = err
		if !shouldRetry(err) {
			return err
		}
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, retries+1, lastErr)
}

func (c *Client) doHTTPCall(ctx context.Context, method, path string, reqBody []byte) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userID != "" {
		httpReq.Header.Set(headerUserID, c.userID)
		httpReq.Header.Set(headerUserName, c.userName)
		httpReq.Header.Set(headerUserEmail, c.userEmail)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// shouldRetry retries transport failures and 5xx answers
func shouldRetry(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}
