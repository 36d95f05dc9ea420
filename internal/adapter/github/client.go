package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/assetze/ghaudit/internal/adapter/transport"
)

const (
	serviceName = "github"

	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 15 * time.Second
	defaultPerPage        = 100
	defaultRateLimit      = 5.0
	defaultBurst          = 10
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	apiVersion = "2022-11-28"
)

// Client is an HTTP client for the GitHub REST API.
//
// A single rate limiter governs every request the client makes, so callers
// may fan out audit checks across goroutines without coordinating on the
// upstream rate limit themselves.
type Client struct {
	token      string
	baseURL    string
	perPage    int
	httpClient *http.Client
	limiter    *rate.Limiter
	retryConf  transport.RetryConfig
	logger     transport.Logger
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		perPage:    defaultPerPage,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		retryConf: transport.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
		logger: transport.NopLogger{},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetPerPage sets the page size used for paginated endpoints.
func (c *Client) SetPerPage(perPage int) {
	if perPage > 0 {
		c.perPage = perPage
	}
}

// SetRateLimit replaces the shared request limiter.
func (c *Client) SetRateLimit(requestsPerSecond float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// SetRetryConfig sets the retry policy for audit requests.
func (c *Client) SetRetryConfig(conf transport.RetryConfig) {
	c.retryConf = conf
}

// SetLogger sets the structured logger for outbound calls.
func (c *Client) SetLogger(logger transport.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// response is the subset of an HTTP exchange the audit fetchers care about.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// get performs a single rate-limited GET and reads the whole body.
// No retry happens at this level; callers that want retries wrap it.
func (c *Client) get(ctx context.Context, path string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	start := time.Now()
	c.logger.LogRequest(ctx, transport.RequestLog{
		Service:    serviceName,
		Target:     path,
		Timestamp:  start,
		Credential: c.token,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.LogError(ctx, transport.ErrorLog{
			Service:   serviceName,
			Target:    path,
			Timestamp: time.Now(),
			Duration:  time.Since(start),
			Error:     err,
			Retryable: true,
		})
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.LogResponse(ctx, transport.ResponseLog{
		Service:    serviceName,
		Target:     path,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
		StatusCode: resp.StatusCode,
	})

	return &response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// getRetrying wraps get with the client's retry policy, retrying rate-limit
// and availability failures only.
func (c *Client) getRetrying(ctx context.Context, path string) (*response, error) {
	var resp *response

	err := transport.RetryWithBackoff(ctx, func(ctx context.Context) error {
		r, err := c.get(ctx, path)
		if err != nil {
			return transport.NewTimeoutError(serviceName, err.Error())
		}

		switch {
		case r.StatusCode == http.StatusTooManyRequests:
			return transport.NewRateLimitError(serviceName, errorMessage(r.Body, "too many requests"))
		case r.StatusCode >= http.StatusInternalServerError:
			return transport.NewServiceUnavailableError(serviceName,
				fmt.Sprintf("HTTP %d: %s", r.StatusCode, errorMessage(r.Body, "server error")))
		}

		resp = r
		return nil
	}, c.retryConf)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// statusError maps a non-2xx audit response to a typed error.
func statusError(statusCode int, body []byte) error {
	message := errorMessage(body, fmt.Sprintf("HTTP %d", statusCode))

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return transport.NewAuthenticationError(serviceName, message)
	case http.StatusNotFound:
		return transport.NewNotFoundError(serviceName, message)
	default:
		return &transport.Error{
			Type:       transport.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}
	}
}

// errorMessage extracts the "message" field from a GitHub error body, falling
// back to a snippet of the raw body and then to the supplied default.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		if len(trimmed) > 200 {
			trimmed = trimmed[:200] + "..."
		}
		return trimmed
	}
	return fallback
}
