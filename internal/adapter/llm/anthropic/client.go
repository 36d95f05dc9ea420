package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/assetze/ghaudit/internal/adapter/transport"
)

const (
	serviceName      = "anthropic"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 60 * time.Second
	defaultMaxTok    = 1024
	anthropicVersion = "2023-06-01"
)

// Client is an HTTP client for the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	retryConf  transport.RetryConfig
	logger     transport.Logger
}

// NewClient creates a new Anthropic client.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		maxTokens:  defaultMaxTok,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  transport.DefaultRetryConfig(),
		logger:     transport.NopLogger{},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxTokens sets the completion token limit.
func (c *Client) SetMaxTokens(maxTokens int) {
	c.maxTokens = maxTokens
}

// SetRetryConfig overrides the retry behavior.
func (c *Client) SetRetryConfig(config transport.RetryConfig) {
	c.retryConf = config
}

// SetLogger sets the structured logger.
func (c *Client) SetLogger(logger transport.Logger) {
	c.logger = logger
}

// Complete sends a system prompt and user message and returns the assistant's
// reply text. Anthropic carries the system prompt as a top-level field rather
// than a message.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := MessagesRequest{
		Model:     c.model,
		System:    system,
		Messages:  []Message{{Role: "user", Content: user}},
		MaxTokens: c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"

	var text string
	operation := func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)

		c.logger.LogRequest(ctx, transport.RequestLog{
			Service:    serviceName,
			Target:     url,
			Timestamp:  time.Now(),
			Credential: c.apiKey,
		})

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return transport.NewTimeoutError(serviceName, "request timed out")
			}
			return transport.NewTimeoutError(serviceName, err.Error())
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		c.logger.LogResponse(ctx, transport.ResponseLog{
			Service:    serviceName,
			Target:     url,
			StatusCode: resp.StatusCode,
			Duration:   time.Since(start),
		})

		if resp.StatusCode != http.StatusOK {
			return c.handleErrorResponse(resp.StatusCode, body)
		}

		var msgResp MessagesResponse
		if err := json.Unmarshal(body, &msgResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		text = collectText(msgResp.Content)
		if text == "" {
			return fmt.Errorf("no text content in response")
		}
		return nil
	}

	if err := transport.RetryWithBackoff(ctx, operation, c.retryConf); err != nil {
		return "", err
	}
	return text, nil
}

func collectText(blocks []ContentBlock) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return transport.NewAuthenticationError(serviceName, message)
	case http.StatusTooManyRequests:
		return transport.NewRateLimitError(serviceName, message)
	case http.StatusBadRequest:
		return transport.NewInvalidRequestError(serviceName, message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable,
		529: // Anthropic's overloaded status
		return transport.NewServiceUnavailableError(serviceName, message)
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
