package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/assetze/ghaudit/internal/domain"
)

// Verifier checks a personal access token against GET /user and classifies
// the outcome. It never returns an error: every failure mode is folded into
// the result with a status code that tells the caller what happened. Negative
// codes mean the server was never reached (or never answered usably).
type Verifier struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewVerifier constructs a Verifier sharing the client's base URL, timeout,
// and rate limiter, so verification traffic counts against the same upstream
// budget as audit traffic.
func NewVerifier(c *Client) *Verifier {
	return &Verifier{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		limiter:    c.limiter,
	}
}

// NewStandaloneVerifier constructs a Verifier with its own HTTP client, for
// callers that verify tokens without a full audit client.
func NewStandaloneVerifier(baseURL string, timeout time.Duration) *Verifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Verifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}
}

// VerifyToken performs a single authenticated GET /user call and classifies
// the HTTP outcome. It makes exactly one attempt: the verification workflow
// wants the first answer, not the eventual one.
func (v *Verifier) VerifyToken(ctx context.Context, token string) domain.VerificationResult {
	if err := v.limiter.Wait(ctx); err != nil {
		return transportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/user", nil)
	if err != nil {
		return domain.VerificationResult{
			Valid:      false,
			Scopes:     []string{},
			Message:    fmt.Sprintf("An unexpected error occurred: %v", err),
			StatusCode: domain.StatusInternal,
			Kind:       domain.KindInternal,
		}
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	return classify(resp)
}

// classify maps an HTTP response to a VerificationResult per the policy:
// 200 valid with scopes from X-OAuth-Scopes; 401/403/other invalid with the
// upstream message surfaced.
func classify(resp *http.Response) domain.VerificationResult {
	body := readBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		if !json.Valid(body) {
			return domain.VerificationResult{
				Valid:      false,
				Scopes:     []string{},
				Message:    "Unexpected response format from GitHub API.",
				StatusCode: domain.StatusBadPayload,
				Kind:       domain.KindBadPayload,
			}
		}
		return domain.VerificationResult{
			Valid:      true,
			Scopes:     ParseScopes(resp.Header.Get("X-OAuth-Scopes")),
			Message:    "Token is valid.",
			StatusCode: http.StatusOK,
			Kind:       domain.KindNone,
		}

	case http.StatusUnauthorized:
		return domain.VerificationResult{
			Valid:      false,
			Scopes:     []string{},
			Message:    fmt.Sprintf("Token is invalid or expired: %s", bodyMessage(body, "Bad credentials")),
			StatusCode: http.StatusUnauthorized,
			Kind:       domain.KindUnauthorized,
		}

	case http.StatusForbidden:
		message, kind := classifyForbidden(bodyMessage(body, "Access Forbidden."))
		return domain.VerificationResult{
			Valid:      false,
			Scopes:     []string{},
			Message:    message,
			StatusCode: http.StatusForbidden,
			Kind:       kind,
		}

	default:
		return domain.VerificationResult{
			Valid:      false,
			Scopes:     []string{},
			Message:    fmt.Sprintf("Unexpected API response (Status: %d): %s", resp.StatusCode, bodyMessage(body, "No message")),
			StatusCode: resp.StatusCode,
			Kind:       domain.KindUnexpectedStatus,
		}
	}
}

// classifyForbidden distinguishes the common causes of a 403. GitHub does not
// expose a structured reason code on this endpoint, so substring matching on
// the upstream message is the documented fallback; it is confined to this
// function.
func classifyForbidden(message string) (string, domain.FailureKind) {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "rate limit"):
		return fmt.Sprintf("Rate limit exceeded or forbidden: %s", message), domain.KindRateLimited
	case strings.Contains(lower, "resource not accessible by integration"),
		strings.Contains(lower, "requires authentication"):
		return fmt.Sprintf("Token forbidden or insufficient permissions: %s", message), domain.KindInsufficientScope
	default:
		return message, domain.KindForbidden
	}
}

// transportFailure classifies an error raised before any HTTP response
// arrived: timeout -1, network -2, anything else -99.
func transportFailure(err error) domain.VerificationResult {
	result := domain.VerificationResult{
		Valid:  false,
		Scopes: []string{},
	}

	var netErr net.Error
	var urlErr *url.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		result.Message = "Request timed out when connecting to GitHub API."
		result.StatusCode = domain.StatusTimeout
		result.Kind = domain.KindTimeout

	case errors.As(err, &urlErr):
		result.Message = fmt.Sprintf("Network or API request error: %v", err)
		result.StatusCode = domain.StatusNetwork
		result.Kind = domain.KindNetwork

	default:
		result.Message = fmt.Sprintf("An unexpected error occurred: %v", err)
		result.StatusCode = domain.StatusInternal
		result.Kind = domain.KindInternal
	}

	return result
}

// ParseScopes splits an X-OAuth-Scopes header value into trimmed,
// non-empty scope names, preserving order.
func ParseScopes(header string) []string {
	scopes := []string{}
	for _, scope := range strings.Split(header, ",") {
		scope = strings.TrimSpace(scope)
		if scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func readBody(resp *http.Response) []byte {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return body
}

func bodyMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && !json.Valid(body) {
		if len(trimmed) > 200 {
			trimmed = trimmed[:200] + "..."
		}
		return trimmed
	}
	return fallback
}
