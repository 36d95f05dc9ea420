package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/assetze/ghaudit/internal/domain"
)

// DependabotStatus checks whether Dependabot vulnerability alerts are enabled
// for a repository. The endpoint answers 204 when enabled and 404 when
// disabled or when the repository is not visible to the token. Like token
// verification, all failure modes are folded into the result.
func (c *Client) DependabotStatus(ctx context.Context, owner, repo string) domain.DependabotStatus {
	status := domain.DependabotStatus{
		Owner: owner,
		Repo:  repo,
	}

	resp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/vulnerability-alerts", owner, repo))
	if err != nil {
		return dependabotTransportFailure(status, err)
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		status.Enabled = true
		status.StatusText = "Enabled"
		status.Message = fmt.Sprintf("Dependabot vulnerability alerts are ENABLED for %s/%s.", owner, repo)
		status.StatusCode = resp.StatusCode
		status.Kind = domain.KindNone

	case http.StatusNotFound:
		status.StatusText = "Disabled/Not Found"
		status.Message = fmt.Sprintf("Dependabot vulnerability alerts are DISABLED for %s/%s or repository not found.", owner, repo)
		status.StatusCode = resp.StatusCode
		status.Kind = domain.KindNotFound

	case http.StatusForbidden:
		message := errorMessage(resp.Body, "Forbidden: Check token scope or access.")
		status.StatusText = "Error: Forbidden"
		status.Message = fmt.Sprintf("Forbidden: %s. Check token scopes ('repo' or 'public_repo') and access.", message)
		status.StatusCode = resp.StatusCode
		status.Kind = domain.KindForbidden

	default:
		status.StatusText = "Error: API Response Issue"
		status.Message = fmt.Sprintf("Could not determine Dependabot status: unexpected HTTP status code %d - %s",
			resp.StatusCode, errorMessage(resp.Body, "no response body"))
		status.StatusCode = resp.StatusCode
		status.Kind = domain.KindUnexpectedStatus
	}

	return status
}

func dependabotTransportFailure(status domain.DependabotStatus, err error) domain.DependabotStatus {
	var netErr net.Error
	var urlErr *url.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		status.StatusText = "Error: Timeout"
		status.Message = "Request timed out when connecting to GitHub API. Check network or API availability."
		status.StatusCode = domain.StatusTimeout
		status.Kind = domain.KindTimeout

	case errors.As(err, &urlErr):
		status.StatusText = "Error: Connection"
		status.Message = fmt.Sprintf("Network connection error: Could not reach GitHub API. Details: %v", err)
		status.StatusCode = domain.StatusNetwork
		status.Kind = domain.KindNetwork

	default:
		status.StatusText = "Error: Unexpected"
		status.Message = fmt.Sprintf("An unexpected error occurred: %v", err)
		status.StatusCode = domain.StatusInternal
		status.Kind = domain.KindInternal
	}

	return status
}
