package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/assetze/ghaudit/internal/adapter/transport"
)

// fetchAllPages walks a paginated list endpoint with page/per_page query
// parameters, accumulating every element. It stops on an empty page or when
// the Link response header carries no rel="next" relation.
func fetchAllPages[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	for page := 1; ; page++ {
		pagedPath := fmt.Sprintf("%s%spage=%d&per_page=%d", path, separator, page, c.perPage)

		resp, err := c.getRetrying(ctx, pagedPath)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, statusError(resp.StatusCode, resp.Body)
		}

		var items []T
		if err := json.Unmarshal(resp.Body, &items); err != nil {
			return nil, &transport.Error{
				Type:    transport.ErrTypeUnknown,
				Message: fmt.Sprintf("decode page %d of %s: %v", page, path, err),
				Service: serviceName,
			}
		}
		if len(items) == 0 {
			break
		}

		all = append(all, items...)

		if !hasNextPage(resp.Header.Get("Link")) {
			break
		}
	}

	return all, nil
}

// hasNextPage reports whether a Link header advertises another page.
func hasNextPage(linkHeader string) bool {
	return strings.Contains(linkHeader, `rel="next"`)
}
