package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/assetze/ghaudit/internal/domain"
)

// Repository returns the branching and versioning snapshot of a repository:
// default branch, its latest commit, and repository metadata.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*domain.RepositoryInfo, error) {
	resp, err := c.getRetrying(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, resp.Body)
	}

	var apiRepo apiRepository
	if err := json.Unmarshal(resp.Body, &apiRepo); err != nil {
		return nil, fmt.Errorf("decode repository: %w", err)
	}

	info := &domain.RepositoryInfo{
		Owner:         owner,
		Repo:          repo,
		DefaultBranch: apiRepo.DefaultBranch,
		Private:       apiRepo.Private,
		Description:   apiRepo.Description,
		License:       "N/A",
		CreatedAt:     apiRepo.CreatedAt,
		UpdatedAt:     apiRepo.UpdatedAt,
		PushedAt:      apiRepo.PushedAt,
	}
	if apiRepo.License != nil && apiRepo.License.SPDXID != "" {
		info.License = apiRepo.License.SPDXID
	}

	if apiRepo.DefaultBranch != "" {
		commit, err := c.commit(ctx, owner, repo, apiRepo.DefaultBranch)
		if err != nil {
			return nil, err
		}
		info.LatestCommitSHA = commit.SHA
		info.LatestCommitTitle = commitTitle(commit.Commit.Message)
		info.LatestCommitDate = commit.Commit.Author.Date
	}

	return info, nil
}

func (c *Client) commit(ctx context.Context, owner, repo, ref string) (*apiCommit, error) {
	resp, err := c.getRetrying(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, ref))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, resp.Body)
	}

	var commit apiCommit
	if err := json.Unmarshal(resp.Body, &commit); err != nil {
		return nil, fmt.Errorf("decode commit: %w", err)
	}
	return &commit, nil
}

// Branches returns every branch with its head commit and protection flag.
func (c *Client) Branches(ctx context.Context, owner, repo string) ([]domain.Branch, error) {
	branches, err := fetchAllPages[apiBranch](ctx, c, fmt.Sprintf("/repos/%s/%s/branches", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("list branches of %s/%s: %w", owner, repo, err)
	}

	result := make([]domain.Branch, 0, len(branches))
	for _, branch := range branches {
		result = append(result, domain.Branch{
			Repository: owner + "/" + repo,
			Name:       branch.Name,
			CommitSHA:  branch.Commit.SHA,
			Protected:  branch.Protected,
		})
	}
	return result, nil
}

// LatestRelease returns the most recent published release, or (nil, nil)
// when the repository has none.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*domain.Release, error) {
	resp, err := c.getRetrying(ctx, fmt.Sprintf("/repos/%s/%s/releases/latest", owner, repo))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, resp.Body)
	}

	var release apiRelease
	if err := json.Unmarshal(resp.Body, &release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	return &domain.Release{
		Repository:  owner + "/" + repo,
		Name:        release.Name,
		TagName:     release.TagName,
		PublishedAt: release.PublishedAt,
		Author:      release.Author.Login,
		Prerelease:  release.Prerelease,
		URL:         release.HTMLURL,
	}, nil
}

// commitTitle returns the first line of a commit message.
func commitTitle(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
