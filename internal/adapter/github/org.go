package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/assetze/ghaudit/internal/domain"
)

// OrgMembers returns every member of an organization with their org-level
// role. The members list does not carry roles, so each member costs one
// additional membership lookup; a failed lookup degrades that member's role
// to "unknown" rather than failing the whole audit.
func (c *Client) OrgMembers(ctx context.Context, org string) ([]domain.OrgMember, error) {
	members, err := fetchAllPages[apiMember](ctx, c, "/orgs/"+org+"/members")
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", org, err)
	}

	result := make([]domain.OrgMember, 0, len(members))
	for _, member := range members {
		role := "unknown"
		if membership, err := c.orgMembership(ctx, org, member.Login); err == nil {
			role = membership.Role
		} else {
			c.logger.LogWarning(ctx, "membership lookup failed", map[string]interface{}{
				"org":  org,
				"user": member.Login,
				"err":  err.Error(),
			})
		}
		result = append(result, domain.OrgMember{
			Organization: org,
			Username:     member.Login,
			Role:         role,
		})
	}

	return result, nil
}

func (c *Client) orgMembership(ctx context.Context, org, username string) (*apiMembership, error) {
	resp, err := c.getRetrying(ctx, "/orgs/"+org+"/memberships/"+username)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, resp.Body)
	}

	var membership apiMembership
	if err := json.Unmarshal(resp.Body, &membership); err != nil {
		return nil, fmt.Errorf("decode membership: %w", err)
	}
	return &membership, nil
}

// Teams returns all teams in an organization.
func (c *Client) Teams(ctx context.Context, org string) ([]domain.Team, error) {
	teams, err := fetchAllPages[apiTeam](ctx, c, "/orgs/"+org+"/teams")
	if err != nil {
		return nil, fmt.Errorf("list teams of %s: %w", org, err)
	}

	result := make([]domain.Team, 0, len(teams))
	for _, team := range teams {
		result = append(result, domain.Team{Name: team.Name, Slug: team.Slug})
	}
	return result, nil
}

// TeamMembers returns the memberships of a single team, with each member's
// team role ("member" or "maintainer").
func (c *Client) TeamMembers(ctx context.Context, org string, team domain.Team) ([]domain.TeamMembership, error) {
	memberships, err := fetchAllPages[apiTeamMembership](ctx, c, "/orgs/"+org+"/teams/"+team.Slug+"/memberships")
	if err != nil {
		return nil, fmt.Errorf("list members of team %s: %w", team.Slug, err)
	}

	result := make([]domain.TeamMembership, 0, len(memberships))
	for _, membership := range memberships {
		role := membership.Role
		if role == "" {
			role = "member"
		}
		result = append(result, domain.TeamMembership{
			Organization: org,
			TeamName:     team.Name,
			Username:     membership.User.Login,
			Role:         role,
		})
	}
	return result, nil
}
