package github

import "time"

// apiMember is an element of /orgs/{org}/members.
type apiMember struct {
	Login string `json:"login"`
}

// apiMembership is the response of /orgs/{org}/memberships/{username}.
type apiMembership struct {
	Role string `json:"role"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
}

// apiTeam is an element of /orgs/{org}/teams.
type apiTeam struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// apiTeamMembership is an element of /orgs/{org}/teams/{slug}/memberships.
type apiTeamMembership struct {
	Role string `json:"role"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
}

// apiRepository is the response of /repos/{owner}/{repo}.
type apiRepository struct {
	DefaultBranch string    `json:"default_branch"`
	Private       bool      `json:"private"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
	License       *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// apiCommit is the response of /repos/{owner}/{repo}/commits/{ref}.
type apiCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// apiBranch is an element of /repos/{owner}/{repo}/branches.
type apiBranch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	Commit    struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// apiRelease is the response of /repos/{owner}/{repo}/releases/latest.
type apiRelease struct {
	Name        string    `json:"name"`
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	HTMLURL     string    `json:"html_url"`
	Author      struct {
		Login string `json:"login"`
	} `json:"author"`
}
