package domain

import "time"

// Sentinel status codes used when a verification or audit call never produced
// an HTTP response. They are negative so callers can distinguish "the server
// told us no" (1xx-5xx) from "we never reached the server".
const (
	StatusTimeout    = -1
	StatusNetwork    = -2
	StatusBadPayload = -3
	StatusInternal   = -99
)

// VerificationResult is the classified outcome of a single token check.
type VerificationResult struct {
	Valid      bool        `json:"valid"`
	Scopes     []string    `json:"scopes"`
	Message    string      `json:"message"`
	StatusCode int         `json:"status_code"`
	Kind       FailureKind `json:"kind"`
}

// WorkflowState is threaded through the verification workflow. Token is set
// once at construction; each downstream field is written by exactly one step.
type WorkflowState struct {
	Token                  string              `json:"-"`
	VerificationResult     *VerificationResult `json:"verification_result,omitempty"`
	AnalysisMessage        string              `json:"analysis_message,omitempty"`
	RemediationSuggestions string              `json:"remediation_suggestions,omitempty"`
}

// DependabotStatus reports whether vulnerability alerts are enabled for a
// repository.
type DependabotStatus struct {
	Owner      string
	Repo       string
	Enabled    bool
	StatusText string
	Message    string
	StatusCode int
	Kind       FailureKind
}

// OrgMember is a member of an organization with their org-level role.
type OrgMember struct {
	Organization string
	Username     string
	Role         string
}

// Team is an organization team.
type Team struct {
	Name string
	Slug string
}

// TeamMembership is a user's role within a team ("member" or "maintainer").
type TeamMembership struct {
	Organization string
	TeamName     string
	Username     string
	Role         string
}

// RepositoryInfo captures the branching and versioning snapshot of a repo.
type RepositoryInfo struct {
	Owner             string
	Repo              string
	DefaultBranch     string
	LatestCommitSHA   string
	LatestCommitTitle string
	LatestCommitDate  time.Time
	Private           bool
	Description       string
	License           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PushedAt          time.Time
}

// Branch is a single repository branch.
type Branch struct {
	Repository string
	Name       string
	CommitSHA  string
	Protected  bool
}

// Release is the latest published release of a repository, if any.
type Release struct {
	Repository  string
	Name        string
	TagName     string
	PublishedAt time.Time
	Author      string
	Prerelease  bool
	URL         string
}

// AuditSummary is the posture roll-up written at the end of an audit run.
type AuditSummary struct {
	Organization       string
	ReposChecked       int
	DependabotEnabled  int
	DependabotCoverage float64
	OrgRolesAudited    bool
	TeamRolesAudited   bool
	RecommendedActions []string
}
