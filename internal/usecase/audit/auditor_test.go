package audit_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetze/ghaudit/internal/config"
	"github.com/assetze/ghaudit/internal/domain"
	"github.com/assetze/ghaudit/internal/usecase/audit"
)

type fakeGateway struct {
	inFlight       atomic.Int32
	maxInFlight    atomic.Int32
	dependabot     map[string]domain.DependabotStatus
	orgMembers     []domain.OrgMember
	orgMembersErr  error
	teams          []domain.Team
	teamsErr       error
	teamMembers    map[string][]domain.TeamMembership
	teamMembersErr map[string]error
	repos          map[string]*domain.RepositoryInfo
	branches       map[string][]domain.Branch
	releases       map[string]*domain.Release
}

func (f *fakeGateway) DependabotStatus(ctx context.Context, owner, repo string) domain.DependabotStatus {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	if status, ok := f.dependabot[owner+"/"+repo]; ok {
		return status
	}
	return domain.DependabotStatus{Owner: owner, Repo: repo, Enabled: false, StatusText: "Disabled/Not Found"}
}

func (f *fakeGateway) OrgMembers(ctx context.Context, org string) ([]domain.OrgMember, error) {
	return f.orgMembers, f.orgMembersErr
}

func (f *fakeGateway) Teams(ctx context.Context, org string) ([]domain.Team, error) {
	return f.teams, f.teamsErr
}

func (f *fakeGateway) TeamMembers(ctx context.Context, org string, team domain.Team) ([]domain.TeamMembership, error) {
	if err := f.teamMembersErr[team.Slug]; err != nil {
		return nil, err
	}
	return f.teamMembers[team.Slug], nil
}

func (f *fakeGateway) Repository(ctx context.Context, owner, repo string) (*domain.RepositoryInfo, error) {
	if info, ok := f.repos[owner+"/"+repo]; ok {
		return info, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeGateway) Branches(ctx context.Context, owner, repo string) ([]domain.Branch, error) {
	return f.branches[owner+"/"+repo], nil
}

func (f *fakeGateway) LatestRelease(ctx context.Context, owner, repo string) (*domain.Release, error) {
	return f.releases[owner+"/"+repo], nil
}

type fakeReporter struct {
	mu        sync.Mutex
	written   []string
	failOn    string
	summaries []domain.AuditSummary
}

func (f *fakeReporter) record(kind string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == kind {
		return "", fmt.Errorf("write %s failed", kind)
	}
	path := kind + ".csv"
	f.written = append(f.written, path)
	return path, nil
}

func (f *fakeReporter) WriteDependabotReport(org string, results []domain.DependabotStatus) (string, error) {
	return f.record("dependabot")
}

func (f *fakeReporter) WriteOrgRolesReport(org string, members []domain.OrgMember) (string, error) {
	return f.record("org_roles")
}

func (f *fakeReporter) WriteTeamRolesReport(org string, memberships []domain.TeamMembership) (string, error) {
	return f.record("team_roles")
}

func (f *fakeReporter) WriteRepositoryReport(info domain.RepositoryInfo, branches []domain.Branch, release *domain.Release) ([]string, error) {
	path, err := f.record("repo_" + info.Repo)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (f *fakeReporter) WriteSummaryReport(summary domain.AuditSummary) (string, error) {
	f.mu.Lock()
	f.summaries = append(f.summaries, summary)
	f.mu.Unlock()
	return f.record("summary")
}

func repoRefs(names ...string) []config.RepoRef {
	refs := make([]config.RepoRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, config.RepoRef{Owner: "acme", Repo: name})
	}
	return refs
}

func TestRun_DependabotResultsKeepInputOrder(t *testing.T) {
	gateway := &fakeGateway{
		dependabot: map[string]domain.DependabotStatus{
			"acme/a": {Owner: "acme", Repo: "a", Enabled: true, StatusText: "Enabled"},
			"acme/b": {Owner: "acme", Repo: "b", Enabled: false, StatusText: "Disabled/Not Found"},
			"acme/c": {Owner: "acme", Repo: "c", Enabled: true, StatusText: "Enabled"},
		},
	}
	auditor := audit.NewAuditor(gateway, nil, nil, nil, 3)

	result, err := auditor.Run(context.Background(), "", repoRefs("a", "b", "c"))
	require.NoError(t, err)

	require.Len(t, result.Dependabot, 3)
	assert.Equal(t, "a", result.Dependabot[0].Repo)
	assert.Equal(t, "b", result.Dependabot[1].Repo)
	assert.Equal(t, "c", result.Dependabot[2].Repo)
	assert.True(t, result.Dependabot[0].Enabled)
	assert.False(t, result.Dependabot[1].Enabled)
}

func TestRun_WorkerPoolIsBounded(t *testing.T) {
	gateway := &fakeGateway{}
	auditor := audit.NewAuditor(gateway, nil, nil, nil, 2)

	_, err := auditor.Run(context.Background(), "", repoRefs("a", "b", "c", "d", "e", "f"))
	require.NoError(t, err)

	assert.LessOrEqual(t, gateway.maxInFlight.Load(), int32(2))
}

func TestRun_OrgAndTeamRolesAudited(t *testing.T) {
	gateway := &fakeGateway{
		orgMembers: []domain.OrgMember{
			{Organization: "acme", Username: "alice", Role: "admin"},
		},
		teams: []domain.Team{{Name: "Core", Slug: "core"}},
		teamMembers: map[string][]domain.TeamMembership{
			"core": {{Organization: "acme", TeamName: "Core", Username: "alice", Role: "maintainer"}},
		},
	}
	reporter := &fakeReporter{}
	auditor := audit.NewAuditor(gateway, reporter, nil, nil, 1)

	result, err := auditor.Run(context.Background(), "acme", nil)
	require.NoError(t, err)

	assert.True(t, result.Summary.OrgRolesAudited)
	assert.True(t, result.Summary.TeamRolesAudited)
	assert.Len(t, result.OrgMembers, 1)
	assert.Len(t, result.TeamRoles, 1)
	assert.Contains(t, reporter.written, "org_roles.csv")
	assert.Contains(t, reporter.written, "team_roles.csv")
	assert.Contains(t, reporter.written, "summary.csv")
}

func TestRun_OrgRolesFailureDegradesSummary(t *testing.T) {
	gateway := &fakeGateway{
		orgMembersErr: errors.New("forbidden"),
		teams:         []domain.Team{{Name: "Core", Slug: "core"}},
		teamMembers: map[string][]domain.TeamMembership{
			"core": {{Organization: "acme", TeamName: "Core", Username: "bob", Role: "member"}},
		},
	}
	auditor := audit.NewAuditor(gateway, &fakeReporter{}, nil, nil, 1)

	result, err := auditor.Run(context.Background(), "acme", nil)
	require.NoError(t, err)

	assert.False(t, result.Summary.OrgRolesAudited)
	assert.True(t, result.Summary.TeamRolesAudited)
	assert.Contains(t, result.Summary.RecommendedActions,
		"Action: Verify GitHub token permissions ('read:org') and organization membership to audit roles.")
}

func TestRun_UnreadableTeamSkippedOthersKept(t *testing.T) {
	gateway := &fakeGateway{
		teams: []domain.Team{
			{Name: "Core", Slug: "core"},
			{Name: "Ops", Slug: "ops"},
		},
		teamMembersErr: map[string]error{"core": errors.New("forbidden")},
		teamMembers: map[string][]domain.TeamMembership{
			"ops": {{Organization: "acme", TeamName: "Ops", Username: "carol", Role: "member"}},
		},
	}
	auditor := audit.NewAuditor(gateway, nil, nil, nil, 1)

	result, err := auditor.Run(context.Background(), "acme", nil)
	require.NoError(t, err)

	require.Len(t, result.TeamRoles, 1)
	assert.Equal(t, "Ops", result.TeamRoles[0].TeamName)
}

func TestRun_RepositoryInventoryReported(t *testing.T) {
	gateway := &fakeGateway{
		repos: map[string]*domain.RepositoryInfo{
			"acme/a": {Owner: "acme", Repo: "a", DefaultBranch: "main"},
		},
		branches: map[string][]domain.Branch{
			"acme/a": {{Repository: "acme/a", Name: "main", Protected: true}},
		},
	}
	reporter := &fakeReporter{}
	auditor := audit.NewAuditor(gateway, reporter, nil, nil, 1)

	result, err := auditor.Run(context.Background(), "", repoRefs("a"))
	require.NoError(t, err)

	assert.Contains(t, result.ReportPaths, "repo_a.csv")
}

func TestRun_SummaryCoverage(t *testing.T) {
	gateway := &fakeGateway{
		dependabot: map[string]domain.DependabotStatus{
			"acme/a": {Owner: "acme", Repo: "a", Enabled: true},
			"acme/b": {Owner: "acme", Repo: "b", Enabled: false},
		},
	}
	reporter := &fakeReporter{}
	auditor := audit.NewAuditor(gateway, reporter, nil, nil, 1)

	result, err := auditor.Run(context.Background(), "acme", repoRefs("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.ReposChecked)
	assert.Equal(t, 1, result.Summary.DependabotEnabled)
	assert.InDelta(t, 50.0, result.Summary.DependabotCoverage, 0.001)
	require.Len(t, reporter.summaries, 1)
}
