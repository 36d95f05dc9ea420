package audit

import (
	"context"
	"sync"
	"time"

	"github.com/assetze/ghaudit/internal/adapter/transport"
	"github.com/assetze/ghaudit/internal/config"
	"github.com/assetze/ghaudit/internal/domain"
)

// Gateway is the outbound port for the GitHub data the audit needs.
type Gateway interface {
	DependabotStatus(ctx context.Context, owner, repo string) domain.DependabotStatus
	OrgMembers(ctx context.Context, org string) ([]domain.OrgMember, error)
	Teams(ctx context.Context, org string) ([]domain.Team, error)
	TeamMembers(ctx context.Context, org string, team domain.Team) ([]domain.TeamMembership, error)
	Repository(ctx context.Context, owner, repo string) (*domain.RepositoryInfo, error)
	Branches(ctx context.Context, owner, repo string) ([]domain.Branch, error)
	LatestRelease(ctx context.Context, owner, repo string) (*domain.Release, error)
}

// Reporter persists audit results as reports.
type Reporter interface {
	WriteDependabotReport(org string, results []domain.DependabotStatus) (string, error)
	WriteOrgRolesReport(org string, members []domain.OrgMember) (string, error)
	WriteTeamRolesReport(org string, memberships []domain.TeamMembership) (string, error)
	WriteRepositoryReport(info domain.RepositoryInfo, branches []domain.Branch, release *domain.Release) ([]string, error)
	WriteSummaryReport(summary domain.AuditSummary) (string, error)
}

// Store persists audit history.
type Store interface {
	CreateRun(ctx context.Context, run StoreRun) error
	SaveDependabotResults(ctx context.Context, runID string, results []domain.DependabotStatus) error
	SaveSummary(ctx context.Context, runID string, summary domain.AuditSummary) error
	Close() error
}

// StoreRun is the persisted metadata of one audit run.
type StoreRun struct {
	ID           string
	Organization string
	StartedAt    time.Time
	FinishedAt   time.Time
	ReposChecked int
}

// Result aggregates everything one audit run produced.
type Result struct {
	Organization string
	Dependabot   []domain.DependabotStatus
	OrgMembers   []domain.OrgMember
	TeamRoles    []domain.TeamMembership
	Summary      domain.AuditSummary
	ReportPaths  []string
}

// Auditor runs the organization security posture audit: Dependabot coverage
// across the configured repositories, org and team role inventories, and a
// posture summary. Checks against distinct repositories are independent, so
// Dependabot status is fanned out over a bounded worker pool; the GitHub
// client's shared rate limiter is the only coupling between workers.
type Auditor struct {
	gateway  Gateway
	reporter Reporter
	store    Store
	logger   transport.Logger
	workers  int
	clock    func() time.Time
}

// NewAuditor constructs an Auditor. store may be nil to skip persistence.
func NewAuditor(gateway Gateway, reporter Reporter, store Store, logger transport.Logger, workers int) *Auditor {
	if logger == nil {
		logger = transport.NopLogger{}
	}
	if workers < 1 {
		workers = 1
	}
	return &Auditor{
		gateway:  gateway,
		reporter: reporter,
		store:    store,
		logger:   logger,
		workers:  workers,
		clock:    time.Now,
	}
}

// SetClock overrides the timestamp source (for testing).
func (a *Auditor) SetClock(clock func() time.Time) {
	a.clock = clock
}

// Run executes the full audit for an organization and a list of repositories.
// Individual failures degrade their own section; the audit as a whole only
// fails when nothing could be produced.
func (a *Auditor) Run(ctx context.Context, org string, repos []config.RepoRef) (*Result, error) {
	started := a.clock()
	result := &Result{Organization: org}

	result.Dependabot = a.checkDependabot(ctx, repos)
	if len(result.Dependabot) > 0 && a.reporter != nil {
		if path, err := a.reporter.WriteDependabotReport(org, result.Dependabot); err != nil {
			a.logger.LogWarning(ctx, "dependabot report failed", map[string]interface{}{"err": err.Error()})
		} else {
			result.ReportPaths = append(result.ReportPaths, path)
		}
	}

	orgRolesOK := false
	teamRolesOK := false
	if org != "" {
		result.OrgMembers, orgRolesOK = a.auditOrgRoles(ctx, org)
		result.TeamRoles, teamRolesOK = a.auditTeamRoles(ctx, org)
	}

	for _, ref := range repos {
		paths := a.auditRepository(ctx, ref)
		result.ReportPaths = append(result.ReportPaths, paths...)
	}

	result.Summary = Summarize(org, result.Dependabot, orgRolesOK, teamRolesOK)
	if a.reporter != nil {
		if path, err := a.reporter.WriteSummaryReport(result.Summary); err != nil {
			a.logger.LogWarning(ctx, "summary report failed", map[string]interface{}{"err": err.Error()})
		} else {
			result.ReportPaths = append(result.ReportPaths, path)
		}
	}

	if a.store != nil {
		a.persist(ctx, started, result)
	}

	return result, nil
}

// checkDependabot fans the per-repository checks out over the worker pool.
// Result order matches the input order regardless of completion order.
func (a *Auditor) checkDependabot(ctx context.Context, repos []config.RepoRef) []domain.DependabotStatus {
	if len(repos) == 0 {
		return nil
	}

	results := make([]domain.DependabotStatus, len(repos))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.gateway.DependabotStatus(ctx, repos[i].Owner, repos[i].Repo)
			}
		}()
	}

feed:
	for i := range repos {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for _, status := range results {
		a.logger.LogInfo(ctx, "dependabot status", map[string]interface{}{
			"repo":   status.Owner + "/" + status.Repo,
			"status": status.StatusText,
		})
	}
	return results
}

func (a *Auditor) auditOrgRoles(ctx context.Context, org string) ([]domain.OrgMember, bool) {
	members, err := a.gateway.OrgMembers(ctx, org)
	if err != nil {
		a.logger.LogWarning(ctx, "org roles audit failed", map[string]interface{}{"org": org, "err": err.Error()})
		return nil, false
	}
	if len(members) == 0 {
		return nil, false
	}

	if a.reporter != nil {
		if _, err := a.reporter.WriteOrgRolesReport(org, members); err != nil {
			a.logger.LogWarning(ctx, "org roles report failed", map[string]interface{}{"err": err.Error()})
			return members, false
		}
	}
	return members, true
}

func (a *Auditor) auditTeamRoles(ctx context.Context, org string) ([]domain.TeamMembership, bool) {
	teams, err := a.gateway.Teams(ctx, org)
	if err != nil {
		a.logger.LogWarning(ctx, "team roles audit failed", map[string]interface{}{"org": org, "err": err.Error()})
		return nil, false
	}

	var memberships []domain.TeamMembership
	for _, team := range teams {
		teamMembers, err := a.gateway.TeamMembers(ctx, org, team)
		if err != nil {
			// One unreadable team does not abort the rest.
			a.logger.LogWarning(ctx, "team members fetch failed", map[string]interface{}{
				"org":  org,
				"team": team.Slug,
				"err":  err.Error(),
			})
			continue
		}
		memberships = append(memberships, teamMembers...)
	}

	if len(memberships) == 0 {
		return nil, false
	}

	if a.reporter != nil {
		if _, err := a.reporter.WriteTeamRolesReport(org, memberships); err != nil {
			a.logger.LogWarning(ctx, "team roles report failed", map[string]interface{}{"err": err.Error()})
			return memberships, false
		}
	}
	return memberships, true
}

func (a *Auditor) auditRepository(ctx context.Context, ref config.RepoRef) []string {
	info, err := a.gateway.Repository(ctx, ref.Owner, ref.Repo)
	if err != nil {
		a.logger.LogWarning(ctx, "repository audit failed", map[string]interface{}{
			"repo": ref.Owner + "/" + ref.Repo,
			"err":  err.Error(),
		})
		return nil
	}

	branches, err := a.gateway.Branches(ctx, ref.Owner, ref.Repo)
	if err != nil {
		a.logger.LogWarning(ctx, "branch listing failed", map[string]interface{}{
			"repo": ref.Owner + "/" + ref.Repo,
			"err":  err.Error(),
		})
	}

	release, err := a.gateway.LatestRelease(ctx, ref.Owner, ref.Repo)
	if err != nil {
		a.logger.LogWarning(ctx, "release lookup failed", map[string]interface{}{
			"repo": ref.Owner + "/" + ref.Repo,
			"err":  err.Error(),
		})
	}

	if a.reporter == nil {
		return nil
	}
	paths, err := a.reporter.WriteRepositoryReport(*info, branches, release)
	if err != nil {
		a.logger.LogWarning(ctx, "repository report failed", map[string]interface{}{"err": err.Error()})
		return nil
	}
	return paths
}

func (a *Auditor) persist(ctx context.Context, started time.Time, result *Result) {
	runID := started.UTC().Format("20060102150405") + "-" + result.Organization
	run := StoreRun{
		ID:           runID,
		Organization: result.Organization,
		StartedAt:    started,
		FinishedAt:   a.clock(),
		ReposChecked: len(result.Dependabot),
	}
	if err := a.store.CreateRun(ctx, run); err != nil {
		a.logger.LogWarning(ctx, "persist run failed", map[string]interface{}{"err": err.Error()})
		return
	}
	if err := a.store.SaveDependabotResults(ctx, runID, result.Dependabot); err != nil {
		a.logger.LogWarning(ctx, "persist dependabot results failed", map[string]interface{}{"err": err.Error()})
	}
	if err := a.store.SaveSummary(ctx, runID, result.Summary); err != nil {
		a.logger.LogWarning(ctx, "persist summary failed", map[string]interface{}{"err": err.Error()})
	}
}
