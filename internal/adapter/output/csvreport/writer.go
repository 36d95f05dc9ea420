package csvreport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/assetze/ghaudit/internal/domain"
)

type clock func() string

// Writer renders audit results into timestamped CSV files.
type Writer struct {
	dir    string
	prefix string
	now    clock
	caser  cases.Caser
}

// NewWriter constructs a CSV writer with a timestamp supplier.
func NewWriter(dir, prefix string, now clock) *Writer {
	return &Writer{
		dir:    dir,
		prefix: prefix,
		now:    now,
		caser:  cases.Title(language.English),
	}
}

// DefaultClock returns timestamps in the report filename format.
func DefaultClock() string {
	return time.Now().Format("20060102_150405")
}

// WriteDependabotReport writes the per-repository Dependabot status rows.
func (w *Writer) WriteDependabotReport(org string, results []domain.DependabotStatus) (string, error) {
	filename := fmt.Sprintf("%s_dependabot_status_%s.csv", sanitise(w.prefix), w.now())

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Owner,
			res.Repo,
			res.StatusText,
			res.Message,
			strconv.Itoa(res.StatusCode),
		})
	}

	headers := []string{"Organization", "Repository Name", "Dependabot Status", "Detailed Message", "HTTP Status Code"}
	return w.writeFile(filename, headers, rows)
}

// WriteOrgRolesReport writes organization members with their org-level roles.
func (w *Writer) WriteOrgRolesReport(org string, members []domain.OrgMember) (string, error) {
	filename := fmt.Sprintf("%s_%s_org_roles_%s.csv", sanitise(w.prefix), sanitise(org), w.now())

	rows := make([][]string, 0, len(members))
	for _, member := range members {
		rows = append(rows, []string{member.Organization, member.Username, member.Role})
	}

	headers := []string{"Organization", "Username", "Role"}
	return w.writeFile(filename, headers, rows)
}

// WriteTeamRolesReport writes team memberships with per-team roles.
func (w *Writer) WriteTeamRolesReport(org string, memberships []domain.TeamMembership) (string, error) {
	filename := fmt.Sprintf("%s_%s_team_roles_%s.csv", sanitise(w.prefix), sanitise(org), w.now())

	rows := make([][]string, 0, len(memberships))
	for _, membership := range memberships {
		rows = append(rows, []string{
			membership.Organization,
			membership.TeamName,
			membership.Username,
			membership.Role,
		})
	}

	headers := []string{"Organization", "Team Name", "Username", "Team Role"}
	return w.writeFile(filename, headers, rows)
}

// WriteRepositoryReport writes the branching and versioning snapshot of one
// repository: repo info, branches, and the latest release when there is one.
func (w *Writer) WriteRepositoryReport(info domain.RepositoryInfo, branches []domain.Branch, release *domain.Release) ([]string, error) {
	var paths []string
	fullName := info.Owner + "/" + info.Repo
	base := sanitise(info.Owner) + "_" + sanitise(info.Repo)

	infoHeaders := []string{
		"Repository", "Default Branch", "Latest Commit SHA", "Latest Commit Message",
		"Latest Commit Date", "Public", "Description", "Created At", "Last Updated At",
		"Pushed At", "License",
	}
	infoRow := []string{
		fullName,
		info.DefaultBranch,
		info.LatestCommitSHA,
		info.LatestCommitTitle,
		formatTime(info.LatestCommitDate),
		strconv.FormatBool(!info.Private),
		info.Description,
		formatTime(info.CreatedAt),
		formatTime(info.UpdatedAt),
		formatTime(info.PushedAt),
		info.License,
	}
	path, err := w.writeFile(base+"_repo_info.csv", infoHeaders, [][]string{infoRow})
	if err != nil {
		return nil, err
	}
	paths = append(paths, path)

	if release != nil {
		releaseHeaders := []string{
			"Repository", "Release Name", "Tag Name", "Published At", "Author",
			"Is Pre-release", "Release URL",
		}
		releaseRow := []string{
			fullName,
			release.Name,
			release.TagName,
			formatTime(release.PublishedAt),
			release.Author,
			strconv.FormatBool(release.Prerelease),
			release.URL,
		}
		path, err := w.writeFile(base+"_latest_release.csv", releaseHeaders, [][]string{releaseRow})
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	if len(branches) > 0 {
		branchHeaders := []string{"Repository", "Branch Name", "Latest Commit SHA", "Protected"}
		rows := make([][]string, 0, len(branches))
		for _, branch := range branches {
			rows = append(rows, []string{
				branch.Repository,
				branch.Name,
				branch.CommitSHA,
				strconv.FormatBool(branch.Protected),
			})
		}
		path, err := w.writeFile(base+"_branches.csv", branchHeaders, rows)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// WriteSummaryReport writes the single-row security posture summary.
func (w *Writer) WriteSummaryReport(summary domain.AuditSummary) (string, error) {
	filename := fmt.Sprintf("%s_%s_security_summary_%s.csv",
		sanitise(w.prefix), sanitise(summary.Organization), w.now())

	headers := []string{
		"Organization", "Dependabot Coverage", "Org Roles Auditable",
		"Team Roles Auditable", "Recommended Actions",
	}
	row := []string{
		summary.Organization,
		coverageText(summary),
		w.yesNo(summary.OrgRolesAudited),
		w.yesNo(summary.TeamRolesAudited),
		strings.Join(summary.RecommendedActions, "; "),
	}
	return w.writeFile(filename, headers, [][]string{row})
}

func coverageText(summary domain.AuditSummary) string {
	if summary.ReposChecked == 0 {
		return "No repositories were checked for Dependabot status."
	}
	text := fmt.Sprintf("%d/%d repositories have Dependabot enabled (%.2f%% coverage).",
		summary.DependabotEnabled, summary.ReposChecked, summary.DependabotCoverage)
	if summary.DependabotCoverage < 100 {
		text += " Consider enabling Dependabot on all relevant repositories."
	} else {
		text += " Excellent coverage!"
	}
	return text
}

func (w *Writer) yesNo(value bool) string {
	if value {
		return w.caser.String("yes")
	}
	return w.caser.String("no")
}

func (w *Writer) writeFile(filename string, headers []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv rows: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	return path, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
