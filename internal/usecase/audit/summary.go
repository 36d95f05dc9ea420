package audit

import (
	"github.com/assetze/ghaudit/internal/domain"
)

// Summarize derives the security posture roll-up from the section results.
func Summarize(org string, dependabot []domain.DependabotStatus, orgRolesOK, teamRolesOK bool) domain.AuditSummary {
	summary := domain.AuditSummary{
		Organization:     org,
		ReposChecked:     len(dependabot),
		OrgRolesAudited:  orgRolesOK,
		TeamRolesAudited: teamRolesOK,
	}

	for _, status := range dependabot {
		if status.Enabled {
			summary.DependabotEnabled++
		}
	}
	if summary.ReposChecked > 0 {
		summary.DependabotCoverage = float64(summary.DependabotEnabled) / float64(summary.ReposChecked) * 100
	}

	if summary.ReposChecked > 0 && summary.DependabotCoverage < 100 {
		summary.RecommendedActions = append(summary.RecommendedActions,
			"Action: Improve Dependabot coverage.")
	}
	if !orgRolesOK || !teamRolesOK {
		summary.RecommendedActions = append(summary.RecommendedActions,
			"Action: Verify GitHub token permissions ('read:org') and organization membership to audit roles.")
	}
	if len(summary.RecommendedActions) == 0 {
		summary.RecommendedActions = append(summary.RecommendedActions,
			"Current posture appears well-audited based on checks performed.")
	}

	return summary
}
