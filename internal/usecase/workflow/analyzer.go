package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetze/ghaudit/internal/domain"
)

const analysisSystemPrompt = "You are an AI assistant analyzing GitHub token verification results. " +
	"Summarize the outcome concisely. State if the token is valid or invalid. " +
	"If valid, list the scopes. If invalid, provide a brief, clear reason. " +
	"Keep the summary to 1-3 sentences."

const remediationSystemPrompt = "You are an AI assistant providing practical remediation advice for GitHub token issues. " +
	"Based on the error message and status code, suggest concrete, actionable steps to resolve the issue. " +
	"Focus on common problems like expiration, incorrect scopes, or network issues. " +
	"Provide 2-4 distinct suggestions."

const noRemediationNeeded = "Token is valid. No remediation needed."

// analyze asks the completer to summarize a verification result. A completer
// failure is embedded in the returned text so the workflow always produces
// an analysis.
func (r *Runner) analyze(ctx context.Context, result domain.VerificationResult) string {
	user := fmt.Sprintf("GitHub Token Verification Result:\nValid: %t\nMessage: %s\nScopes: %s\nStatus Code: %d",
		result.Valid, result.Message, formatScopes(result.Scopes), result.StatusCode)

	analysis, err := r.completer.Complete(ctx, analysisSystemPrompt, user)
	if err != nil {
		r.logger.LogWarning(ctx, "analysis failed", map[string]interface{}{"err": err.Error()})
		return fmt.Sprintf("Error during analysis: %v", err)
	}
	return analysis
}

// remediate asks the completer for remediation steps. Callers only reach
// this for invalid tokens; the valid case is answered without an LLM call.
func (r *Runner) remediate(ctx context.Context, result domain.VerificationResult) string {
	if result.Valid {
		return noRemediationNeeded
	}

	user := fmt.Sprintf("GitHub Token Invalid. Error Message: '%s'. Status Code: %d. "+
		"What are the best steps to fix this token issue?", result.Message, result.StatusCode)

	suggestions, err := r.completer.Complete(ctx, remediationSystemPrompt, user)
	if err != nil {
		r.logger.LogWarning(ctx, "remediation failed", map[string]interface{}{"err": err.Error()})
		return fmt.Sprintf("Error generating suggestions: %v", err)
	}
	return suggestions
}

func formatScopes(scopes []string) string {
	if len(scopes) == 0 {
		return "[]"
	}
	return "[" + strings.Join(scopes, ", ") + "]"
}
