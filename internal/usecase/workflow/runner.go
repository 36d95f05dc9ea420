package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/assetze/ghaudit/internal/adapter/transport"
	"github.com/assetze/ghaudit/internal/domain"
)

// ErrEmptyToken is returned when Run is called without a token. No network
// call is made in that case.
var ErrEmptyToken = errors.New("no token provided")

// Verifier checks a token against the GitHub API. Failures are classified
// into the result, never returned as errors.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) domain.VerificationResult
}

// Completer is the outbound port for LLM text completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Recorder persists verification outcomes. The token itself is never passed.
type Recorder interface {
	SaveTokenCheck(ctx context.Context, checkedAt time.Time, result domain.VerificationResult) error
}

// Runner executes the token verification workflow: verify, analyze, and
// suggest remediation when the token turns out invalid. It adds no retries
// or timeouts of its own; those live in the adapters it calls.
type Runner struct {
	verifier  Verifier
	completer Completer
	recorder  Recorder
	logger    transport.Logger
	clock     func() time.Time
}

// NewRunner constructs a Runner with its collaborators injected.
func NewRunner(verifier Verifier, completer Completer, logger transport.Logger) *Runner {
	if logger == nil {
		logger = transport.NopLogger{}
	}
	return &Runner{
		verifier:  verifier,
		completer: completer,
		logger:    logger,
		clock:     time.Now,
	}
}

// SetRecorder enables persistence of verification outcomes. A nil recorder
// leaves persistence off.
func (r *Runner) SetRecorder(recorder Recorder) {
	r.recorder = recorder
}

// Run verifies a token and carries the state through analysis and, for
// invalid tokens, remediation. A valid token ends the workflow after
// analysis without consulting the remediation step.
func (r *Runner) Run(ctx context.Context, token string) (domain.WorkflowState, error) {
	if token == "" {
		return domain.WorkflowState{}, ErrEmptyToken
	}

	state := domain.WorkflowState{Token: token}

	r.logger.LogInfo(ctx, "workflow step", map[string]interface{}{"step": "verify_token"})
	result := r.verifier.VerifyToken(ctx, token)
	state.VerificationResult = &result

	if r.recorder != nil {
		if err := r.recorder.SaveTokenCheck(ctx, r.clock(), result); err != nil {
			r.logger.LogWarning(ctx, "failed to record token check", map[string]interface{}{"error": err.Error()})
		}
	}

	r.logger.LogInfo(ctx, "workflow step", map[string]interface{}{"step": "analyze_result"})
	state.AnalysisMessage = r.analyze(ctx, result)

	if result.Valid {
		// Valid tokens end here; the advisor answers without an LLM call.
		state.RemediationSuggestions = noRemediationNeeded
		return state, nil
	}

	r.logger.LogInfo(ctx, "workflow step", map[string]interface{}{"step": "suggest_remediation"})
	state.RemediationSuggestions = r.remediate(ctx, result)

	return state, nil
}
