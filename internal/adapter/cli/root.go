package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetze/ghaudit/internal/config"
	"github.com/assetze/ghaudit/internal/domain"
	"github.com/assetze/ghaudit/internal/usecase/audit"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// WorkflowRunner runs the token verification workflow.
type WorkflowRunner interface {
	Run(ctx context.Context, token string) (domain.WorkflowState, error)
}

// AuditRunner runs the organization security posture audit.
type AuditRunner interface {
	Run(ctx context.Context, org string, repos []config.RepoRef) (*audit.Result, error)
}

// APIServer serves the verification workflow over HTTP.
type APIServer interface {
	Start(ctx context.Context, addr string) error
}

// DiagramRenderer writes the workflow diagram to disk.
type DiagramRenderer interface {
	Render() (string, error)
}

// Arguments encapsulates IO injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
	InReader  *os.File
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Workflow            WorkflowRunner
	Auditor             AuditRunner
	Server              APIServer
	Diagram             DiagramRenderer
	Args                Arguments
	DefaultToken        string
	DefaultOrganization string
	DefaultRepositories []config.RepoRef
	DefaultAddr         string
	Version             string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "ghaudit",
		Short: "GitHub organization security posture auditor",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(verifyCommand(deps))
	root.AddCommand(auditCommand(deps))
	root.AddCommand(serveCommand(deps))
	root.AddCommand(diagramCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func verifyCommand(deps Dependencies) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a GitHub token and explain the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := strings.TrimSpace(token)
			if resolved == "" {
				resolved = strings.TrimSpace(deps.DefaultToken)
			}
			if resolved == "" {
				prompted, err := promptToken(deps.Args.InReader, cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				resolved = strings.TrimSpace(prompted)
			}
			if resolved == "" {
				return fmt.Errorf("no token provided; use --token or set GITHUB_TOKEN")
			}

			state, err := deps.Workflow.Run(cmd.Context(), resolved)
			if err != nil {
				return err
			}

			printWorkflowState(cmd.OutOrStdout(), state)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token to verify (falls back to GITHUB_TOKEN, then a prompt)")
	return cmd
}

func printWorkflowState(out io.Writer, state domain.WorkflowState) {
	result := state.VerificationResult
	if result == nil {
		fmt.Fprintln(out, "No verification result produced.")
		return
	}

	fmt.Fprintf(out, "Token valid: %t\n", result.Valid)
	fmt.Fprintf(out, "Scopes: %s\n", strings.Join(result.Scopes, ", "))
	fmt.Fprintf(out, "Status code: %d\n", result.StatusCode)
	fmt.Fprintf(out, "Message: %s\n", result.Message)
	fmt.Fprintf(out, "\nAnalysis:\n%s\n", state.AnalysisMessage)
	if state.RemediationSuggestions != "" {
		fmt.Fprintf(out, "\nRemediation:\n%s\n", state.RemediationSuggestions)
	}
}

func auditCommand(deps Dependencies) *cobra.Command {
	var org string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit Dependabot coverage, org roles, and repository posture",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := strings.TrimSpace(org)
			if resolved == "" {
				resolved = deps.DefaultOrganization
			}
			if resolved == "" && len(deps.DefaultRepositories) == 0 {
				return fmt.Errorf("nothing to audit; set --org or configure repositories")
			}

			result, err := deps.Auditor.Run(cmd.Context(), resolved, deps.DefaultRepositories)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary := result.Summary
			fmt.Fprintf(out, "Organization: %s\n", summary.Organization)
			fmt.Fprintf(out, "Repositories checked: %d\n", summary.ReposChecked)
			if summary.ReposChecked > 0 {
				fmt.Fprintf(out, "Dependabot coverage: %d/%d (%.2f%%)\n",
					summary.DependabotEnabled, summary.ReposChecked, summary.DependabotCoverage)
			}
			fmt.Fprintf(out, "Org roles audited: %t\n", summary.OrgRolesAudited)
			fmt.Fprintf(out, "Team roles audited: %t\n", summary.TeamRolesAudited)
			for _, action := range summary.RecommendedActions {
				fmt.Fprintf(out, "  %s\n", action)
			}
			if len(result.ReportPaths) > 0 {
				fmt.Fprintln(out, "\nReports:")
				for _, path := range result.ReportPaths {
					fmt.Fprintf(out, "  %s\n", path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "Organization to audit (falls back to configuration)")
	return cmd
}

func serveCommand(deps Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the token verification workflow over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := addr
			if resolved == "" {
				resolved = deps.DefaultAddr
			}
			return deps.Server.Start(cmd.Context(), resolved)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (falls back to configuration)")
	return cmd
}

func diagramCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram",
		Short: "Render the workflow diagram to an HTML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := deps.Diagram.Render()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workflow diagram saved to %s\n", path)
			return nil
		},
	}
}
