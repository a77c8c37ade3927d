package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectd/internal/registry"
	"github.com/fyrsmithlabs/projectd/internal/resolver"
	"github.com/fyrsmithlabs/projectd/internal/safeguard"
)

var (
	// resolve command flags
	resolveOperation string
	resolveProject   string
	resolveMention   string
	resolveCWD       string
	resolveRemote    string
	resolveActor     string
	resolveYes       bool
	resolveJSON      bool
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveOperation, "operation", "", "Label for the operation being resolved (required)")
	resolveCmd.Flags().StringVar(&resolveProject, "project", "", "Project ID the caller claims to be targeting")
	resolveCmd.Flags().StringVar(&resolveMention, "mention", "", "Project name mentioned in the caller's request")
	resolveCmd.Flags().StringVar(&resolveCWD, "cwd", "", "Working directory to detect from (defaults to current directory)")
	resolveCmd.Flags().StringVar(&resolveRemote, "remote", "", "VCS remote URL override (detected from the working directory by default)")
	resolveCmd.Flags().StringVar(&resolveActor, "actor", "", "Who is asking; recorded in the audit trail")
	resolveCmd.Flags().BoolVar(&resolveYes, "yes", false, "Answer yes to any confirmation prompt")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output the full resolution as JSON")
	_ = resolveCmd.MarkFlagRequired("operation")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve which project an operation targets",
	Long: `Resolve which project an operation targets and check whether it may
proceed under the configured safeguard policy.

The exit status is non-zero when the operation is blocked.

Examples:
  # Resolve from the current directory
  projectd resolve --operation deploy

  # Claim a project and let validation check it
  projectd resolve --operation deploy --project 2f1c... --mention payment-service

  # Non-interactive use
  projectd resolve --operation deploy --yes --json`,
	RunE: runResolve,
}

// resolveOutput is the JSON shape printed with --json.
type resolveOutput struct {
	ProjectID    string              `json:"project_id,omitempty"`
	Confidence   float64             `json:"confidence"`
	Decision     safeguard.Decision  `json:"decision"`
	Status       string              `json:"status"`
	Warnings     []string            `json:"warnings,omitempty"`
	Candidates   []candidateOutput   `json:"candidates,omitempty"`
	AuditEventID string              `json:"audit_event_id"`
}

type candidateOutput struct {
	ProjectID  string  `json:"project_id"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Evidence   string  `json:"evidence,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	_, logger, res, store, _, err := setupEngine()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cwd := resolveCWD
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	confirm := safeguard.ConfirmFunc(stdinConfirm)
	if resolveYes {
		confirm = alwaysConfirm
	}

	resolution, err := res.Resolve(cmd.Context(), resolver.Request{
		Operation:       resolveOperation,
		CWD:             cwd,
		VCSRemote:       resolveRemote,
		MentionedName:   resolveMention,
		StatedProjectID: resolveProject,
		Actor:           resolveActor,
		Confirm:         confirm,
	})
	if err != nil {
		return err
	}

	if resolveJSON {
		if err := printResolutionJSON(resolution); err != nil {
			return err
		}
	} else {
		printResolution(resolution, store)
	}

	if !resolution.Allowed() {
		return fmt.Errorf("operation %q blocked", resolveOperation)
	}
	return nil
}

func printResolutionJSON(res *resolver.Resolution) error {
	out := resolveOutput{
		ProjectID:    res.ProjectID,
		Confidence:   res.Confidence,
		Decision:     res.Decision,
		Status:       string(res.Validation.Status),
		Warnings:     res.Warnings,
		AuditEventID: res.AuditEventID,
	}
	for _, c := range res.Detection.Candidates {
		out.Candidates = append(out.Candidates, candidateOutput{
			ProjectID:  c.ProjectID,
			Confidence: c.Confidence,
			Method:     string(c.Method),
			Evidence:   c.Evidence,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printResolution(res *resolver.Resolution, store *registry.Store) {
	name := res.ProjectID
	if reg, err := store.Load(); err == nil {
		if rec, ok := reg.Project(res.ProjectID); ok {
			name = fmt.Sprintf("%s (%s)", rec.Name, rec.ID)
		}
	}

	if res.ProjectID == "" {
		fmt.Println("Project: <unresolved>")
	} else {
		fmt.Printf("Project: %s\n", name)
		fmt.Printf("Confidence: %.2f\n", res.Confidence)
	}
	fmt.Printf("Status: %s\n", res.Validation.Status)
	fmt.Printf("Decision: %s\n", res.Decision)

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
