package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectd/internal/safeguard"
)

var (
	// audit command flags
	auditLimit int
	auditJSON  bool
	auditKeep  int
	auditActor string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTrimCmd)

	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Maximum number of events to show (0 for all)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output events as JSON")

	auditTrimCmd.Flags().IntVar(&auditKeep, "keep", 1000, "Number of most recent events to keep")
	auditTrimCmd.Flags().StringVar(&auditActor, "actor", "", "Who is trimming; recorded in the trim event")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the resolution audit trail",
	Long: `Show recent resolution decisions, newest first.

Examples:
  projectd audit
  projectd audit --limit 5
  projectd audit --json`,
	RunE: runAudit,
}

var auditTrimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Trim the audit log",
	Long: `Discard all but the most recent events. The trim itself is recorded
as an audit event.

Examples:
  projectd audit trim --keep 500`,
	RunE: runAuditTrim,
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	log, err := safeguard.NewAuditLog(cfg.Audit.Path)
	if err != nil {
		return err
	}

	events, err := log.ReadEvents(auditLimit)
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("No audit events.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tPROJECT\tSTATUS\tDECISION")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ev.Timestamp.Local().Format(time.RFC3339),
			ev.Operation,
			ev.Validation.ResolvedProjectID,
			ev.Validation.Status,
			ev.Decision)
	}
	return w.Flush()
}

func runAuditTrim(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	log, err := safeguard.NewAuditLog(cfg.Audit.Path)
	if err != nil {
		return err
	}

	if err := log.Trim(auditKeep, auditActor); err != nil {
		return err
	}

	fmt.Printf("Trimmed audit log to the %d most recent events\n", auditKeep)
	return nil
}
