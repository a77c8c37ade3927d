package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectd/internal/config"
	"github.com/fyrsmithlabs/projectd/internal/detect"
	"github.com/fyrsmithlabs/projectd/internal/registry"
)

var (
	// context command flags
	contextFollow  bool
	contextVerbose bool
)

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.Flags().BoolVar(&contextFollow, "follow", false, "Keep running and re-print when the registry changes")
	contextCmd.Flags().BoolVar(&contextVerbose, "verbose", false, "Show aliases, markers, remotes, and timestamps")
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the active project context",
	Long: `Show which project is currently active, and warn when the working
directory points somewhere else.

Examples:
  # Show the active project
  projectd context

  # Show everything the registry knows about it
  projectd context --verbose

  # Watch for context switches from other terminals
  projectd context --follow`,
	RunE: runContext,
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := registry.NewStore(cfg.Registry.Path)
	if err != nil {
		return err
	}
	detector := detect.New(detect.Config{
		FuzzyFloor:   cfg.Detection.FuzzyFloor,
		AmbiguityGap: cfg.Detection.AmbiguityGap,
	}, logger)

	if err := printContext(cmd, cfg, store, detector); err != nil {
		return err
	}
	if !contextFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes, err := store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch registry: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			fmt.Println()
			if err := printContext(cmd, cfg, store, detector); err != nil {
				return err
			}
		}
	}
}

func printContext(cmd *cobra.Command, cfg *config.Config, store *registry.Store, detector *detect.Detector) error {
	reg, err := store.Load()
	if err != nil {
		return err
	}

	active := reg.ActiveProject()
	if active == nil {
		fmt.Println("No active project. Use 'projectd switch <name>' to set one.")
		return nil
	}

	fmt.Printf("Active project: %s\n", active.Name)
	fmt.Printf("ID:   %s\n", active.ID)
	fmt.Printf("Path: %s\n", active.Path)
	if contextVerbose {
		if len(active.Aliases) > 0 {
			fmt.Printf("Aliases: %s\n", strings.Join(active.Aliases, ", "))
		}
		if len(active.Markers) > 0 {
			fmt.Printf("Markers: %s\n", strings.Join(active.Markers, ", "))
		}
		if len(active.VCSRemotes) > 0 {
			fmt.Printf("Remotes: %s\n", strings.Join(active.VCSRemotes, ", "))
		}
		if len(active.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(active.Tags, ", "))
		}
		if active.Description != "" {
			fmt.Printf("Description: %s\n", active.Description)
		}
		fmt.Printf("Last active: %s\n", active.LastActiveAt.Format(time.RFC3339))
	}

	// Warn when the working directory confidently points at a different
	// project than the one marked active.
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	detection := detector.Detect(cmd.Context(), detect.Context{CWD: cwd}, reg)
	top, ok := detection.Top()
	if ok && top.ProjectID != active.ID && top.Confidence >= cfg.Validation.TrustThreshold {
		if rec, found := reg.Project(top.ProjectID); found {
			fmt.Fprintf(os.Stderr, "Warning: working directory looks like %q (%.2f), not the active project\n", rec.Name, top.Confidence)
		}
	}

	return nil
}
