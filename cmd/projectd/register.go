package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectd/internal/registry"
)

var (
	// register command flags
	registerAliases     []string
	registerMarkers     []string
	registerRemotes     []string
	registerTags        []string
	registerDescription string
)

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(unregisterCmd)
	rootCmd.AddCommand(aliasCmd)

	registerCmd.Flags().StringSliceVar(&registerAliases, "alias", nil, "Alternate name for the project (repeatable)")
	registerCmd.Flags().StringSliceVar(&registerMarkers, "marker", nil, "Path relative to the project root that identifies the workspace (repeatable)")
	registerCmd.Flags().StringSliceVar(&registerRemotes, "remote", nil, "VCS remote URL associated with the project (repeatable)")
	registerCmd.Flags().StringSliceVar(&registerTags, "tag", nil, "Freeform tag (repeatable)")
	registerCmd.Flags().StringVar(&registerDescription, "description", "", "Short project description")
}

var registerCmd = &cobra.Command{
	Use:   "register <name> <path>",
	Short: "Register a project",
	Long: `Register a project so it can be detected and resolved.

The path is resolved to an absolute path. Names and aliases must not
collide with any existing project.

Examples:
  projectd register payment-service ~/src/payment-service
  projectd register payment-service ~/src/payment-service \
    --alias pay --marker go.mod --marker cmd/payments \
    --remote git@github.com:acme/payment-service.git`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister <id>",
	Short: "Remove a project from the registry",
	Long: `Remove a project from the registry by ID. If it was the active
project, the active context is cleared.

Examples:
  projectd unregister 2f1c8a4e-...`,
	Args: cobra.ExactArgs(1),
	RunE: runUnregister,
}

var aliasCmd = &cobra.Command{
	Use:   "alias <id> <alias>",
	Short: "Add an alias to a project",
	Long: `Add an alias to an existing project. Aliases are case-insensitive
and must be unique across the registry. Adding an alias the project
already has is a no-op.

Examples:
  projectd alias 2f1c8a4e-... pay`,
	Args: cobra.ExactArgs(2),
	RunE: runAlias,
}

func runRegister(cmd *cobra.Command, args []string) error {
	_, store, err := setupStore()
	if err != nil {
		return err
	}

	path, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	rec, err := store.AddProject(registry.AddProjectParams{
		Name:        args[0],
		Path:        path,
		Aliases:     registerAliases,
		Markers:     registerMarkers,
		VCSRemotes:  registerRemotes,
		Tags:        registerTags,
		Description: registerDescription,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s\n", rec.Name)
	fmt.Printf("ID:   %s\n", rec.ID)
	fmt.Printf("Path: %s\n", rec.Path)
	return nil
}

func runUnregister(cmd *cobra.Command, args []string) error {
	_, store, err := setupStore()
	if err != nil {
		return err
	}

	if err := store.RemoveProject(args[0]); err != nil {
		return err
	}

	fmt.Printf("Unregistered %s\n", args[0])
	return nil
}

func runAlias(cmd *cobra.Command, args []string) error {
	_, store, err := setupStore()
	if err != nil {
		return err
	}

	if err := store.AddAlias(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Added alias %q to %s\n", args[1], args[0])
	return nil
}
