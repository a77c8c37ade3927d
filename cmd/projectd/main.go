// Package main implements the projectd CLI for resolving which project an
// operation targets and managing the project registry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectd/internal/config"
	"github.com/fyrsmithlabs/projectd/internal/logging"
	"github.com/fyrsmithlabs/projectd/internal/registry"
	"github.com/fyrsmithlabs/projectd/internal/resolver"
	"github.com/fyrsmithlabs/projectd/internal/safeguard"
)

var (
	// configPath overrides the default config file location
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "projectd",
	Short: "Resolve which project an operation targets",
	Long: `projectd answers "which project does this operation apply to, and may
it proceed?" for tools that work across many projects at once.

It keeps a registry of known projects, detects the active one from the
working directory, git remotes, workspace markers, and mentioned names,
validates the result against what the caller claimed, and records every
decision in an append-only audit log.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (defaults to ~/.config/projectd/config.yaml)")
}

// setup loads configuration and builds the shared logger. Logs go to
// stderr so command output on stdout stays machine-readable.
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, logger, nil
}

// setupEngine additionally assembles the resolution engine and its stores.
func setupEngine() (*config.Config, *logging.Logger, *resolver.Resolver, *registry.Store, *safeguard.AuditLog, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	res, store, auditLog, err := resolver.FromConfig(cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	return cfg, logger, res, store, auditLog, nil
}

// setupStore assembles just the registry store for commands that do not
// need detection.
func setupStore() (*config.Config, *registry.Store, error) {
	cfg, _, err := setup()
	if err != nil {
		return nil, nil, err
	}

	store, err := registry.NewStore(cfg.Registry.Path)
	if err != nil {
		return nil, nil, err
	}

	return cfg, store, nil
}
