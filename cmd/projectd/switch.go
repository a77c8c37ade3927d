package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectd/internal/registry"
	"github.com/fyrsmithlabs/projectd/internal/similarity"
)

var (
	// switch command flags
	switchYes bool
)

func init() {
	rootCmd.AddCommand(switchCmd)

	switchCmd.Flags().BoolVar(&switchYes, "yes", false, "Skip the confirmation prompt on fuzzy matches")
}

var switchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Set the active project",
	Long: `Set the active project by name or alias.

An exact name or alias switches immediately. Otherwise the registry is
searched for similar names; a single close match asks for confirmation,
several close matches present a menu.

Examples:
  # Exact name or alias
  projectd switch payment-service
  projectd switch pay

  # Fuzzy, with a menu when several projects are close
  projectd switch paymnt`,
	Args: cobra.ExactArgs(1),
	RunE: runSwitch,
}

// switchCandidate pairs a project with its name similarity to the query.
type switchCandidate struct {
	project *registry.ProjectRecord
	score   float64
}

func runSwitch(cmd *cobra.Command, args []string) error {
	cfg, store, err := setupStore()
	if err != nil {
		return err
	}

	reg, err := store.Load()
	if err != nil {
		return err
	}

	query := args[0]

	// Exact name or alias match switches without asking.
	if rec, ok := reg.FindByNameOrAlias(query); ok {
		return activate(store, rec)
	}

	candidates := rankByName(reg, query, cfg.Detection.FuzzyFloor)
	switch len(candidates) {
	case 0:
		return fmt.Errorf("no project matches %q", query)
	case 1:
		rec := candidates[0].project
		if !switchYes {
			ok, err := promptYesNo(os.Stdin, os.Stderr,
				fmt.Sprintf("Did you mean %q?", rec.Name), false)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "Cancelled.")
				return nil
			}
		}
		return activate(store, rec)
	default:
		options := make([]string, len(candidates))
		for i, c := range candidates {
			options[i] = fmt.Sprintf("%s (%s)", c.project.Name, c.project.Path)
		}
		idx, err := promptSelect(os.Stdin, os.Stderr,
			fmt.Sprintf("Several projects match %q:", query), options)
		if err != nil {
			return err
		}
		if idx < 0 {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
		return activate(store, candidates[idx].project)
	}
}

// rankByName scores every project's name and aliases against query and
// returns those at or above floor, best first.
func rankByName(reg *registry.Registry, query string, floor float64) []switchCandidate {
	var out []switchCandidate
	for _, rec := range reg.SortedProjects() {
		best := similarity.Score(query, rec.Name)
		for _, alias := range rec.Aliases {
			if s := similarity.Score(query, alias); s > best {
				best = s
			}
		}
		if best >= floor {
			out = append(out, switchCandidate{project: rec, score: best})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return strings.Compare(out[i].project.ID, out[j].project.ID) < 0
	})
	return out
}

func activate(store *registry.Store, rec *registry.ProjectRecord) error {
	if err := store.SetActiveProject(rec.ID); err != nil {
		return err
	}
	if err := store.Touch(rec.ID); err != nil {
		return err
	}
	fmt.Printf("Switched to %s (%s)\n", rec.Name, rec.Path)
	return nil
}
