package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// list command flags
	listJSON bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output the registry as JSON")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	Long: `List all registered projects. The active project is marked with *.

Examples:
  projectd list
  projectd list --json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	_, store, err := setupStore()
	if err != nil {
		return err
	}

	reg, err := store.Load()
	if err != nil {
		return err
	}

	projects := reg.SortedProjects()

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	}

	if len(projects) == 0 {
		fmt.Println("No projects registered. Use 'projectd register <name> <path>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \tNAME\tID\tPATH\tALIASES")
	for _, rec := range projects {
		mark := " "
		if rec.ID == reg.ActiveProjectID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			mark, rec.Name, rec.ID, rec.Path, strings.Join(rec.Aliases, ", "))
	}
	return w.Flush()
}
