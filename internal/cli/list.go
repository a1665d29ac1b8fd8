package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every example in the knowledge base",
	Long: `List every example with its category and one-line summary.
Listing never loads the embedding model.

Examples:
  kbsearch list
  kbsearch list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	svc, err := openService(GetConfig())
	if err != nil {
		return err
	}
	defer svc.Close()

	items, err := svc.ListItems()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		output, _ := json.MarshalIndent(items, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No examples found.")
		return nil
	}
	for _, it := range items {
		summary := it.Summary
		if summary == "" {
			summary = "(no summary)"
		}
		fmt.Fprintf(out, "%-60s %s\n", it.Path, summary)
	}
	fmt.Fprintf(out, "\n%d examples\n", len(items))
	return nil
}
