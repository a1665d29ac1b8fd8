package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchText    string
	searchJSON    bool
	searchVerbose bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the example closest to a problem description",
	Long: `Embed the problem description and return the single most similar example
with its cosine similarity score. The first search builds the index.

Examples:
  kbsearch search -q "fine-tune a transformer for sentiment classification"
  kbsearch search -q "segment images" --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "problem description (required)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "include the matched item in JSON output")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := openService(GetConfig())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.SemanticSearch(searchText)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if !searchVerbose {
			res.Item = nil
		}
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "%s (score: %.4f)\n", res.BestMatch, res.Score)
	if res.Item != nil && res.Item.Summary != "" {
		fmt.Fprintf(out, "  %s\n", res.Item.Summary)
	}
	return nil
}
