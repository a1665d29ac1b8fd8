package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Print the source of an example",
	Long: `Print the verbatim source of an example. PATH may include the knowledge
base directory name or start at the category.

Examples:
  kbsearch get knowledge_base/nlp/text_classification_with_transformer.py
  kbsearch get nlp/text_classification_with_transformer.py`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	svc, err := openService(GetConfig())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.GetCode(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), res.Source)
	return nil
}
