package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clusterview/pkg/graph"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		strict     bool
		collection string
	)

	cmd := &cobra.Command{
		Use:   "validate [dataset]",
		Short: "Check a dataset for integrity problems",
		Long: `Check that every node's cluster is declared and every link endpoint exists.

Problems are reported as warnings; the dataset still renders with the affected
elements left out. Use --strict to exit non-zero when any problem is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			d, err := loadDataset(cmd.Context(), cfg, source, collection, nil)
			if err != nil {
				return err
			}
			return reportIssues(d, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any problem is found")
	cmd.Flags().StringVar(&collection, "mongo-collection", "", "MongoDB collection for mongodb:// sources")
	return cmd
}

// reportIssues prints dataset statistics and integrity findings.
func reportIssues(d *graph.Dataset, strict bool) error {
	printKeyValue("Nodes", fmt.Sprint(len(d.Nodes)))
	printKeyValue("Links", fmt.Sprint(len(d.Links)))
	printKeyValue("Clusters", fmt.Sprint(len(d.Clusters)))

	issues := d.Check()
	if len(issues) == 0 {
		printSuccess("Dataset is valid")
		return nil
	}
	for _, iss := range issues {
		printWarning("%s", iss)
	}
	if strict {
		return fmt.Errorf("%d integrity problem(s) found", len(issues))
	}
	printDetail("%d problem(s); affected elements are skipped when rendering", len(issues))
	return nil
}
