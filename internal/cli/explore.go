package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clusterview/pkg/session"
)

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "explore [dataset]",
		Short: "Collapse, expand, and hide clusters interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			d, err := loadDataset(ctx, cfg, source, collection, nil)
			if err != nil {
				return err
			}
			sess, err := session.New(d, sessionOptions(cfg, loggerFromContext(ctx), 1)...)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewExploreModel(sess), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(ExploreModel); ok {
				st := m.Session.View().Stats()
				printInfo("Final view")
				printStats(st.VisibleNodes, st.VisibleLinks)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&collection, "mongo-collection", "", "MongoDB collection for mongodb:// sources")
	return cmd
}
