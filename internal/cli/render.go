package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clusterview/pkg/cluster"
	"github.com/matzehuels/clusterview/pkg/render"
	"github.com/matzehuels/clusterview/pkg/session"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file path; stdout when empty
	format     string   // svg, dot, png, or pdf
	expand     []string // clusters to expand before rendering
	hide       []string // clusters to hide before rendering
	width      float64  // frame width in pixels (0 = config)
	height     float64  // frame height in pixels (0 = config)
	scale      float64  // zoom factor for labels and PNG resolution
	collection string   // MongoDB collection override
	noCache    bool     // bypass the render cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: render.FormatSVG}

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Render a dataset in a given cluster state",
		Long: `Render a dataset as a force-directed node-link diagram.

Clusters start collapsed. Use --expand to show the members of a cluster and
--hide to remove a cluster from the drawing. The dataset may be a JSON or
YAML file, or a mongodb:// URI of the form mongodb://host/db/collection/name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return c.runRender(cmd, source, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot, png, pdf")
	f.StringSliceVar(&opts.expand, "expand", nil, "clusters to expand (comma-separated)")
	f.StringSliceVar(&opts.hide, "hide", nil, "clusters to hide (comma-separated)")
	f.Float64Var(&opts.width, "width", 0, "frame width in pixels")
	f.Float64Var(&opts.height, "height", 0, "frame height in pixels")
	f.Float64Var(&opts.scale, "scale", 1, "zoom factor")
	f.StringVar(&opts.collection, "mongo-collection", "", "MongoDB collection for mongodb:// sources")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, source string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if !render.ValidFormats[opts.format] {
		return fmt.Errorf("invalid format: %s (must be svg, dot, png, or pdf)", opts.format)
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	if opts.width > 0 {
		cfg.Render.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Render.Height = opts.height
	}

	d, err := loadDataset(ctx, cfg, source, opts.collection, nil)
	if err != nil {
		return err
	}
	for _, iss := range d.Check() {
		logger.Warn(iss.Message, "code", iss.Code, "subject", iss.Subject)
	}

	sess, err := session.New(d, sessionOptions(cfg, logger, opts.scale)...)
	if err != nil {
		return err
	}
	if err := applyState(sess, opts.expand, opts.hide); err != nil {
		return err
	}

	store, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", opts.format))
	if opts.output != "" {
		spinner.Start()
	}
	data, err := sess.Render(ctx, opts.format, renderCache(cfg, store))
	if opts.output != "" {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	st := sess.View().Stats()
	printSuccess("Rendered %s", filepath.Base(opts.output))
	printFile(opts.output)
	printStats(st.VisibleNodes, st.VisibleLinks)
	return nil
}

// applyState expands and hides the named clusters. Expanding a cluster
// that starts collapsed is a single collapse toggle; expanding a hidden one
// fails with CLUSTER_HIDDEN.
func applyState(sess *session.Session, expand, hide []string) error {
	for _, id := range normalizeIDs(expand) {
		st, err := sess.State(id)
		if err != nil {
			return err
		}
		if st == cluster.Expanded {
			continue
		}
		if err := sess.ToggleCollapse(id); err != nil {
			return err
		}
	}
	for _, id := range normalizeIDs(hide) {
		st, err := sess.State(id)
		if err != nil {
			return err
		}
		if st == cluster.Hidden {
			continue
		}
		if err := sess.ToggleHidden(id); err != nil {
			return err
		}
	}
	return nil
}

// normalizeIDs trims and dedupes flag values, dropping empties.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
