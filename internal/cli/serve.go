package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/observability"
	"github.com/matzehuels/clusterview/pkg/render"
	"github.com/matzehuels/clusterview/pkg/server"
	"github.com/matzehuels/clusterview/pkg/session"
	"github.com/matzehuels/clusterview/pkg/visibility"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		collection string
		noWarm     bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve interactive sessions over HTTP",
		Long: `Serve the HTTP API. Each POST /sessions creates an independent session over
the dataset with all clusters collapsed; clicks, hides, and resets change only
that session. Prometheus metrics are exposed on /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			hooks, err := observability.NewPrometheusHooks(reg)
			if err != nil {
				return err
			}
			hooks.Install()
			defer observability.Reset()

			store, err := c.newCache(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()

			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			d, err := loadDataset(ctx, cfg, source, collection, store)
			if err != nil {
				return err
			}
			// One engine for every session: integrity warnings are logged here, once.
			eng := visibility.New(d, visibility.WithLogger(logger))

			rc := renderCache(cfg, store)
			sessOpts := append(sessionOptions(cfg, logger, 1), session.WithEngine(eng))
			srv := server.New(d, server.Options{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				RenderCache:     rc,
				Gatherer:        reg,
				Logger:          logger,
			}, sessOpts...)

			printInfo("Serving on %s", StyleValue.Render(cfg.Server.Addr))
			printKeyValue("Cache", cfg.Cache.Backend)
			printKeyValue("Clusters", fmt.Sprint(len(d.Clusters)))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })
			if !noWarm {
				g.Go(func() error {
					warmRenderCache(gctx, d, rc, sessOpts)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&collection, "mongo-collection", "", "MongoDB collection for mongodb:// sources")
	cmd.Flags().BoolVar(&noWarm, "no-warm", false, "skip pre-rendering the initial view")
	return cmd
}

// warmRenderCache renders the initial all-collapsed view once so the first
// session's SVG is served from the cache. Failures are logged only.
func warmRenderCache(ctx context.Context, d *graph.Dataset, rc *session.RenderCache, opts []session.Option) {
	logger := loggerFromContext(ctx)
	sess, err := session.New(d, opts...)
	if err != nil {
		logger.Debug("skipping cache warm-up", "err", err)
		return
	}
	prog := newProgress(logger)
	if _, err := sess.Render(ctx, render.FormatSVG, rc); err != nil {
		logger.Warn("cache warm-up failed", "err", err)
		return
	}
	prog.done("Pre-rendered initial view")
}
