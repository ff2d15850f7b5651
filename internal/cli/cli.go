// Package cli implements the clusterview command-line interface.
//
// # Commands
//
//   - render: draw a dataset in a given cluster state to SVG, DOT, PNG, or PDF
//   - explore: collapse, expand, and hide clusters interactively in the terminal
//   - serve: run the HTTP API for interactive sessions
//   - validate: report integrity problems of a dataset
//   - cache: manage the local render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clusterview/pkg/buildinfo"
	"github.com/matzehuels/clusterview/pkg/cache"
	"github.com/matzehuels/clusterview/pkg/config"
	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/provider"
	"github.com/matzehuels/clusterview/pkg/render/nodelink"
	"github.com/matzehuels/clusterview/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "clusterview"

	// renderKeyType labels render cache events.
	renderKeyType = "render"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Clusterview explores clustered node-link graphs",
		Long:         `Clusterview renders graphs whose nodes are grouped into clusters and lets you collapse, expand, and hide whole clusters to keep large graphs readable.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/clusterview/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration on first use.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	// --verbose wins over the configured level.
	if lvl := c.Logger.GetLevel(); lvl > log.DebugLevel {
		c.Logger.SetLevel(levelFromConfig(cfg.Log.Level, lvl))
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

// newCache creates the render cache selected by the config.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNull:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return cache.NewInstrumented(rc, renderKeyType), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.NewInstrumented(fc, renderKeyType), nil
}

// renderCache bundles a cache with the configured keyer and TTL.
func renderCache(cfg *config.Config, c cache.Cache) *session.RenderCache {
	return &session.RenderCache{
		Cache: c,
		Keyer: cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix),
		TTL:   cfg.Cache.TTL,
	}
}

// loadDataset opens source (a file path or mongodb:// URI) and loads it.
// A non-nil store caches the parsed dataset under its source.
func loadDataset(ctx context.Context, cfg *config.Config, source, collection string, store cache.Cache) (*graph.Dataset, error) {
	pcfg := provider.Config{
		MongoDatabase:   cfg.Mongo.Database,
		MongoCollection: cfg.Mongo.Collection,
	}
	if collection != "" {
		pcfg.MongoCollection = collection
	}
	if source == "" {
		source = cfg.Server.Dataset
	}

	p, err := provider.Open(ctx, source, pcfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
		p = provider.NewCached(p, store, keyer, cfg.Cache.TTL, loggerFromContext(ctx))
	}
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	defer p.Close(closeCtx)

	prog := newProgress(loggerFromContext(ctx))
	d, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	prog.done("Loaded " + p.Source())
	return d, nil
}

// sessionOptions maps the config onto session options.
func sessionOptions(cfg *config.Config, logger *log.Logger, scale float64) []session.Option {
	return []session.Option{
		session.WithParams(cfg.Layout),
		session.WithRenderOptions(nodelink.Options{
			Width:      cfg.Render.Width,
			Height:     cfg.Render.Height,
			Background: cfg.Render.Background,
			Scale:      scale,
		}),
		session.WithLogger(logger),
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/clusterview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
