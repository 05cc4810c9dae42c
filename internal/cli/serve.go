package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typeset-tools/autofit/internal/api"
	"github.com/typeset-tools/autofit/pkg/cache"
	"github.com/typeset-tools/autofit/pkg/history"
)

// serveOptions collects the serve command's flags.
type serveOptions struct {
	addr       string
	redisAddr  string
	mongoURI   string
	mongoDB    string
	noCache    bool
	configFile string
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

The server exposes the solver over HTTP and records every run. By default
runs live in memory and results are cached on disk; point --mongo at a
MongoDB instance to persist runs, and --redis at a Redis instance to share
the result cache across server instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address for the shared result cache")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for run persistence")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "", "MongoDB database name (default autofit)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "config file (default ~/.config/autofit/config.toml)")

	return cmd
}

// runServe wires the store and cache backends and serves until cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	// Flags override the config file.
	if opts.addr == "" {
		opts.addr = cfg.Server.Addr
	}
	if opts.redisAddr == "" {
		opts.redisAddr = cfg.Cache.RedisAddr
	}
	if opts.mongoURI == "" {
		opts.mongoURI = cfg.History.MongoURI
	}
	if opts.mongoDB == "" {
		opts.mongoDB = cfg.History.MongoDB
	}

	store, err := c.newStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	cc, err := c.newServerCache(ctx, opts, cfg)
	if err != nil {
		return err
	}
	defer cc.Close()

	srv := api.NewServer(api.Config{Addr: opts.addr}, store, cc, c.Logger)
	return srv.Serve(ctx)
}

// newStore picks the run store backend from the serve options.
func (c *CLI) newStore(ctx context.Context, opts serveOptions) (history.Store, error) {
	if opts.mongoURI == "" {
		c.Logger.Debug("using in-memory run store")
		return history.NewMemoryStore(), nil
	}

	store, err := history.NewMongoStore(ctx, opts.mongoURI, opts.mongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	c.Logger.Info("run store connected", "db", opts.mongoDB)
	return store, nil
}

// newServerCache picks the result cache backend from the serve options.
func (c *CLI) newServerCache(ctx context.Context, opts serveOptions, cfg Config) (cache.Cache, error) {
	if opts.noCache || !cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}

	if opts.redisAddr != "" {
		cc, err := cache.NewRedisCache(ctx, opts.redisAddr, "", 0)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("result cache connected", "redis", opts.redisAddr)
		return cc, nil
	}

	return newCache(false, cfg.Cache.Dir)
}
