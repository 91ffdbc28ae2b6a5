package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/masonry/internal/server"
	"github.com/matzehuels/masonry/pkg/session"
)

// serveCommand creates the serve command that runs the layout API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		logFile    string
		allowFiles bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the masonry layout API",
		Long: `Run the masonry layout API.

POST /v1/layout computes boards and renders them. /v1/sessions holds a live
layout per client that follows its container size and scroll position and
loads more items from its source near the end of the track.

Sessions live in memory and expire after serve.session_ttl without access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Serve
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("log-file") {
				cfg.LogFile = logFile
			}
			return c.runServe(cmd.Context(), cfg, allowFiles, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write a rotated JSON request log to this file")
	cmd.Flags().BoolVar(&allowFiles, "allow-files", false, "let clients name local item files as sources")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe runs the server and the session janitor until ctx is done, then
// shuts both down.
func (c *CLI) runServe(ctx context.Context, cfg ServeConfig, allowFiles, noCache bool) error {
	logger := c.Logger
	if cfg.LogFile != "" {
		fileLogger, closer := newFileLogger(cfg, c.Logger.GetLevel())
		defer closer.Close()
		logger = fileLogger
		c.Logger.Info("request log", "path", cfg.LogFile)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	store := session.NewMemoryStore(cfg.SessionTTL, session.WithStoreLogger(logger))
	defer store.Close()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithLayoutConfig(c.Config.Layout),
		server.WithBatchSize(c.Config.Catalog.BatchSize),
	}
	if allowFiles {
		opts = append(opts, server.WithFileSources())
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(runner, store, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return session.Janitor(gctx, store, cfg.CleanupInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		c.Logger.Info("shutting down", "sessions", store.Len())
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
