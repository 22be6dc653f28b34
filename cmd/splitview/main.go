// ABOUTME: CLI entrypoint for the splitview demo server with serve and version commands.
// ABOUTME: Wires the content provider, deferred markdown fetcher, component registry and HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/2389-research/splitview/component"
	"github.com/2389-research/splitview/content"
	"github.com/2389-research/splitview/markdown"
	"github.com/2389-research/splitview/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

// serveFunc runs the server for a validated config. Tests substitute it.
type serveFunc func(ctx context.Context, cfg serveConfig, logger *zap.Logger) error

func main() {
	loadDotEnvAuto()

	root := newRootCmd(os.Stdout, runServe)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, serve serveFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "splitview",
		Short: "Component demo server with on-demand loading of a heavy markdown editor",
		Long: `splitview serves three pages: two lightweight greeting components and a
markdown editor whose formatting engine is fetched only after the editor mounts.
Until the engine arrives the preview shows a skeleton; if it never arrives the
preview falls back to the plain text.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(newServeCmd(serve), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the splitview version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "splitview %s\n", version)
		},
	}
}

func newServeCmd(serve serveFunc) *cobra.Command {
	cfg, envErr := defaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Starts the demo server. Every flag defaults to the matching SPLITVIEW_*
environment variable, e.g. SPLITVIEW_ADDR or SPLITVIEW_RENDERER_LATENCY.
A .env file in the working directory or its parents is loaded first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address [SPLITVIEW_ADDR]")
	f.StringVar(&cfg.ContentPath, "content", cfg.ContentPath, "markdown file shown in the editor [SPLITVIEW_CONTENT]")
	f.StringVar(&cfg.Title, "title", cfg.Title, "document title when the file has no front matter [SPLITVIEW_TITLE]")
	f.StringVar(&cfg.Author, "author", cfg.Author, "document author when the file has no front matter [SPLITVIEW_AUTHOR]")
	f.StringSliceVar(&cfg.Modules, "modules", cfg.Modules, "formatting modules to load on demand [SPLITVIEW_MODULES]")
	f.DurationVar(&cfg.RendererLatency, "renderer-latency", cfg.RendererLatency, "simulated fetch delay for the formatting engine [SPLITVIEW_RENDERER_LATENCY]")
	f.BoolVar(&cfg.RendererFail, "renderer-fail", cfg.RendererFail, "make every formatting engine fetch fail [SPLITVIEW_RENDERER_FAIL]")
	f.IntVar(&cfg.MaxInstances, "max-instances", cfg.MaxInstances, "mounted components kept per kind before evicting the least recently used [SPLITVIEW_MAX_INSTANCES]")
	f.DurationVar(&cfg.InstanceTTL, "instance-ttl", cfg.InstanceTTL, "idle time before a mounted component is unmounted [SPLITVIEW_INSTANCE_TTL]")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "development logging at debug level [SPLITVIEW_VERBOSE]")

	return cmd
}

// runServe runs the HTTP server and the registry sweeper until interrupted.
func runServe(ctx context.Context, cfg serveConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := component.NewRegistry(cfg.MaxInstances, cfg.InstanceTTL, logger)
	provider := content.NewFileProvider(cfg.ContentPath,
		content.WithDefaults(cfg.Title, cfg.Author),
		content.WithLogger(logger),
	)
	fetch := component.MarkdownFetch(markdown.Fetcher{
		Modules: cfg.Modules,
		Latency: cfg.RendererLatency,
		Fail:    cfg.RendererFail,
	})

	srv, err := web.NewServer(web.ServerConfig{
		Addr:     cfg.Addr,
		Provider: provider,
		Fetch:    fetch,
		Modules:  cfg.Modules,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("starting splitview",
		zap.String("version", version),
		zap.String("addr", cfg.Addr),
		zap.String("content", cfg.ContentPath),
		zap.Strings("modules", cfg.Modules),
		zap.Duration("renderer_latency", cfg.RendererLatency),
		zap.Bool("renderer_fail", cfg.RendererFail),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		stopCleanup := registry.StartCleanup(cfg.cleanupInterval())
		<-gctx.Done()
		stopCleanup()
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	logger.Info("splitview stopped")
	return nil
}
