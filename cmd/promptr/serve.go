package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/config"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/mcpserver"
	"github.com/mark3labs/promptr/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveFlags struct {
	addr      string
	lang      string
	noMetrics bool
	noWatch   bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve prompt resolution over MCP",
	Long: `Start an MCP server exposing the resolve-prompt and scan-placeholders
tools over streamable HTTP at /mcp, with Prometheus metrics at /metrics.

With the file store the catalog is reloaded whenever the file changes.
A catalog that fails to load leaves the previous one in service.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default: from config, 127.0.0.1:0)")
	serveCmd.Flags().StringVarP(&serveFlags.lang, "lang", "l", "", "Default language for calls that name none")
	serveCmd.Flags().BoolVar(&serveFlags.noMetrics, "no-metrics", false, "Do not serve /metrics")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "Do not reload the catalog file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.MCPAddr = serveFlags.addr
	}
	if cmd.Flags().Changed("lang") {
		cfg.Language = serveFlags.lang
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			logger.Warn("Error closing catalog store: %v", err)
		}
	}()

	var rec *metrics.Recorder
	if !serveFlags.noMetrics {
		rec = metrics.New()
		updateCatalogSize(ctx, b.src, rec)
	}

	srv := mcpserver.New(b.engine(cfg), mcpserver.Options{
		Addr:     cfg.MCPAddr,
		Project:  cfg.Project,
		Language: cfg.Language,
		Metrics:  rec,
	})
	if _, err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "MCP endpoint: %s\n", srv.URL())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Stop()
	})
	if b.mem != nil && !serveFlags.noWatch {
		g.Go(func() error {
			return watchCatalog(gctx, cfg, b.mem, rec)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Shut down")
	return nil
}

// watchCatalog reloads the file catalog on change until ctx ends.
func watchCatalog(ctx context.Context, cfg *config.Config, mem *catalog.Memory, rec *metrics.Recorder) error {
	return catalog.Watch(ctx, cfg.Catalog, mem, func(err error) {
		if rec == nil {
			return
		}
		rec.ObserveReload(err)
		if err == nil {
			updateCatalogSize(ctx, mem, rec)
		}
	})
}

func updateCatalogSize(ctx context.Context, l catalog.Lister, rec *metrics.Recorder) {
	records, err := l.ListRecords(ctx)
	if err != nil {
		logger.Warn("Failed to count catalog prompts: %v", err)
		return
	}
	rec.SetCatalogSize(len(records))
}
