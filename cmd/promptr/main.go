package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/spf13/cobra"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "promptr",
	Short: "Resolve versioned, translatable prompt templates",
	Long: `promptr resolves prompt templates into final text.

A prompt version may contain {{asset:key}}, {{variable:name}} and
{{prompt:name}} placeholders. promptr substitutes assets and variables,
expands referenced prompts recursively with cycle and depth protection,
and falls back to base text when a translation is missing.

Catalogs are read from a YAML file, a NATS JetStream key-value bucket or
PostgreSQL, selected by the "store" setting.`,
	SilenceUsage: true,
}

var rootFlags struct {
	store       string
	catalog     string
	dataDir     string
	natsURL     string
	postgresDSN string
	project     string
	maxDepth    int
	logLevel    string
	logFile     string
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.store, "store", "", "Catalog store: file, nats or postgres")
	pf.StringVarP(&rootFlags.catalog, "catalog", "c", "", "Catalog file (default: prompts.yml)")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory for embedded NATS storage (default: .promptr)")
	pf.StringVar(&rootFlags.natsURL, "nats-url", "", "NATS server URL (default: embedded server)")
	pf.StringVar(&rootFlags.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	pf.StringVarP(&rootFlags.project, "project", "p", "", "Project id (default: default-project)")
	pf.IntVar(&rootFlags.maxDepth, "max-depth", 0, "Maximum prompt reference depth (default: 5)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "Log file path, '-' for stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(setupCmd)
}
