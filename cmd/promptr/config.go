package main

import (
	"fmt"

	"github.com/mark3labs/promptr/internal/config"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/spf13/cobra"
)

// loadConfig loads configuration and applies the persistent flags the user
// set, which take precedence over every other layer.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("store", &cfg.Store, rootFlags.store)
	override("catalog", &cfg.Catalog, rootFlags.catalog)
	override("data-dir", &cfg.DataDir, rootFlags.dataDir)
	override("nats-url", &cfg.NATSURL, rootFlags.natsURL)
	override("postgres-dsn", &cfg.PostgresDSN, rootFlags.postgresDSN)
	override("project", &cfg.Project, rootFlags.project)
	override("log-level", &cfg.LogLevel, rootFlags.logLevel)
	override("log-file", &cfg.LogFile, rootFlags.logFile)
	if flags.Changed("max-depth") {
		cfg.MaxDepth = rootFlags.maxDepth
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return cfg, nil
}
