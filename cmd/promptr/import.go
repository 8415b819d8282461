package main

import (
	"fmt"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/catalog/natskv"
	"github.com/mark3labs/promptr/internal/catalog/pgstore"
	"github.com/mark3labs/promptr/internal/config"
	"github.com/spf13/cobra"
)

var importFlags struct {
	to string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the catalog file into a NATS or PostgreSQL store",
	Long: `Validate the catalog file and write it into the target store.

Every prompt in the file replaces the stored prompt with the same slug.
Stored prompts of the file's projects that the file no longer lists are
removed. Other projects are left untouched.`,
	Example: `  promptr import --to nats
  promptr import --to postgres --postgres-dsn postgres://localhost/promptr -c prompts.yml`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFlags.to, "to", "", "Target store: nats or postgres")
	_ = importCmd.MarkFlagRequired("to")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	// Validate before touching the target
	if _, err := doc.Records(); err != nil {
		return fmt.Errorf("invalid catalog %s: %w", cfg.Catalog, err)
	}

	ctx := cmd.Context()
	var written, deleted int
	switch importFlags.to {
	case config.StoreNATS:
		kv, closeFn, err := openBucket(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		res, err := natskv.Publish(ctx, kv, doc)
		if err != nil {
			return err
		}
		written, deleted = res.Written, res.Deleted

	case config.StorePostgres:
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required (set PROMPTR_POSTGRES_DSN or --postgres-dsn)")
		}
		pool, err := openPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		res, err := pgstore.Import(ctx, pool, doc)
		if err != nil {
			return err
		}
		written, deleted = res.Written, res.Deleted

	default:
		return fmt.Errorf("unknown import target %q (want %s or %s)", importFlags.to, config.StoreNATS, config.StorePostgres)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %s: %d prompt(s) written, %d removed\n", cfg.Catalog, importFlags.to, written, deleted)
	return nil
}
