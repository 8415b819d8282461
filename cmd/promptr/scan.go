package main

import (
	"fmt"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/render"
	"github.com/mark3labs/promptr/internal/resolver"
	"github.com/spf13/cobra"
)

var scanFlags struct {
	all  bool
	json bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Check stored prompt texts for placeholder problems",
	Long: `Check every stored version text and translation for problems visible
without resolving: malformed placeholders, references to missing prompts or
versions, asset keys the prompt does not define, prompt type policy
violations and variables in GUARD prompts.

Exits non-zero when any problem is found.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFlags.all, "all", false, "Scan every project instead of the configured one")
	scanCmd.Flags().BoolVar(&scanFlags.json, "json", false, "Print findings as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	records, err := b.src.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}
	if !scanFlags.all {
		records = filterProject(records, cfg.Project)
	}
	findings := resolver.Check(records)

	out := render.NewWriter(cmd.OutOrStdout())
	if scanFlags.json {
		if findings == nil {
			findings = []resolver.Finding{}
		}
		highlighted, err := render.JSON(findings)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, highlighted)
	} else {
		for _, f := range findings {
			fmt.Fprintln(out, f.String())
		}
		fmt.Fprintf(out, "%d prompt(s) scanned, %d problem(s)\n", len(records), len(findings))
	}

	if len(findings) > 0 {
		return fmt.Errorf("scan found %d problem(s)", len(findings))
	}
	return nil
}

func filterProject(records []catalog.Record, projectID string) []catalog.Record {
	out := records[:0]
	for _, rec := range records {
		if rec.Prompt.ProjectID == projectID {
			out = append(out, rec)
		}
	}
	return out
}
