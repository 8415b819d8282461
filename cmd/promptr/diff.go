package main

import (
	"fmt"

	"github.com/mark3labs/promptr/internal/render"
	"github.com/mark3labs/promptr/internal/resolver"
	"github.com/spf13/cobra"
)

var diffFlags struct {
	lang     string
	vars     []string
	varsFile string
}

var diffCmd = &cobra.Command{
	Use:   "diff <prompt> <versionA> <versionB>",
	Short: "Show a unified diff between two resolved versions",
	Long: `Resolve two versions of a prompt with the same language and variables
and print a unified diff of the resulting texts.`,
	Example: `  promptr diff greeting 1.0.0 latest --lang fr-FR`,
	Args:    cobra.ExactArgs(3),
	RunE:    runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&diffFlags.lang, "lang", "l", "", "Language code (default: from config)")
	diffCmd.Flags().StringArrayVar(&diffFlags.vars, "var", nil, "Variable as name=value (repeatable)")
	diffCmd.Flags().StringVar(&diffFlags.varsFile, "vars-file", "", "YAML or JSON file of variables")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	vars, err := loadVariables(diffFlags.varsFile, diffFlags.vars)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	lang := cfg.Language
	if cmd.Flags().Changed("lang") {
		lang = diffFlags.lang
	}
	engine := b.engine(cfg)

	texts := make([]string, 2)
	labels := make([]string, 2)
	for i, tag := range args[1:] {
		res, err := engine.Execute(ctx, resolver.Request{
			ProjectID: cfg.Project,
			Prompt:    args[0],
			Version:   tag,
			Language:  lang,
			Variables: vars,
		})
		if err != nil {
			return withHints(err)
		}
		texts[i] = res.Text
		labels[i] = fmt.Sprintf("%s@%s", res.Metadata.PromptID, res.Metadata.PromptVersionTag)
	}

	out := render.NewWriter(cmd.OutOrStdout())
	diff := render.Diff(labels[0], texts[0], labels[1], texts[1])
	if diff == "" {
		fmt.Fprintf(out, "%s and %s resolve to the same text\n", labels[0], labels[1])
		return nil
	}
	fmt.Fprintln(out, diff)
	return nil
}
