package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/promptr/internal/render"
	"github.com/mark3labs/promptr/internal/resolver"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resolveFlags struct {
	version  string
	lang     string
	vars     []string
	varsFile string
	json     bool
	explain  bool
	markdown bool
	width    int
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <prompt>",
	Short: "Resolve a prompt version into final text",
	Long: `Resolve a prompt version into final text.

Assets, variables and referenced prompts are substituted. Placeholders that
cannot be resolved are left in the text and reported with --explain or --json.`,
	Example: `  promptr resolve "Greeting Assistant" --lang fr-FR --var name=Ann
  promptr resolve greeting --version 1.0.0 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFlags.version, "version", "", "Version tag (default: latest)")
	resolveCmd.Flags().StringVarP(&resolveFlags.lang, "lang", "l", "", "Language code, e.g. fr-FR (default: from config)")
	resolveCmd.Flags().StringArrayVar(&resolveFlags.vars, "var", nil, "Variable as name=value (repeatable)")
	resolveCmd.Flags().StringVar(&resolveFlags.varsFile, "vars-file", "", "YAML or JSON file of variables")
	resolveCmd.Flags().BoolVar(&resolveFlags.json, "json", false, "Print the result and metadata as JSON")
	resolveCmd.Flags().BoolVar(&resolveFlags.explain, "explain", false, "Print a resolution tree after the text")
	resolveCmd.Flags().BoolVar(&resolveFlags.markdown, "markdown", false, "Render the text as markdown")
	resolveCmd.Flags().IntVar(&resolveFlags.width, "width", 100, "Word wrap width for --markdown")
	resolveCmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	vars, err := loadVariables(resolveFlags.varsFile, resolveFlags.vars)
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
		lang = resolveFlags.lang
	}

	start := time.Now()
	res, err := b.engine(cfg).Execute(ctx, resolver.Request{
		ProjectID: cfg.Project,
		Prompt:    args[0],
		Version:   resolveFlags.version,
		Language:  lang,
		Variables: vars,
	})
	if err != nil {
		return withHints(err)
	}

	out := render.NewWriter(cmd.OutOrStdout())
	switch {
	case resolveFlags.json:
		highlighted, err := render.JSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, highlighted)
	case resolveFlags.markdown:
		fmt.Fprintln(out, render.Markdown(res.Text, resolveFlags.width))
	default:
		fmt.Fprintln(out, res.Text)
	}

	if resolveFlags.explain {
		fmt.Fprintln(out)
		fmt.Fprintln(out, render.Explain(res))
		fmt.Fprintf(out, "resolved in %s, %d issue(s)\n", time.Since(start).Round(time.Microsecond), res.Metadata.Issues())
	}
	return nil
}

// loadVariables reads the variables file, if any, then applies name=value
// pairs on top of it.
func loadVariables(path string, pairs []string) (map[string]any, error) {
	vars := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read variables file: %w", err)
		}
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("failed to parse variables file %s: %w", path, err)
		}
		if vars == nil {
			vars = make(map[string]any)
		}
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", pair)
		}
		vars[name] = value
	}
	if len(vars) == 0 {
		return nil, nil
	}
	return vars, nil
}

// withHints appends an error's hints to its message for display.
func withHints(err error) error {
	hints := resolver.Hints(err)
	if len(hints) == 0 {
		return err
	}
	return fmt.Errorf("%w\nhint: %s", err, strings.Join(hints, "\nhint: "))
}
