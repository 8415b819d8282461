package render

import (
	"fmt"

	"charm.land/lipgloss/v2/tree"
	"github.com/mark3labs/promptr/internal/resolver"
)

// Explain renders res.Metadata as a tree: the chosen version and language,
// then the assets, variables and prompt references of each level.
func Explain(res *resolver.Result) string {
	if res == nil || res.Metadata == nil {
		return ""
	}
	md := res.Metadata
	root := explainTree(
		fmt.Sprintf("%s %s", styleTitle.Render(md.PromptName), styleMuted.Render("("+md.PromptID+") "+string(md.PromptType))),
		md,
	)
	return root.String()
}

func explainTree(title string, md *resolver.Metadata) *tree.Tree {
	t := tree.Root(title).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(styleBranch)

	t.Child(field("version", md.PromptVersionTag) + "  " + field("language", md.LanguageUsed))

	if len(md.AssetsUsed)+len(md.UnresolvedAssets) > 0 {
		assets := tree.Root(styleLabel.Render("assets"))
		for _, a := range md.AssetsUsed {
			line := fmt.Sprintf("%s %s %s", styleOK.Render("✓"), styleRef.Render(a.Placeholder),
				styleValue.Render(a.Key+"@"+a.VersionTag))
			if a.RequestedTag != "" {
				line += " " + styleWarn.Render("(requested "+a.RequestedTag+")")
			}
			line += " " + styleMuted.Render(a.LanguageUsed)
			assets.Child(line)
		}
		for _, a := range md.UnresolvedAssets {
			assets.Child(fmt.Sprintf("%s %s %s", styleError.Render("✗"), styleRef.Render(a.Placeholder), styleMuted.Render(a.Reason)))
		}
		t.Child(assets)
	}

	if len(md.VariablesProvided)+len(md.UnresolvedVariables) > 0 {
		vars := tree.Root(styleLabel.Render("variables"))
		for _, name := range md.VariablesProvided {
			vars.Child(styleOK.Render("✓") + " " + styleValue.Render(name))
		}
		for _, name := range md.UnresolvedVariables {
			vars.Child(styleError.Render("✗") + " " + styleValue.Render(name) + " " + styleMuted.Render("not provided"))
		}
		t.Child(vars)
	}

	if len(md.ResolvedPrompts)+len(md.SkippedPrompts) > 0 {
		prompts := tree.Root(styleLabel.Render("prompts"))
		for _, p := range md.ResolvedPrompts {
			title := fmt.Sprintf("%s %s %s", styleOK.Render("✓"), styleRef.Render(p.Placeholder),
				styleValue.Render(p.PromptName)+" "+styleMuted.Render(string(p.PromptType)))
			if p.Metadata == nil {
				prompts.Child(title)
				continue
			}
			prompts.Child(explainTree(title, p.Metadata))
		}
		for _, s := range md.SkippedPrompts {
			prompts.Child(fmt.Sprintf("%s %s %s", styleError.Render("✗"), styleRef.Render(s.Placeholder), styleMuted.Render(s.Reason)))
		}
		t.Child(prompts)
	}

	return t
}

func field(label, value string) string {
	return styleLabel.Render(label+":") + " " + styleValue.Render(value)
}

// Error renders an error followed by its hints.
func Error(err error) string {
	out := styleError.Render("error:") + " " + err.Error()
	for _, hint := range resolver.Hints(err) {
		out += "\n" + styleErrHint.Render("hint: "+hint)
	}
	return out
}
