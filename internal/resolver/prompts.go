package resolver

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/placeholder"
	"github.com/mark3labs/promptr/internal/slug"
)

// resolvePrompts expands {{prompt:...}} references in text, one level deeper
// than p. A reference to a prompt already entered is skipped. Referenced
// prompts never see the caller's variables.
func (e *Engine) resolvePrompts(ctx context.Context, t *traversal, p *catalog.Prompt, text, lang string, md *Metadata) (string, error) {
	refs := placeholder.Distinct(placeholder.ScanKind(text, placeholder.KindPrompt))
	if len(refs) == 0 {
		return text, nil
	}

	repl := make(map[string]string, len(refs))
	for _, ph := range refs {
		ref := ph.Ref.(placeholder.PromptRef)
		id := slug.Normalize(ref.Name)

		if t.seen(id) {
			logger.Warn("Prompt %q: %s references a prompt already being resolved, skipping", p.ID, ph.Literal)
			md.SkippedPrompts = append(md.SkippedPrompts, SkippedPrompt{Placeholder: ph.Literal, Reason: "reference cycle"})
			continue
		}

		res, child, err := e.expand(ctx, t, p, id, ref, lang)
		if err != nil {
			if IsAborting(err) {
				return "", err
			}
			logger.Warn("Prompt %q: leaving %s unresolved: %v", p.ID, ph.Literal, err)
			md.SkippedPrompts = append(md.SkippedPrompts, SkippedPrompt{Placeholder: ph.Literal, Reason: err.Error()})
			continue
		}

		repl[ph.Literal] = res.Text
		md.ResolvedPrompts = append(md.ResolvedPrompts, PromptUsage{
			PromptName:   child.Name,
			PromptID:     child.ID,
			VersionTag:   res.Metadata.PromptVersionTag,
			LanguageUsed: res.Metadata.LanguageUsed,
			PromptType:   child.Type,
			Placeholder:  ph.Literal,
			Metadata:     res.Metadata,
		})
	}
	return placeholder.Replace(text, repl), nil
}

// expand loads, policy-checks and executes one referenced prompt.
func (e *Engine) expand(ctx context.Context, t *traversal, parent *catalog.Prompt, id string, ref placeholder.PromptRef, lang string) (*Result, *catalog.Prompt, error) {
	if id == "" {
		return nil, nil, promptNotFound(parent.ProjectID, ref.Name)
	}
	child, err := e.loadPrompt(ctx, parent.ProjectID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkPolicy(parent, child); err != nil {
		return nil, nil, err
	}

	tag := ref.VersionTag
	if tag == "" {
		tag = catalog.LatestTag
	}
	if ref.LanguageCode != "" {
		lang = ref.LanguageCode
	}

	t.depth++
	defer func() { t.depth-- }()

	res, err := e.execute(ctx, t, parent.ProjectID, invocation{
		name:   id,
		tag:    tag,
		lang:   lang,
		prompt: child,
	})
	if err != nil {
		return nil, nil, errors.WithDetail(err, fmt.Sprintf("referenced from prompt %q", parent.ID))
	}
	return res, child, nil
}
