// Package resolver expands stored prompt templates into final text.
//
// A resolution loads one prompt version, expands its {{prompt:...}}
// references recursively, then substitutes {{asset:...}} and
// {{variable:...}} placeholders. Every top-level call owns a traversal that
// tracks the prompts already entered and the current depth, so cycles and
// runaway chains are caught across sibling branches. The engine only reads
// from its catalog.Source.
package resolver

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/slug"
)

// DefaultMaxDepth bounds the length of a prompt reference chain.
const DefaultMaxDepth = 5

// Engine resolves prompts from a Source. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	src      catalog.Source
	maxDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the maximum number of prompt levels in one resolution.
// Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// New creates an Engine reading from src.
func New(src catalog.Source, opts ...Option) *Engine {
	e := &Engine{src: src, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured depth bound.
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// Request identifies the prompt version to resolve. Prompt may be a display
// name or a slug. An empty Version means latest and an empty Language means
// the base text.
type Request struct {
	ProjectID string         `json:"projectId"`
	Prompt    string         `json:"prompt"`
	Version   string         `json:"version,omitempty"`
	Language  string         `json:"language,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// traversal is the state shared by every level of one top-level call.
type traversal struct {
	visited  map[string]struct{}
	depth    int
	maxDepth int
}

func (t *traversal) seen(id string) bool {
	_, ok := t.visited[id]
	return ok
}

// invocation is one prompt level to execute. prompt is set when the caller
// already loaded it.
type invocation struct {
	name   string
	tag    string
	lang   string
	vars   map[string]any
	prompt *catalog.Prompt
}

// Execute resolves req. Soft problems such as missing assets are reported in
// the result metadata; structural problems are returned as errors marked with
// one of the Err values.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, errors.Mark(errors.New("project id is required"), ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.Mark(errors.New("prompt name is required"), ErrInvalidRequest)
	}
	tag := strings.TrimSpace(req.Version)
	if tag == "" {
		tag = catalog.LatestTag
	}

	t := &traversal{visited: make(map[string]struct{}), maxDepth: e.maxDepth}
	res, err := e.execute(ctx, t, req.ProjectID, invocation{
		name: req.Prompt,
		tag:  tag,
		lang: strings.TrimSpace(req.Language),
		vars: req.Variables,
	})
	if err != nil {
		logger.Error("Resolving %q in project %q failed: %v", req.Prompt, req.ProjectID, err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) execute(ctx context.Context, t *traversal, projectID string, inv invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := slug.Normalize(inv.name)
	if t.depth >= t.maxDepth {
		return nil, depthExceeded(id, t.maxDepth)
	}
	if id == "" {
		return nil, promptNotFound(projectID, inv.name)
	}
	if t.seen(id) {
		return nil, cycleDetected(id)
	}
	t.visited[id] = struct{}{}

	p := inv.prompt
	if p == nil {
		var err error
		p, err = e.loadPrompt(ctx, projectID, id)
		if err != nil {
			return nil, err
		}
	}
	if p.Type == catalog.TypeGuard && len(inv.vars) > 0 {
		return nil, guardVariables(p, len(inv.vars))
	}

	v, err := e.loadVersion(ctx, p, inv.tag)
	if err != nil {
		return nil, err
	}
	text, langUsed := versionText(v, inv.lang)
	if langUsed == BaseLanguageFallback {
		logger.Warn("Prompt %q version %q has no %s translation, using base text", p.ID, v.Tag, inv.lang)
	}
	logger.Debug("Executing %q@%s depth=%d lang=%s: %s", p.ID, v.Tag, t.depth, langUsed, logger.Preview(text))

	md := newMetadata(p, v, langUsed)

	text, err = e.resolvePrompts(ctx, t, p, text, inv.lang, md)
	if err != nil {
		return nil, err
	}
	text, err = e.resolveAssets(ctx, p, text, inv.lang, inv.vars, md)
	if err != nil {
		return nil, err
	}
	text = resolveVariables(text, inv.vars, md)

	logger.Debug("Resolved %q@%s: %s", p.ID, v.Tag, logger.Preview(text))
	return &Result{Text: text, Metadata: md}, nil
}

func (e *Engine) loadPrompt(ctx context.Context, projectID, id string) (*catalog.Prompt, error) {
	p, err := e.src.PromptBySlug(ctx, projectID, id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return nil, promptNotFound(projectID, id)
	case err != nil:
		return nil, errors.Wrapf(err, "failed to load prompt %q", id)
	}
	return p, nil
}

func (e *Engine) loadVersion(ctx context.Context, p *catalog.Prompt, tag string) (*catalog.Version, error) {
	var (
		v   *catalog.Version
		err error
	)
	if tag == catalog.LatestTag {
		v, err = e.src.LatestVersion(ctx, p.ProjectID, p.ID)
	} else {
		v, err = e.src.VersionByTag(ctx, p.ProjectID, p.ID, tag)
	}
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return nil, versionNotFound(p, tag)
	case err != nil:
		return nil, errors.Wrapf(err, "failed to load version %q of prompt %q", tag, p.ID)
	}
	return v, nil
}

// versionText picks the translation for lang, falling back to the base text.
func versionText(v *catalog.Version, lang string) (text, used string) {
	if lang == "" {
		return v.Text, BaseLanguage
	}
	if tr, ok := v.Translation(lang); ok {
		return tr.Text, lang
	}
	return v.Text, BaseLanguageFallback
}
