package resolver

import (
	"maps"

	"github.com/mark3labs/promptr/internal/catalog"
)

// Language markers recorded in LanguageUsed when no translation was applied.
const (
	BaseLanguage         = "base_language"
	BaseLanguageFallback = "base_language_fallback"
	BaseAsset            = "base_asset"
	BaseAssetFallback    = "base_asset_fallback"
)

// Result is the output of one resolution.
type Result struct {
	Text     string    `json:"processedText"`
	Metadata *Metadata `json:"metadata"`
}

// Metadata reports what a resolution used and what it could not resolve.
type Metadata struct {
	ProjectID           string             `json:"projectId"`
	PromptName          string             `json:"promptName"`
	PromptID            string             `json:"promptId"`
	PromptType          catalog.PromptType `json:"promptType"`
	PromptVersionID     string             `json:"promptVersionId"`
	PromptVersionTag    string             `json:"promptVersionTag"`
	LanguageUsed        string             `json:"languageUsed"`
	AssetsUsed          []AssetUsage       `json:"assetsUsed"`
	UnresolvedAssets    []UnresolvedAsset  `json:"unresolvedAssets"`
	VariablesProvided   []string           `json:"variablesProvided"`
	UnresolvedVariables []string           `json:"unresolvedVariables"`
	ResolvedPrompts     []PromptUsage      `json:"resolvedPrompts"`
	SkippedPrompts      []SkippedPrompt    `json:"skippedPrompts"`
}

// AssetUsage describes one substituted asset placeholder.
type AssetUsage struct {
	Key          string `json:"key"`
	Placeholder  string `json:"placeholder"`
	VersionID    string `json:"versionId"`
	VersionTag   string `json:"versionTag"`
	RequestedTag string `json:"requestedTag,omitempty"` // set when the requested tag was missing
	LanguageUsed string `json:"languageUsed"`
}

// UnresolvedAsset is an asset placeholder left in the text.
type UnresolvedAsset struct {
	Key         string `json:"key"`
	Placeholder string `json:"placeholder"`
	Reason      string `json:"reason"`
}

// PromptUsage describes one expanded prompt reference.
type PromptUsage struct {
	PromptName   string             `json:"promptName"`
	PromptID     string             `json:"promptId"`
	VersionTag   string             `json:"versionTag"`
	LanguageUsed string             `json:"languageUsed"`
	PromptType   catalog.PromptType `json:"promptType"`
	Placeholder  string             `json:"placeholder"`
	Metadata     *Metadata          `json:"metadata"`
}

// SkippedPrompt is a prompt reference left in the text.
type SkippedPrompt struct {
	Placeholder string `json:"placeholder"`
	Reason      string `json:"reason"`
}

func newMetadata(p *catalog.Prompt, v *catalog.Version, lang string) *Metadata {
	return &Metadata{
		ProjectID:           p.ProjectID,
		PromptName:          p.Name,
		PromptID:            p.ID,
		PromptType:          p.Type,
		PromptVersionID:     v.ID,
		PromptVersionTag:    v.Tag,
		LanguageUsed:        lang,
		AssetsUsed:          []AssetUsage{},
		UnresolvedAssets:    []UnresolvedAsset{},
		VariablesProvided:   []string{},
		UnresolvedVariables: []string{},
		ResolvedPrompts:     []PromptUsage{},
		SkippedPrompts:      []SkippedPrompt{},
	}
}

// Issues counts the placeholders left unresolved in m and every nested
// prompt.
func (m *Metadata) Issues() int {
	assets, variables, prompts := m.Unresolved()
	return assets + variables + prompts
}

// Unresolved totals the unresolved placeholders of each kind over the
// metadata tree. A placeholder bubbling up from a nested prompt is reported
// only at the deepest level that left it, and is not counted when an
// enclosing prompt filled it.
func (m *Metadata) Unresolved() (assets, variables, prompts int) {
	return m.unresolved(map[string]struct{}{}, map[string]struct{}{})
}

// unresolved counts the entries of m that no enclosing prompt filled.
// filledAssets holds asset placeholders and filledVars variable names
// substituted above m.
func (m *Metadata) unresolved(filledAssets, filledVars map[string]struct{}) (assets, variables, prompts int) {
	prompts = len(m.SkippedPrompts)
	for _, ua := range m.UnresolvedAssets {
		if _, ok := filledAssets[ua.Placeholder]; !ok {
			assets++
		}
	}
	for _, name := range m.UnresolvedVariables {
		if _, ok := filledVars[name]; !ok {
			variables++
		}
	}
	if len(m.ResolvedPrompts) == 0 {
		return assets, variables, prompts
	}

	filledAssets = maps.Clone(filledAssets)
	for _, au := range m.AssetsUsed {
		filledAssets[au.Placeholder] = struct{}{}
	}
	filledVars = maps.Clone(filledVars)
	for _, name := range m.VariablesProvided {
		filledVars[name] = struct{}{}
	}
	for _, rp := range m.ResolvedPrompts {
		if rp.Metadata == nil {
			continue
		}
		a, v, p := rp.Metadata.unresolved(filledAssets, filledVars)
		assets, variables, prompts = assets+a, variables+v, prompts+p
	}
	return assets, variables, prompts
}

// nestedUnresolved collects the asset placeholders and variable names that
// nested prompts of m, at any depth, left unresolved.
func (m *Metadata) nestedUnresolved() (assets, vars map[string]struct{}) {
	assets = make(map[string]struct{})
	vars = make(map[string]struct{})
	var walk func(*Metadata)
	walk = func(md *Metadata) {
		for _, rp := range md.ResolvedPrompts {
			if rp.Metadata == nil {
				continue
			}
			for _, ua := range rp.Metadata.UnresolvedAssets {
				assets[ua.Placeholder] = struct{}{}
			}
			for _, name := range rp.Metadata.UnresolvedVariables {
				vars[name] = struct{}{}
			}
			walk(rp.Metadata)
		}
	}
	walk(m)
	return assets, vars
}
