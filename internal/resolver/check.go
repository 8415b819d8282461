package resolver

import (
	"fmt"
	"sort"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/placeholder"
	"github.com/mark3labs/promptr/internal/slug"
)

// FindingKind classifies a static catalog problem.
type FindingKind string

const (
	FindingMalformed       FindingKind = "malformed"
	FindingDanglingPrompt  FindingKind = "dangling-prompt"
	FindingUnknownVersion  FindingKind = "unknown-version"
	FindingUndefinedAsset  FindingKind = "undefined-asset"
	FindingUnknownAssetTag FindingKind = "unknown-asset-version"
	FindingPolicy          FindingKind = "policy"
	FindingGuardVariable   FindingKind = "guard-variable"
)

// Finding is one problem found in a stored text.
type Finding struct {
	Kind        FindingKind `json:"kind"`
	ProjectID   string      `json:"projectId"`
	PromptID    string      `json:"promptId"`
	VersionTag  string      `json:"versionTag"`
	Language    string      `json:"language,omitempty"` // empty for the base text
	Placeholder string      `json:"placeholder,omitempty"`
	Message     string      `json:"message"`
}

func (f Finding) String() string {
	where := f.ProjectID + "/" + f.PromptID + "@" + f.VersionTag
	if f.Language != "" {
		where += " (" + f.Language + ")"
	}
	return fmt.Sprintf("%s: %s: %s", where, f.Kind, f.Message)
}

// Check inspects every version text and translation in records for problems
// that can be seen without resolving: malformed placeholders, references to
// prompts or versions that do not exist, asset keys the prompt does not
// define, type-policy violations and variables in GUARD prompts. Findings
// are grouped by project and prompt, in stored version order.
func Check(records []catalog.Record) []Finding {
	type promptKey struct{ project, id string }
	index := make(map[promptKey]*catalog.Record, len(records))
	for i := range records {
		index[promptKey{records[i].Prompt.ProjectID, records[i].Prompt.ID}] = &records[i]
	}

	var findings []Finding
	for i := range records {
		rec := &records[i]
		assets := make(map[string]*catalog.Asset, len(rec.Assets))
		for j := range rec.Assets {
			assets[rec.Assets[j].Key] = &rec.Assets[j]
		}
		lookup := func(name string) *catalog.Record {
			return index[promptKey{rec.Prompt.ProjectID, slug.Normalize(name)}]
		}

		for _, v := range rec.Versions {
			findings = append(findings, checkText(rec, v.Tag, "", v.Text, assets, lookup)...)
			for _, tr := range v.Translations {
				findings = append(findings, checkText(rec, v.Tag, tr.LanguageCode, tr.Text, assets, lookup)...)
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		return a.PromptID < b.PromptID
	})
	return findings
}

func checkText(rec *catalog.Record, tag, lang, text string, assets map[string]*catalog.Asset, lookup func(string) *catalog.Record) []Finding {
	var out []Finding
	add := func(kind FindingKind, literal, format string, args ...any) {
		out = append(out, Finding{
			Kind:        kind,
			ProjectID:   rec.Prompt.ProjectID,
			PromptID:    rec.Prompt.ID,
			VersionTag:  tag,
			Language:    lang,
			Placeholder: literal,
			Message:     fmt.Sprintf(format, args...),
		})
	}

	for _, issue := range placeholder.Lint(text) {
		add(FindingMalformed, issue.Literal, "%s", issue.String())
	}

	for _, ph := range placeholder.Distinct(placeholder.Scan(text)) {
		switch ref := ph.Ref.(type) {
		case placeholder.AssetRef:
			asset, ok := assets[ref.Key]
			if !ok {
				add(FindingUndefinedAsset, ph.Literal, "%s: prompt defines no asset %q", ph.Literal, ref.Key)
				continue
			}
			if ref.VersionTag != "" {
				if _, ok := asset.VersionByTag(ref.VersionTag); !ok {
					add(FindingUnknownAssetTag, ph.Literal, "%s: asset %q has no version %q, newest active is used", ph.Literal, ref.Key, ref.VersionTag)
				}
			}

		case placeholder.VariableRef:
			if rec.Prompt.Type == catalog.TypeGuard {
				add(FindingGuardVariable, ph.Literal, "%s: GUARD prompts are resolved without variables", ph.Literal)
			}

		case placeholder.PromptRef:
			child := lookup(ref.Name)
			if child == nil {
				add(FindingDanglingPrompt, ph.Literal, "%s: no prompt %q in project %q", ph.Literal, slug.Normalize(ref.Name), rec.Prompt.ProjectID)
				continue
			}
			if err := checkPolicy(&rec.Prompt, &child.Prompt); err != nil {
				add(FindingPolicy, ph.Literal, "%s: %v", ph.Literal, err)
			}
			if ref.VersionTag != "" && ref.VersionTag != catalog.LatestTag {
				if _, ok := child.VersionByTag(ref.VersionTag); !ok {
					add(FindingUnknownVersion, ph.Literal, "%s: prompt %q has no version %q", ph.Literal, child.Prompt.ID, ref.VersionTag)
				}
			}
		}
	}
	return out
}
