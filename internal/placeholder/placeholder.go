// Package placeholder scans template text for the three placeholder forms
// understood by the resolver:
//
//	{{asset:<key>[:<versionTag>]}}
//	{{variable:<name>}}
//	{{prompt:<name>[:<versionTag>[:<languageCode>]]}}
//
// Surrounding whitespace of a spec is ignored; segments are split on ':'
// as written, so "{{prompt:a : 1}}" names prompt "a " at tag " 1".
//
// Scanning is a single left-to-right pass with no backtracking, so cost is
// linear in the length of the text regardless of what authors write.
package placeholder

import (
	"sort"
	"strings"
)

// Kind identifies a placeholder form.
type Kind string

const (
	KindAsset    Kind = "asset"
	KindVariable Kind = "variable"
	KindPrompt   Kind = "prompt"
)

// kinds is the fixed prefix table, checked in order.
var kinds = []Kind{KindAsset, KindVariable, KindPrompt}

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Ref is the parsed spec of a placeholder. It is one of AssetRef,
// VariableRef or PromptRef.
type Ref interface {
	Kind() Kind
}

// AssetRef is the spec of {{asset:key[:versionTag]}}.
type AssetRef struct {
	Key        string
	VersionTag string // empty means newest active version
}

// VariableRef is the spec of {{variable:name}}.
type VariableRef struct {
	Name string
}

// PromptRef is the spec of {{prompt:name[:versionTag[:languageCode]]}}.
type PromptRef struct {
	Name         string
	VersionTag   string // empty means latest
	LanguageCode string // empty means inherit the caller's language
}

func (AssetRef) Kind() Kind    { return KindAsset }
func (VariableRef) Kind() Kind { return KindVariable }
func (PromptRef) Kind() Kind   { return KindPrompt }

// Placeholder is one well-formed occurrence in a text.
type Placeholder struct {
	Literal string // exact matched text, e.g. "{{asset:greeting:v2}}"
	Spec    string // raw text between "<kind>:" and "}}"
	Offset  int    // byte offset of Literal in the scanned text
	Ref     Ref
}

// Kind returns the placeholder's kind.
func (p Placeholder) Kind() Kind {
	return p.Ref.Kind()
}

// Scan returns every well-formed placeholder in text, in order of
// appearance. Repeated placeholders are each reported. Malformed ones are
// skipped; see Lint.
func Scan(text string) []Placeholder {
	var out []Placeholder
	scan(text, func(c candidate) {
		ref, reason := parse(c.kind, c.spec)
		if reason != "" {
			return
		}
		out = append(out, Placeholder{
			Literal: c.literal,
			Spec:    c.spec,
			Offset:  c.offset,
			Ref:     ref,
		})
	}, nil)
	return out
}

// ScanKind is Scan filtered to one kind.
func ScanKind(text string, kind Kind) []Placeholder {
	all := Scan(text)
	out := all[:0]
	for _, p := range all {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out
}

// Distinct returns placeholders with duplicate literals removed, keeping the
// first occurrence of each.
func Distinct(ps []Placeholder) []Placeholder {
	seen := make(map[string]struct{}, len(ps))
	out := make([]Placeholder, 0, len(ps))
	for _, p := range ps {
		if _, ok := seen[p.Literal]; ok {
			continue
		}
		seen[p.Literal] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Replace substitutes every occurrence of each literal key in replacements
// with its value, in a single pass over text. Inserted values are never
// rescanned, so the outcome does not depend on map iteration order.
func Replace(text string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return text
	}
	literals := make([]string, 0, len(replacements))
	for lit := range replacements {
		literals = append(literals, lit)
	}
	sort.Strings(literals)

	pairs := make([]string, 0, len(literals)*2)
	for _, lit := range literals {
		pairs = append(pairs, lit, replacements[lit])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
