package placeholder

import "strings"

// candidate is a "{{kind:...}}" span found by the scanner, before its spec
// is validated for the kind.
type candidate struct {
	kind    Kind
	spec    string
	literal string
	offset  int
}

// scan walks text once and calls emit for every closed "{{kind:spec}}" span
// and unterminated for every "{{kind:" opening that never closes.
//
// A spec may not contain '}'. When the scanner meets a '}' that is not part
// of "}}", every opening between the current one and that brace would stop
// at the same brace, so scanning resumes after it. When no '}' remains,
// nothing further can close and the walk ends.
func scan(text string, emit func(candidate), unterminated func(kind Kind, offset int)) {
	i := 0
	for i+len(openDelim) <= len(text) {
		idx := strings.Index(text[i:], openDelim)
		if idx < 0 {
			return
		}
		start := i + idx
		kind, ok := matchKind(text, start+len(openDelim))
		if !ok {
			i = start + 1
			continue
		}

		specStart := start + len(openDelim) + len(kind) + 1
		rel := strings.IndexByte(text[specStart:], '}')
		if rel < 0 {
			if unterminated != nil {
				unterminated(kind, start)
			}
			return
		}
		brace := specStart + rel
		if !strings.HasPrefix(text[brace:], closeDelim) {
			if unterminated != nil {
				unterminated(kind, start)
			}
			i = brace + 1
			continue
		}

		end := brace + len(closeDelim)
		emit(candidate{
			kind:    kind,
			spec:    text[specStart:brace],
			literal: text[start:end],
			offset:  start,
		})
		i = end
	}
}

// matchKind reports which kind prefix ("asset:", ...) starts at pos.
func matchKind(text string, pos int) (Kind, bool) {
	rest := text[pos:]
	for _, k := range kinds {
		if len(rest) > len(k) && strings.HasPrefix(rest, string(k)) && rest[len(k)] == ':' {
			return k, true
		}
	}
	return "", false
}

// parse validates spec for kind and builds its Ref. A non-empty reason
// means the placeholder is malformed. Only the ends of the whole spec are
// trimmed; spaces around inner colons stay part of the segments.
func parse(kind Kind, spec string) (Ref, string) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, "empty spec"
	}
	parts := strings.Split(spec, ":")

	switch kind {
	case KindAsset:
		if len(parts) > 2 {
			return nil, "asset spec takes at most key and version tag"
		}
		if parts[0] == "" {
			return nil, "empty asset key"
		}
		ref := AssetRef{Key: parts[0]}
		if len(parts) == 2 {
			ref.VersionTag = parts[1]
		}
		return ref, ""

	case KindVariable:
		if len(parts) > 1 {
			return nil, "variable name cannot contain ':'"
		}
		if parts[0] == "" {
			return nil, "empty variable name"
		}
		return VariableRef{Name: parts[0]}, ""

	case KindPrompt:
		if len(parts) > 3 {
			return nil, "prompt spec takes at most name, version tag and language code"
		}
		if parts[0] == "" {
			return nil, "empty prompt name"
		}
		ref := PromptRef{Name: parts[0]}
		if len(parts) > 1 {
			ref.VersionTag = parts[1]
		}
		if len(parts) > 2 {
			ref.LanguageCode = parts[2]
		}
		return ref, ""
	}
	return nil, "unknown kind"
}
