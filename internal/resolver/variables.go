package resolver

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/placeholder"
)

// resolveVariables substitutes {{variable:name}} placeholders whose name is
// a key of vars. Unknown names stay literal and are reported, unless a nested
// prompt reported them already.
func resolveVariables(text string, vars map[string]any, md *Metadata) string {
	refs := placeholder.Distinct(placeholder.ScanKind(text, placeholder.KindVariable))
	if len(refs) == 0 {
		return text
	}

	_, reported := md.nestedUnresolved()
	repl := make(map[string]string, len(refs))
	used := make(map[string]struct{})
	missing := make(map[string]struct{})
	for _, ph := range refs {
		name := ph.Ref.(placeholder.VariableRef).Name
		val, ok := vars[name]
		if !ok {
			if _, seen := reported[name]; !seen {
				missing[name] = struct{}{}
			}
			continue
		}
		repl[ph.Literal] = stringify(val)
		used[name] = struct{}{}
	}

	md.VariablesProvided = appendSorted(md.VariablesProvided, used)
	md.UnresolvedVariables = appendSorted(md.UnresolvedVariables, missing)
	if len(missing) > 0 {
		logger.Warn("Prompt %q: unresolved variables %v", md.PromptID, md.UnresolvedVariables)
	}
	return placeholder.Replace(text, repl)
}

func appendSorted(dst []string, set map[string]struct{}) []string {
	for k := range set {
		dst = append(dst, k)
	}
	sort.Strings(dst)
	return dst
}

// stringify renders a variable value the way it should appear in text.
// Strings are inserted as is; structured values are JSON encoded.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	case []byte:
		return string(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
