package render

import (
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// Diff returns a colored unified diff from a to b, or "" when they are
// equal.
func Diff(labelA, a, labelB, b string) string {
	unified := udiff.Unified(labelA, labelB, withNewline(a), withNewline(b))
	if unified == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSuffix(unified, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			lines[i] = styleTitle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = styleHunk.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = styleInsert.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = styleDelete.Render(line)
		default:
			lines[i] = styleMuted.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// withNewline terminates s so a missing final newline does not show up as
// a change of its own.
func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
