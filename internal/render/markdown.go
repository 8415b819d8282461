package render

import (
	"strings"

	"charm.land/glamour/v2"
)

// Markdown renders content as terminal markdown using glamour.
// Falls back to the raw content if rendering fails.
func Markdown(content string, width int) string {
	// Cap width to 120 for readability
	if width <= 0 || width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	// Remove trailing newline that glamour adds
	return strings.TrimSuffix(rendered, "\n")
}
