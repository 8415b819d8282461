package placeholder

import "fmt"

// Issue describes a malformed placeholder.
type Issue struct {
	Kind    Kind
	Literal string // empty for unterminated openings
	Offset  int
	Reason  string
}

func (i Issue) String() string {
	if i.Literal == "" {
		return fmt.Sprintf("offset %d: unterminated {{%s: placeholder", i.Offset, i.Kind)
	}
	return fmt.Sprintf("offset %d: %s: %s", i.Offset, i.Literal, i.Reason)
}

// Lint reports placeholders that start with a known kind but are not well
// formed. The resolver leaves these untouched.
func Lint(text string) []Issue {
	var issues []Issue
	scan(text, func(c candidate) {
		if _, reason := parse(c.kind, c.spec); reason != "" {
			issues = append(issues, Issue{
				Kind:    c.kind,
				Literal: c.literal,
				Offset:  c.offset,
				Reason:  reason,
			})
		}
	}, func(kind Kind, offset int) {
		issues = append(issues, Issue{
			Kind:   kind,
			Offset: offset,
			Reason: "unterminated",
		})
	})
	return issues
}
