package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already a slug", input: "greeting-assistant", want: "greeting-assistant"},
		{name: "spaces and case", input: "  Test Base Prompt 2 ", want: "test-base-prompt-2"},
		{name: "punctuation runs", input: "Hello, World!!", want: "hello-world"},
		{name: "accents", input: "Café Crème", want: "cafe-creme"},
		{name: "underscores fold", input: "snake__case_name", want: "snake-case-name"},
		{name: "repeated hyphens", input: "a---b", want: "a-b"},
		{name: "leading and trailing separators", input: "--_x_--", want: "x"},
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!!!", want: ""},
		{name: "ampersand dropped", input: "Q&A Prompt", want: "qa-prompt"},
		{name: "at sign and dot dropped", input: "a@b.c", want: "abc"},
		{name: "currency dropped", input: "cost €5", want: "cost-5"},
		{name: "sharp s has no decomposition", input: "Straße", want: "strae"},
		{name: "cyrillic dropped", input: "Привет мир", want: ""},
		{name: "non-latin between latin words", input: "alpha мир beta", want: "alpha-beta"},
		{name: "compatibility forms", input: "ﬁle №1", want: "file-no1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Test Prompt 1-3",
		"Ünïcödé   Nämé",
		"mixed_Under-score and  spaces",
		"{{prompt:x}}",
		"ÆØÅ æøå",
		"tab\tseparated\nlines",
		"-_-_-",
		"Q&A Prompt",
		"Привет мир",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Test Prompt", "test-prompt"))
	assert.True(t, Equal("Test   Prompt", "TEST_PROMPT"))
	assert.False(t, Equal("prompt-a", "prompt-b"))
}
