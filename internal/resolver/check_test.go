package resolver

import (
	"strings"
	"testing"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkCatalog = `
projects:
  - id: default-project
    prompts:
      - name: Clean
        type: system
        versions:
          - tag: "1"
            text: "Hi {{asset:who}} {{prompt:safety:1}} {{variable:name}}"
        assets:
          - key: who
            versions:
              - tag: v1
                value: World
      - name: Broken
        type: system
        versions:
          - tag: "1"
            text: "{{asset:missing}} {{asset:who:v9}} {{prompt:ghost}} {{prompt:chat}} {{prompt:safety:7}} {{variable:}}"
            translations:
              fr-FR: "{{prompt:ghost}}"
        assets:
          - key: who
            versions:
              - tag: v1
                value: World
      - name: Safety
        type: guard
        versions:
          - tag: "1"
            text: "Be kind {{variable:name}}"
      - name: Chat
        type: user
        versions:
          - tag: "1"
            text: "{{prompt:Broken}} {{prompt:safety:latest}}"
`

func checkRecords(t *testing.T, src string) []catalog.Record {
	t.Helper()
	doc, err := catalog.Decode(strings.NewReader(src))
	require.NoError(t, err)
	records, err := doc.Records()
	require.NoError(t, err)
	return records
}

func TestCheck(t *testing.T) {
	findings := Check(checkRecords(t, checkCatalog))

	type got struct {
		prompt, lang string
		kind         FindingKind
		placeholder  string
	}
	var results []got
	for _, f := range findings {
		results = append(results, got{f.PromptID, f.Language, f.Kind, f.Placeholder})
	}

	assert.ElementsMatch(t, []got{
		{"broken", "", FindingMalformed, "{{variable:}}"},
		{"broken", "", FindingUndefinedAsset, "{{asset:missing}}"},
		{"broken", "", FindingUnknownAssetTag, "{{asset:who:v9}}"},
		{"broken", "", FindingDanglingPrompt, "{{prompt:ghost}}"},
		{"broken", "", FindingPolicy, "{{prompt:chat}}"},
		{"broken", "", FindingUnknownVersion, "{{prompt:safety:7}}"},
		{"broken", "fr-FR", FindingDanglingPrompt, "{{prompt:ghost}}"},
		{"safety", "", FindingGuardVariable, "{{variable:name}}"},
	}, results)

	// Grouped by prompt
	for i := 1; i < len(findings); i++ {
		assert.LessOrEqual(t, findings[i-1].PromptID, findings[i].PromptID)
	}
}

func TestCheck_Clean(t *testing.T) {
	findings := Check(checkRecords(t, `
projects:
  - id: p
    prompts:
      - name: A
        versions:
          - tag: "1"
            text: "{{prompt:b}} {{asset:k}}"
        assets:
          - key: k
            versions:
              - tag: v1
                value: x
      - name: B
        versions:
          - tag: "1"
            text: "plain"
`))
	assert.Empty(t, findings)
}

func TestFindingString(t *testing.T) {
	f := Finding{
		Kind:       FindingDanglingPrompt,
		ProjectID:  "p",
		PromptID:   "a",
		VersionTag: "1",
		Language:   "fr-FR",
		Message:    "{{prompt:x}}: no prompt",
	}
	assert.Equal(t, "p/a@1 (fr-FR): dangling-prompt: {{prompt:x}}: no prompt", f.String())
}
