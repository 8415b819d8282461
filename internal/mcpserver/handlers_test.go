package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/metrics"
	"github.com/mark3labs/promptr/internal/resolver"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
projects:
  - id: default-project
    prompts:
      - name: Greeting
        type: user
        versions:
          - tag: "1"
            text: "Hello {{asset:who}}, {{variable:name}}"
            created_at: 2025-01-01T00:00:00Z
          - tag: "2"
            text: "Hi {{asset:who}}, {{variable:name}}"
            created_at: 2025-02-01T00:00:00Z
            translations:
              fr-FR: "Salut {{asset:who}}, {{variable:name}}"
        assets:
          - key: who
            versions:
              - tag: v1
                value: World
                translations:
                  fr-FR: Monde
      - name: Safety
        type: guard
        versions:
          - tag: "1"
            text: "Be kind."
            created_at: 2025-01-01T00:00:00Z
  - id: other
    prompts:
      - name: Greeting
        versions:
          - tag: "1"
            text: "Other project"
            created_at: 2025-01-01T00:00:00Z
`

// setupTestServer creates a server over an in-memory catalog. Tools are
// registered without starting the HTTP listener.
func setupTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	doc, err := catalog.Decode(strings.NewReader(testCatalog))
	require.NoError(t, err)
	mem, err := catalog.FromDocument(doc)
	require.NoError(t, err)

	if opts.Project == "" {
		opts.Project = "default-project"
	}
	return New(resolver.New(mem), opts)
}

// extractText extracts text from CallToolResult.Content[0]
func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestHandleResolve_Success(t *testing.T) {
	srv := setupTestServer(t, Options{})

	result, err := srv.handleResolve(context.Background(), callTool("resolve-prompt", map[string]any{
		"prompt":    "greeting",
		"language":  "fr-FR",
		"variables": map[string]any{"name": "Ann"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(result))

	var res resolver.Result
	require.NoError(t, json.Unmarshal([]byte(extractText(result)), &res))
	assert.Equal(t, "Salut Monde, Ann", res.Text)
	assert.Equal(t, "2", res.Metadata.PromptVersionTag)
	assert.Equal(t, "fr-FR", res.Metadata.LanguageUsed)
	assert.Equal(t, []string{"name"}, res.Metadata.VariablesProvided)
}

func TestHandleResolve_Defaults(t *testing.T) {
	srv := setupTestServer(t, Options{Language: "fr-FR"})

	t.Run("server language applies", func(t *testing.T) {
		result, err := srv.handleResolve(context.Background(), callTool("resolve-prompt", map[string]any{
			"prompt": "Greeting",
		}))
		require.NoError(t, err)
		assert.Contains(t, extractText(result), `"processedText": "Salut Monde, {{variable:name}}"`)
	})

	t.Run("explicit version and project", func(t *testing.T) {
		result, err := srv.handleResolve(context.Background(), callTool("resolve-prompt", map[string]any{
			"prompt":   "greeting",
			"project":  "other",
			"version":  "1",
			"language": "",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError, extractText(result))
		// An empty language keeps the server default, which has no translation here
		assert.Contains(t, extractText(result), `"processedText": "Other project"`)
	})
}

func TestHandleResolve_InvalidArguments(t *testing.T) {
	srv := setupTestServer(t, Options{})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no arguments", nil, "no arguments provided"},
		{"missing prompt", map[string]any{}, "missing or invalid 'prompt'"},
		{"blank prompt", map[string]any{"prompt": "  "}, "missing or invalid 'prompt'"},
		{"non-string version", map[string]any{"prompt": "greeting", "version": 2}, "'version' must be a string"},
		{"variables not an object", map[string]any{"prompt": "greeting", "variables": "x"}, "'variables' must be an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleResolve(context.Background(), callTool("resolve-prompt", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractText(result), tt.want)
		})
	}
}

func TestHandleResolve_EngineErrors(t *testing.T) {
	rec := metrics.New()
	srv := setupTestServer(t, Options{Metrics: rec})

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{
			name: "unknown prompt",
			args: map[string]any{"prompt": "nope"},
			want: []string{"404:", `prompt "nope" not found`},
		},
		{
			name: "unknown version",
			args: map[string]any{"prompt": "greeting", "version": "9"},
			want: []string{"404:", "hint: use \"latest\""},
		},
		{
			name: "guard with variables",
			args: map[string]any{"prompt": "safety", "variables": map[string]any{"x": 1}},
			want: []string{"400:", "hint: resolve guard prompts without variables"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleResolve(context.Background(), callTool("resolve-prompt", tt.args))
			require.NoError(t, err)
			require.True(t, result.IsError)
			text := extractText(result)
			for _, want := range tt.want {
				assert.Contains(t, text, want)
			}
		})
	}

	expected := `
# HELP promptr_resolutions_total Prompt resolutions, partitioned by outcome.
# TYPE promptr_resolutions_total counter
promptr_resolutions_total{outcome="bad_request"} 1
promptr_resolutions_total{outcome="not_found"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "promptr_resolutions_total"))
}

func TestHandleScan(t *testing.T) {
	srv := setupTestServer(t, Options{})

	result, err := srv.handleScan(context.Background(), callTool("scan-placeholders", map[string]any{
		"text": "Hi {{asset:who}} {{variable:}} {{prompt:b:1:fr-FR}} {{asset:",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report scanReport
	require.NoError(t, json.Unmarshal([]byte(extractText(result)), &report))
	require.Len(t, report.Placeholders, 2)
	assert.Equal(t, "{{asset:who}}", report.Placeholders[0].Literal)
	assert.Equal(t, "{{prompt:b:1:fr-FR}}", report.Placeholders[1].Literal)

	require.Len(t, report.Issues, 2)
	assert.Equal(t, "{{variable:}}", report.Issues[0].Literal)
	assert.Equal(t, "unterminated", report.Issues[1].Reason)
}

func TestHandleScan_MissingText(t *testing.T) {
	srv := setupTestServer(t, Options{})

	result, err := srv.handleScan(context.Background(), callTool("scan-placeholders", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(result), "missing or invalid 'text'")
}

func TestServer_StartStop(t *testing.T) {
	srv := setupTestServer(t, Options{Metrics: metrics.New()})

	port, err := srv.Start(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, port)
	assert.Contains(t, srv.URL(), "/mcp")

	_, err = srv.Start(context.Background())
	assert.Error(t, err, "second start fails")

	resp, err := http.Get(strings.TrimSuffix(srv.URL(), "/mcp") + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "promptr_catalog_prompts")

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop(), "stop is idempotent")
}
