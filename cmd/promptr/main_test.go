package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliCatalog = `
projects:
  - id: default-project
    prompts:
      - name: Greeting
        versions:
          - tag: "1"
            text: "Hello {{asset:who}}"
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
      - name: Broken
        versions:
          - tag: "1"
            text: "{{prompt:ghost}}"
`

// isolate runs a test in an empty directory with no global config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, key := range []string{"STORE", "CATALOG", "PROJECT", "LANGUAGE", "MAX_DEPTH"} {
		t.Setenv("PROMPTR_"+key, "")
	}
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts.yml"), []byte(cliCatalog), 0o644))
	return dir
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "resolve", "greeting", "--lang", "fr-FR", "--var", "name=Ann")
	require.NoError(t, err)
	assert.Equal(t, "Salut Monde, Ann\n", out)

	out, err = run(t, "resolve", "Greeting", "--version", "1", "--lang", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello World\n", out)

	_, err = run(t, "resolve", "nope", "--version", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `prompt "nope" not found`)
}

func TestScanCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan found 1 problem(s)")
	assert.Contains(t, out, "default-project/broken@1: dangling-prompt")
	assert.Contains(t, out, "2 prompt(s) scanned")
}

func TestSetupCommand(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "setup", "--local")
	require.NoError(t, err)
	assert.Contains(t, out, "promptr.yml")
	assert.FileExists(t, filepath.Join(dir, "promptr.yml"))

	_, err = run(t, "setup", "--local")
	assert.ErrorContains(t, err, "already exists")
}

func TestLoadVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vars.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: Ann\ncount: 3\ntags: [a, b]\n"), 0o644))

	t.Run("file then pairs", func(t *testing.T) {
		vars, err := loadVariables(path, []string{"name=Bob", "city = Paris=Centre"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"name":  "Bob",
			"count": 3,
			"tags":  []any{"a", "b"},
			"city":  " Paris=Centre",
		}, vars)
	})

	t.Run("none", func(t *testing.T) {
		vars, err := loadVariables("", nil)
		require.NoError(t, err)
		assert.Nil(t, vars)
	})

	t.Run("invalid pair", func(t *testing.T) {
		_, err := loadVariables("", []string{"novalue"})
		assert.ErrorContains(t, err, "want name=value")
		_, err = loadVariables("", []string{"=x"})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadVariables(filepath.Join(dir, "nope.yml"), nil)
		assert.ErrorContains(t, err, "failed to read variables file")
	})
}

func TestWithHints(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, withHints(plain))

	hinted := errors.WithHint(errors.New("boom"), "try again")
	err := withHints(hinted)
	assert.Equal(t, "boom\nhint: try again", err.Error())
	assert.True(t, errors.Is(err, hinted))
}
