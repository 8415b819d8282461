package natskv

import (
	"context"
	"strings"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/nats"
	"github.com/mark3labs/promptr/internal/resolver"
)

const testCatalog = `
projects:
  - id: default-project
    prompts:
      - name: Greeting
        versions:
          - tag: "1"
            text: "Hello {{asset:greeting}}"
          - tag: "2"
            text: "Hi {{asset:greeting}} {{prompt:sign-off}}"
            translations:
              fr-FR: "Salut {{asset:greeting}} {{prompt:sign-off}}"
        assets:
          - key: greeting
            versions:
              - tag: v1
                value: World
                translations: {fr-FR: Monde}
      - name: Sign Off
        versions:
          - tag: "1"
            text: "Bye"
`

func setupKV(t *testing.T) jetstream.KeyValue {
	t.Helper()
	ns, err := nats.StartEmbeddedNATS(t.TempDir())
	if err != nil {
		t.Fatalf("failed to start NATS: %v", err)
	}
	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		t.Fatalf("failed to connect to NATS: %v", err)
	}
	t.Cleanup(func() { _ = nats.Shutdown(nc, ns) })

	js, err := nats.CreateJetStream(nc)
	if err != nil {
		t.Fatalf("failed to create JetStream: %v", err)
	}
	kv, err := nats.SetupCatalogBucket(context.Background(), js)
	if err != nil {
		t.Fatalf("failed to setup bucket: %v", err)
	}
	return kv
}

func decode(t *testing.T, yml string) *catalog.Document {
	t.Helper()
	doc, err := catalog.Decode(strings.NewReader(yml))
	require.NoError(t, err)
	return doc
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)

	res, err := Publish(ctx, kv, decode(t, testCatalog))
	require.NoError(t, err)
	assert.Equal(t, PublishResult{Written: 2}, res)

	store := New(kv)

	t.Run("PromptBySlug", func(t *testing.T) {
		p, err := store.PromptBySlug(ctx, "default-project", "greeting")
		require.NoError(t, err)
		assert.Equal(t, "Greeting", p.Name)
		assert.Equal(t, catalog.TypeUser, p.Type)

		_, err = store.PromptBySlug(ctx, "default-project", "nope")
		assert.ErrorIs(t, err, catalog.ErrNotFound)

		_, err = store.PromptBySlug(ctx, "bad project", "greeting")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("versions", func(t *testing.T) {
		v, err := store.LatestVersion(ctx, "default-project", "greeting")
		require.NoError(t, err)
		assert.Equal(t, "2", v.Tag)

		v, err = store.VersionByTag(ctx, "default-project", "greeting", "1")
		require.NoError(t, err)
		assert.Equal(t, "Hello {{asset:greeting}}", v.Text)

		_, err = store.VersionByTag(ctx, "default-project", "greeting", "3")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("AssetsByKeys", func(t *testing.T) {
		assets, err := store.AssetsByKeys(ctx, "default-project", "greeting", []string{"greeting", "other"})
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "World", assets[0].Versions[0].Value)

		assets, err = store.AssetsByKeys(ctx, "default-project", "nope", []string{"greeting"})
		require.NoError(t, err)
		assert.Empty(t, assets)
	})

	t.Run("ListRecords", func(t *testing.T) {
		records, err := store.ListRecords(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "greeting", records[0].Prompt.ID)
		assert.Equal(t, "sign-off", records[1].Prompt.ID)
	})

	t.Run("resolves through the engine", func(t *testing.T) {
		out, err := resolver.New(store).Execute(ctx, resolver.Request{
			ProjectID: "default-project",
			Prompt:    "Greeting",
			Language:  "fr-FR",
		})
		require.NoError(t, err)
		assert.Equal(t, "Salut Monde Bye", out.Text)
	})
}

func TestStoreReadsOneRevisionPerLevel(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)

	_, err := Publish(ctx, kv, decode(t, testCatalog))
	require.NoError(t, err)
	store := New(kv)

	_, err = store.PromptBySlug(ctx, "default-project", "greeting")
	require.NoError(t, err)

	_, err = Publish(ctx, kv, decode(t, `
projects:
  - id: default-project
    prompts:
      - name: Greeting
        versions:
          - tag: "3"
            text: "Hey {{asset:greeting}}"
        assets:
          - key: greeting
            versions: [{tag: v2, value: Universe}]
`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		refresh   bool
		wantTag   string
		wantAsset string
	}{
		{name: "lookups after PromptBySlug keep its revision", wantTag: "2", wantAsset: "World"},
		{name: "next PromptBySlug picks up the new revision", refresh: true, wantTag: "3", wantAsset: "Universe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.refresh {
				_, err := store.PromptBySlug(ctx, "default-project", "greeting")
				require.NoError(t, err)
			}
			v, err := store.LatestVersion(ctx, "default-project", "greeting")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTag, v.Tag)

			assets, err := store.AssetsByKeys(ctx, "default-project", "greeting", []string{"greeting"})
			require.NoError(t, err)
			require.Len(t, assets, 1)
			assert.Equal(t, tt.wantAsset, assets[0].Versions[0].Value)
		})
	}

	t.Run("deleted prompt is dropped", func(t *testing.T) {
		_, err := Publish(ctx, kv, decode(t, `
projects:
  - id: default-project
    prompts:
      - name: Sign Off
        versions: [{tag: "1", text: "Bye"}]
`))
		require.NoError(t, err)

		_, err = store.PromptBySlug(ctx, "default-project", "greeting")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		_, err = store.LatestVersion(ctx, "default-project", "greeting")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("returned values do not alias the cache", func(t *testing.T) {
		v, err := store.LatestVersion(ctx, "default-project", "sign-off")
		require.NoError(t, err)
		v.Text = "mutated"

		v, err = store.LatestVersion(ctx, "default-project", "sign-off")
		require.NoError(t, err)
		assert.Equal(t, "Bye", v.Text)
	})
}

func TestPublishPrunes(t *testing.T) {
	ctx := context.Background()
	kv := setupKV(t)

	_, err := Publish(ctx, kv, decode(t, testCatalog))
	require.NoError(t, err)
	_, err = Publish(ctx, kv, decode(t, `
projects:
  - id: other-project
    prompts:
      - name: Untouched
        versions: [{tag: "1", text: x}]
`))
	require.NoError(t, err)

	res, err := Publish(ctx, kv, decode(t, `
projects:
  - id: default-project
    prompts:
      - name: Greeting
        versions: [{tag: "1", text: only}]
`))
	require.NoError(t, err)
	assert.Equal(t, PublishResult{Written: 1, Deleted: 1}, res)

	store := New(kv)
	_, err = store.PromptBySlug(ctx, "default-project", "sign-off")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = store.PromptBySlug(ctx, "other-project", "untouched")
	assert.NoError(t, err, "other projects are left alone")
}

func TestPublishRejectsInvalidDocument(t *testing.T) {
	kv := setupKV(t)
	_, err := Publish(context.Background(), kv, decode(t, "projects: [{prompts: []}]"))
	assert.Error(t, err)
}
