package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/slug"
)

const testProject = "default-project"

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeSource is an in-memory catalog.Source that counts calls and can be told
// to fail specific methods.
type fakeSource struct {
	mu       sync.Mutex
	prompts  map[string]*catalog.Prompt
	versions map[string][]catalog.Version // newest first
	assets   map[string][]catalog.Asset
	fail     map[string]error
	calls    map[string]int
	keys     [][]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		prompts:  make(map[string]*catalog.Prompt),
		versions: make(map[string][]catalog.Version),
		assets:   make(map[string][]catalog.Asset),
		fail:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

// addPrompt stores a prompt whose versions are tagged "1", "2", ... in the
// order given; the last text is the latest.
func (f *fakeSource) addPrompt(name string, typ catalog.PromptType, texts ...string) string {
	id := slug.Normalize(name)
	f.prompts[id] = &catalog.Prompt{ID: id, ProjectID: testProject, Name: name, Type: typ}
	var vs []catalog.Version
	for i, text := range texts {
		tag := fmt.Sprint(i + 1)
		vs = append(vs, catalog.Version{
			ID:        id + "@" + tag,
			PromptID:  id,
			Tag:       tag,
			Text:      text,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Hour),
			Seq:       int64(i + 1),
		})
	}
	catalog.SortVersions(vs)
	f.versions[id] = vs
	return id
}

func (f *fakeSource) addTranslation(id, tag, lang, text string) {
	vs := f.versions[id]
	for i := range vs {
		if vs[i].Tag == tag {
			vs[i].Translations = append(vs[i].Translations, catalog.Translation{LanguageCode: lang, Text: text})
		}
	}
}

// addAsset stores an asset whose versions are listed oldest first.
func (f *fakeSource) addAsset(promptID, key string, versions ...catalog.AssetVersion) {
	for i := range versions {
		if versions[i].ID == "" {
			versions[i].ID = key + "@" + versions[i].Tag
		}
		if versions[i].Seq == 0 {
			versions[i].Seq = int64(i + 1)
			versions[i].CreatedAt = baseTime.Add(time.Duration(i) * time.Hour)
		}
		if versions[i].Status == "" {
			versions[i].Status = catalog.StatusActive
		}
	}
	// Stored oldest first; the resolver must order them itself.
	f.assets[promptID] = append(f.assets[promptID], catalog.Asset{
		ID:        promptID + "/" + key,
		Key:       key,
		PromptID:  promptID,
		ProjectID: testProject,
		Versions:  versions,
	})
}

func (f *fakeSource) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeSource) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fail[method]
}

func (f *fakeSource) PromptBySlug(ctx context.Context, projectID, id string) (*catalog.Prompt, error) {
	if err := f.enter(ctx, "PromptBySlug"); err != nil {
		return nil, err
	}
	p, ok := f.prompts[id]
	if !ok || projectID != testProject {
		return nil, catalog.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeSource) LatestVersion(ctx context.Context, projectID, promptID string) (*catalog.Version, error) {
	if err := f.enter(ctx, "LatestVersion"); err != nil {
		return nil, err
	}
	vs := f.versions[promptID]
	if len(vs) == 0 || projectID != testProject {
		return nil, catalog.ErrNotFound
	}
	v := vs[0]
	v.Translations = append([]catalog.Translation(nil), v.Translations...)
	return &v, nil
}

func (f *fakeSource) VersionByTag(ctx context.Context, projectID, promptID, tag string) (*catalog.Version, error) {
	if err := f.enter(ctx, "VersionByTag"); err != nil {
		return nil, err
	}
	for _, v := range f.versions[promptID] {
		if v.Tag == tag && projectID == testProject {
			v.Translations = append([]catalog.Translation(nil), v.Translations...)
			return &v, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeSource) AssetsByKeys(ctx context.Context, projectID, promptID string, keys []string) ([]catalog.Asset, error) {
	if err := f.enter(ctx, "AssetsByKeys"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.keys = append(f.keys, append([]string(nil), keys...))
	f.mu.Unlock()

	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []catalog.Asset
	for _, a := range f.assets[promptID] {
		if want[a.Key] && projectID == testProject {
			a.Versions = append([]catalog.AssetVersion(nil), a.Versions...)
			out = append(out, a)
		}
	}
	return out, nil
}
