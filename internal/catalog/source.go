package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Source when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Source is the read-only data access the resolver depends on.
// Implementations must be safe for concurrent use and must never hand out
// values that alias their internal state.
type Source interface {
	// PromptBySlug returns the prompt with the given slug in a project.
	PromptBySlug(ctx context.Context, projectID, slug string) (*Prompt, error)

	// LatestVersion returns the newest version of a prompt with its translations.
	LatestVersion(ctx context.Context, projectID, promptID string) (*Version, error)

	// VersionByTag returns the version with the given tag and its translations.
	VersionByTag(ctx context.Context, projectID, promptID, tag string) (*Version, error)

	// AssetsByKeys returns the prompt's assets whose key is in keys, each with
	// versions ordered newest first and their translations. Unknown keys are
	// simply absent from the result.
	AssetsByKeys(ctx context.Context, projectID, promptID string, keys []string) ([]Asset, error)
}

// Lister is implemented by sources that can enumerate their whole catalog.
// It backs linting and metrics, never resolution.
type Lister interface {
	ListRecords(ctx context.Context) ([]Record, error)
}

// Record is everything stored for one prompt. File, KV and SQL stores all
// exchange prompts in this shape.
type Record struct {
	Prompt   Prompt    `json:"prompt"`
	Versions []Version `json:"versions"` // newest first
	Assets   []Asset   `json:"assets"`
}

// Clone returns a deep copy of r.
func (r *Record) Clone() Record {
	out := Record{Prompt: r.Prompt}
	out.Versions = make([]Version, len(r.Versions))
	for i, v := range r.Versions {
		out.Versions[i] = v.clone()
	}
	out.Assets = make([]Asset, len(r.Assets))
	for i, a := range r.Assets {
		out.Assets[i] = a.clone()
	}
	return out
}

// Latest returns the newest version, if any.
func (r *Record) Latest() (*Version, bool) {
	if len(r.Versions) == 0 {
		return nil, false
	}
	v := r.Versions[0].clone()
	return &v, true
}

// VersionByTag returns a copy of the version tagged tag.
func (r *Record) VersionByTag(tag string) (*Version, bool) {
	for _, v := range r.Versions {
		if v.Tag == tag {
			c := v.clone()
			return &c, true
		}
	}
	return nil, false
}

// AssetsByKeys returns copies of the assets whose key is in keys, in the
// record's order.
func (r *Record) AssetsByKeys(keys []string) []Asset {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	var out []Asset
	for _, a := range r.Assets {
		if _, ok := want[a.Key]; ok {
			out = append(out, a.clone())
		}
	}
	return out
}

func (v Version) clone() Version {
	v.Translations = append([]Translation(nil), v.Translations...)
	return v
}

func (a Asset) clone() Asset {
	vs := make([]AssetVersion, len(a.Versions))
	for i, av := range a.Versions {
		av.Translations = append([]AssetTranslation(nil), av.Translations...)
		vs[i] = av
	}
	a.Versions = vs
	return a
}
