package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/promptr/internal/slug"
)

// Document is the on-disk catalog format. YAML and JSON are both accepted.
type Document struct {
	Projects []ProjectDoc `yaml:"projects" json:"projects"`
}

// ProjectDoc groups prompts under one project scope.
type ProjectDoc struct {
	ID      string      `yaml:"id" json:"id"`
	Prompts []PromptDoc `yaml:"prompts" json:"prompts"`
}

// PromptDoc describes one prompt. Slug defaults to the normalized Name.
type PromptDoc struct {
	Name     string       `yaml:"name" json:"name"`
	Slug     string       `yaml:"slug,omitempty" json:"slug,omitempty"`
	Type     string       `yaml:"type,omitempty" json:"type,omitempty"`
	Versions []VersionDoc `yaml:"versions" json:"versions"`
	Assets   []AssetDoc   `yaml:"assets,omitempty" json:"assets,omitempty"`
}

// VersionDoc is one prompt version. Later entries are newer when
// created_at is equal or absent.
type VersionDoc struct {
	Tag          string            `yaml:"tag" json:"tag"`
	Text         string            `yaml:"text" json:"text"`
	CreatedAt    time.Time         `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	Translations map[string]string `yaml:"translations,omitempty" json:"translations,omitempty"`
}

// AssetDoc is one asset key with its versions.
type AssetDoc struct {
	Key      string            `yaml:"key" json:"key"`
	Versions []AssetVersionDoc `yaml:"versions" json:"versions"`
}

// AssetVersionDoc is one asset value. Status defaults to active.
type AssetVersionDoc struct {
	Tag          string            `yaml:"tag" json:"tag"`
	Value        string            `yaml:"value" json:"value"`
	Status       string            `yaml:"status,omitempty" json:"status,omitempty"`
	CreatedAt    time.Time         `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	Translations map[string]string `yaml:"translations,omitempty" json:"translations,omitempty"`
}

// Decode reads a catalog document. Unknown fields are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and decodes the catalog at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// idSpace seeds the deterministic ids given to document entries, so the
// same document always yields the same version and asset ids.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/mark3labs/promptr"))

func docID(parts ...string) string {
	return uuid.NewSHA1(idSpace, []byte(strings.Join(parts, "\x00"))).String()
}

// Records validates the document and converts it to one Record per prompt.
func (d *Document) Records() ([]Record, error) {
	var out []Record
	projects := make(map[string]struct{})
	for _, p := range d.Projects {
		if p.ID == "" {
			return nil, errors.New("project id is required")
		}
		if _, dup := projects[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project %q", p.ID)
		}
		projects[p.ID] = struct{}{}

		slugs := make(map[string]struct{})
		for _, pd := range p.Prompts {
			rec, err := pd.record(p.ID)
			if err != nil {
				return nil, fmt.Errorf("project %q: %w", p.ID, err)
			}
			if _, dup := slugs[rec.Prompt.ID]; dup {
				return nil, fmt.Errorf("project %q: duplicate prompt slug %q", p.ID, rec.Prompt.ID)
			}
			slugs[rec.Prompt.ID] = struct{}{}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (pd PromptDoc) record(projectID string) (Record, error) {
	id := pd.Slug
	if id == "" {
		id = slug.Normalize(pd.Name)
	}
	if id == "" {
		return Record{}, fmt.Errorf("prompt %q has an empty slug", pd.Name)
	}
	if id != slug.Normalize(id) {
		return Record{}, fmt.Errorf("prompt %q: slug %q is not canonical", pd.Name, id)
	}
	typ, err := ParsePromptType(pd.Type)
	if err != nil {
		return Record{}, fmt.Errorf("prompt %q: %w", id, err)
	}
	name := pd.Name
	if name == "" {
		name = id
	}

	rec := Record{Prompt: Prompt{ID: id, ProjectID: projectID, Name: name, Type: typ}}

	tags := make(map[string]struct{})
	for i, vd := range pd.Versions {
		if err := checkTag(vd.Tag, tags); err != nil {
			return Record{}, fmt.Errorf("prompt %q: %w", id, err)
		}
		rec.Versions = append(rec.Versions, Version{
			ID:           docID(projectID, id, "version", vd.Tag),
			PromptID:     id,
			Tag:          vd.Tag,
			Text:         vd.Text,
			CreatedAt:    vd.CreatedAt,
			Seq:          int64(i + 1),
			Translations: promptTranslations(vd.Translations),
		})
	}
	SortVersions(rec.Versions)

	keys := make(map[string]struct{})
	for _, ad := range pd.Assets {
		if ad.Key == "" {
			return Record{}, fmt.Errorf("prompt %q: asset key is required", id)
		}
		if _, dup := keys[ad.Key]; dup {
			return Record{}, fmt.Errorf("prompt %q: duplicate asset key %q", id, ad.Key)
		}
		keys[ad.Key] = struct{}{}

		asset := Asset{
			ID:        docID(projectID, id, "asset", ad.Key),
			Key:       ad.Key,
			PromptID:  id,
			ProjectID: projectID,
		}
		atags := make(map[string]struct{})
		for i, avd := range ad.Versions {
			if err := checkTag(avd.Tag, atags); err != nil {
				return Record{}, fmt.Errorf("prompt %q asset %q: %w", id, ad.Key, err)
			}
			status := AssetStatus(avd.Status)
			if status == "" {
				status = StatusActive
			}
			asset.Versions = append(asset.Versions, AssetVersion{
				ID:           docID(projectID, id, "asset", ad.Key, avd.Tag),
				Tag:          avd.Tag,
				Value:        avd.Value,
				Status:       status,
				CreatedAt:    avd.CreatedAt,
				Seq:          int64(i + 1),
				Translations: assetTranslations(avd.Translations),
			})
		}
		SortAssetVersions(asset.Versions)
		rec.Assets = append(rec.Assets, asset)
	}
	return rec, nil
}

func checkTag(tag string, seen map[string]struct{}) error {
	if tag == "" {
		return errors.New("version tag is required")
	}
	if tag == LatestTag {
		return fmt.Errorf("version tag %q is reserved", LatestTag)
	}
	if _, dup := seen[tag]; dup {
		return fmt.Errorf("duplicate version tag %q", tag)
	}
	seen[tag] = struct{}{}
	return nil
}

func sortedLangs(m map[string]string) []string {
	langs := make([]string, 0, len(m))
	for l := range m {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

func promptTranslations(m map[string]string) []Translation {
	if len(m) == 0 {
		return nil
	}
	out := make([]Translation, 0, len(m))
	for _, l := range sortedLangs(m) {
		out = append(out, Translation{LanguageCode: l, Text: m[l]})
	}
	return out
}

func assetTranslations(m map[string]string) []AssetTranslation {
	if len(m) == 0 {
		return nil
	}
	out := make([]AssetTranslation, 0, len(m))
	for _, l := range sortedLangs(m) {
		out = append(out, AssetTranslation{LanguageCode: l, Value: m[l]})
	}
	return out
}
