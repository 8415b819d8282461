// Package catalog holds the prompt data model and the read-only Source port
// the resolver consumes, along with the file-backed implementations.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PromptType drives reference and variable policy.
type PromptType string

const (
	TypeSystem PromptType = "SYSTEM"
	TypeUser   PromptType = "USER"
	TypeGuard  PromptType = "GUARD"
)

// ParsePromptType parses a prompt type name, case-insensitively.
// An empty string yields TypeUser.
func ParsePromptType(s string) (PromptType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(TypeUser):
		return TypeUser, nil
	case string(TypeSystem):
		return TypeSystem, nil
	case string(TypeGuard):
		return TypeGuard, nil
	default:
		return "", fmt.Errorf("invalid prompt type: %s", s)
	}
}

// LatestTag is the reserved version selector meaning "most recently created".
const LatestTag = "latest"

// Prompt is identified by (ProjectID, ID) where ID is the canonical slug.
type Prompt struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"projectId"`
	Name      string     `json:"name"`
	Type      PromptType `json:"type"`
}

// Version is an immutable snapshot of a prompt's text.
type Version struct {
	ID           string        `json:"id"`
	PromptID     string        `json:"promptId"`
	Tag          string        `json:"versionTag"`
	Text         string        `json:"promptText"`
	CreatedAt    time.Time     `json:"createdAt"`
	Seq          int64         `json:"seq"` // stable secondary order, higher is newer
	Translations []Translation `json:"translations,omitempty"`
}

// Translation is a version's text in one language.
type Translation struct {
	LanguageCode string `json:"languageCode"`
	Text         string `json:"promptText"`
}

// Translation returns the translation for lang, if any.
func (v *Version) Translation(lang string) (Translation, bool) {
	for _, t := range v.Translations {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return Translation{}, false
}

// AssetStatus is the lifecycle state of an asset version.
type AssetStatus string

const (
	StatusActive   AssetStatus = "active"
	StatusInactive AssetStatus = "inactive"
)

// Asset is a reusable fragment scoped to one prompt in one project.
type Asset struct {
	ID        string         `json:"id"`
	Key       string         `json:"key"`
	PromptID  string         `json:"promptId"`
	ProjectID string         `json:"projectId"`
	Versions  []AssetVersion `json:"versions"` // newest first
}

// AssetVersion is one value of an asset.
type AssetVersion struct {
	ID           string             `json:"id"`
	Tag          string             `json:"versionTag"`
	Value        string             `json:"value"`
	Status       AssetStatus        `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	Seq          int64              `json:"seq"`
	Translations []AssetTranslation `json:"translations,omitempty"`
}

// AssetTranslation is an asset version's value in one language.
type AssetTranslation struct {
	LanguageCode string `json:"languageCode"`
	Value        string `json:"value"`
}

// Translation returns the translation for lang, if any.
func (v *AssetVersion) Translation(lang string) (AssetTranslation, bool) {
	for _, t := range v.Translations {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return AssetTranslation{}, false
}

// VersionByTag returns the version tagged tag.
func (a *Asset) VersionByTag(tag string) (*AssetVersion, bool) {
	for i := range a.Versions {
		if a.Versions[i].Tag == tag {
			return &a.Versions[i], true
		}
	}
	return nil, false
}

// NewestActive returns the newest version whose status is active.
// Versions must already be ordered newest first.
func (a *Asset) NewestActive() (*AssetVersion, bool) {
	for i := range a.Versions {
		if a.Versions[i].Status == StatusActive {
			return &a.Versions[i], true
		}
	}
	return nil, false
}

// newer reports whether (at, aseq) sorts before (bt, bseq) in newest-first order.
func newer(at time.Time, aseq int64, bt time.Time, bseq int64) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return aseq > bseq
}

// SortVersions orders versions newest first: by creation time, then Seq.
func SortVersions(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		return newer(vs[i].CreatedAt, vs[i].Seq, vs[j].CreatedAt, vs[j].Seq)
	})
}

// SortAssetVersions orders asset versions newest first.
func SortAssetVersions(vs []AssetVersion) {
	sort.SliceStable(vs, func(i, j int) bool {
		return newer(vs[i].CreatedAt, vs[i].Seq, vs[j].CreatedAt, vs[j].Seq)
	})
}
