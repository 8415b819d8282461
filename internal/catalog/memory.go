package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type recordKey struct {
	project string
	slug    string
}

// Memory is an in-process Source over a fixed set of records. Replace swaps
// the whole set atomically, which is how file reloads are applied.
type Memory struct {
	mu      sync.RWMutex
	records map[recordKey]*Record
}

// NewMemory builds a Memory from records.
func NewMemory(records []Record) *Memory {
	m := &Memory{}
	m.Replace(records)
	return m
}

// FromDocument validates doc and builds a Memory from it.
func FromDocument(doc *Document) (*Memory, error) {
	records, err := doc.Records()
	if err != nil {
		return nil, err
	}
	return NewMemory(records), nil
}

// FromFile loads the catalog at path into a Memory.
func FromFile(path string) (*Memory, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Replace swaps in a new record set.
func (m *Memory) Replace(records []Record) {
	next := make(map[recordKey]*Record, len(records))
	for i := range records {
		rec := records[i].Clone()
		next[recordKey{rec.Prompt.ProjectID, rec.Prompt.ID}] = &rec
	}
	m.mu.Lock()
	m.records = next
	m.mu.Unlock()
}

// Records returns copies of all records ordered by project then slug.
func (m *Memory) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prompt.ProjectID != out[j].Prompt.ProjectID {
			return out[i].Prompt.ProjectID < out[j].Prompt.ProjectID
		}
		return out[i].Prompt.ID < out[j].Prompt.ID
	})
	return out
}

// ListRecords implements Lister.
func (m *Memory) ListRecords(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Records(), nil
}

func (m *Memory) get(projectID, slug string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordKey{projectID, slug}]
	return rec, ok
}

// PromptBySlug implements Source.
func (m *Memory) PromptBySlug(ctx context.Context, projectID, slug string) (*Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := m.get(projectID, slug)
	if !ok {
		return nil, ErrNotFound
	}
	p := rec.Prompt
	return &p, nil
}

// LatestVersion implements Source.
func (m *Memory) LatestVersion(ctx context.Context, projectID, promptID string) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := m.get(projectID, promptID)
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := rec.Latest()
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// VersionByTag implements Source.
func (m *Memory) VersionByTag(ctx context.Context, projectID, promptID, tag string) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := m.get(projectID, promptID)
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := rec.VersionByTag(tag)
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// AssetsByKeys implements Source.
func (m *Memory) AssetsByKeys(ctx context.Context, projectID, promptID string, keys []string) ([]Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := m.get(projectID, promptID)
	if !ok {
		return nil, nil
	}
	return rec.AssetsByKeys(keys), nil
}
