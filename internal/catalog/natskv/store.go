// Package natskv serves the prompt catalog from a NATS JetStream KeyValue
// bucket. Each prompt is one JSON-encoded catalog.Record under the key
// "<project>.<slug>".
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/nats"
)

// Store is a read-only catalog.Source over a KV bucket.
//
// PromptBySlug always reads the bucket and caches the decoded record with its
// revision. The version and asset lookups that follow for the same prompt are
// served from that cached record, so one resolution level sees one revision
// even while a Publish is in flight.
type Store struct {
	kv jetstream.KeyValue

	mu    sync.Mutex
	cache map[string]cachedRecord
}

type cachedRecord struct {
	revision uint64
	rec      *catalog.Record
}

// New creates a Store reading from kv.
func New(kv jetstream.KeyValue) *Store {
	return &Store{kv: kv, cache: make(map[string]cachedRecord)}
}

// load reads the current revision of a prompt from the bucket. A revision
// already decoded is reused.
func (s *Store) load(ctx context.Context, projectID, slug string) (*catalog.Record, error) {
	key, err := nats.KeyFor(projectID, slug)
	if err != nil {
		// Such a key can never have been written.
		return nil, catalog.ErrNotFound
	}
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		s.mu.Lock()
		delete(s.cache, key)
		s.mu.Unlock()
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	s.mu.Lock()
	c, ok := s.cache[key]
	s.mu.Unlock()
	if ok && c.revision == entry.Revision() {
		return c.rec, nil
	}

	var rec catalog.Record
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	catalog.SortVersions(rec.Versions)
	for i := range rec.Assets {
		catalog.SortAssetVersions(rec.Assets[i].Versions)
	}

	s.mu.Lock()
	// Never step back to an older revision loaded concurrently.
	if c, ok := s.cache[key]; !ok || c.revision < entry.Revision() {
		s.cache[key] = cachedRecord{revision: entry.Revision(), rec: &rec}
	}
	s.mu.Unlock()
	return &rec, nil
}

// record returns the cached record of a prompt, loading it when absent.
// Cached records are shared and must not be modified.
func (s *Store) record(ctx context.Context, projectID, slug string) (*catalog.Record, error) {
	if key, err := nats.KeyFor(projectID, slug); err == nil {
		s.mu.Lock()
		c, ok := s.cache[key]
		s.mu.Unlock()
		if ok {
			return c.rec, nil
		}
	}
	return s.load(ctx, projectID, slug)
}

// PromptBySlug implements catalog.Source.
func (s *Store) PromptBySlug(ctx context.Context, projectID, slug string) (*catalog.Prompt, error) {
	rec, err := s.load(ctx, projectID, slug)
	if err != nil {
		return nil, err
	}
	p := rec.Prompt
	return &p, nil
}

// LatestVersion implements catalog.Source.
func (s *Store) LatestVersion(ctx context.Context, projectID, promptID string) (*catalog.Version, error) {
	rec, err := s.record(ctx, projectID, promptID)
	if err != nil {
		return nil, err
	}
	v, ok := rec.Latest()
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return v, nil
}

// VersionByTag implements catalog.Source.
func (s *Store) VersionByTag(ctx context.Context, projectID, promptID, tag string) (*catalog.Version, error) {
	rec, err := s.record(ctx, projectID, promptID)
	if err != nil {
		return nil, err
	}
	v, ok := rec.VersionByTag(tag)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return v, nil
}

// AssetsByKeys implements catalog.Source.
func (s *Store) AssetsByKeys(ctx context.Context, projectID, promptID string, keys []string) ([]catalog.Asset, error) {
	rec, err := s.record(ctx, projectID, promptID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.AssetsByKeys(keys), nil
}

// ListRecords implements catalog.Lister.
func (s *Store) ListRecords(ctx context.Context) ([]catalog.Record, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Record, 0, len(keys))
	for _, key := range keys {
		projectID, slug, ok := nats.SplitKey(key)
		if !ok {
			logger.Warn("Ignoring malformed catalog key %q", key)
			continue
		}
		rec, err := s.load(ctx, projectID, slug)
		if errors.Is(err, catalog.ErrNotFound) {
			// Deleted between listing and reading.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

// keys returns every key in the bucket, sorted.
func (s *Store) keys(ctx context.Context) ([]string, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog keys: %w", err)
	}
	defer lister.Stop()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
