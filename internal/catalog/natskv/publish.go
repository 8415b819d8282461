package natskv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/nats"
)

// PublishResult summarizes an import into the bucket.
type PublishResult struct {
	Written int
	Deleted int
}

// Publish writes every prompt of doc into kv. Prompts of the document's
// projects that are no longer in doc are deleted, so the bucket mirrors the
// document for those projects.
func Publish(ctx context.Context, kv jetstream.KeyValue, doc *catalog.Document) (PublishResult, error) {
	var res PublishResult

	records, err := doc.Records()
	if err != nil {
		return res, fmt.Errorf("invalid catalog: %w", err)
	}

	projects := make(map[string]struct{})
	for _, p := range doc.Projects {
		projects[p.ID] = struct{}{}
	}
	written := make(map[string]struct{}, len(records))

	for _, rec := range records {
		key, err := nats.KeyFor(rec.Prompt.ProjectID, rec.Prompt.ID)
		if err != nil {
			return res, err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return res, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if _, err := kv.Put(ctx, key, data); err != nil {
			return res, fmt.Errorf("failed to put %s: %w", key, err)
		}
		written[key] = struct{}{}
		res.Written++
	}

	keys, err := New(kv).keys(ctx)
	if err != nil {
		return res, err
	}
	for _, key := range keys {
		projectID, _, ok := nats.SplitKey(key)
		if !ok {
			continue
		}
		if _, inDoc := projects[projectID]; !inDoc {
			continue
		}
		if _, keep := written[key]; keep {
			continue
		}
		if err := kv.Delete(ctx, key); err != nil {
			return res, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		res.Deleted++
	}

	logger.Info("Published %d prompt(s) to %s, deleted %d", res.Written, nats.CatalogBucket, res.Deleted)
	return res, nil
}
