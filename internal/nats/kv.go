package nats

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// CatalogBucket is the KeyValue bucket holding one entry per prompt.
const CatalogBucket = "promptr_catalog"

// SetupCatalogBucket creates or updates the catalog bucket. A small history
// is kept so earlier catalog imports can be inspected.
func SetupCatalogBucket(ctx context.Context, js jetstream.JetStream) (jetstream.KeyValue, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      CatalogBucket,
		Description: "promptr prompt catalog",
		History:     5,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s bucket: %w", CatalogBucket, err)
	}
	return kv, nil
}

// KeyFor returns the KV key of a prompt: "<project>.<slug>".
// Example: "default-project.greeting-assistant"
func KeyFor(projectID, slug string) (string, error) {
	for _, part := range []string{projectID, slug} {
		if part == "" || !validToken(part) {
			return "", fmt.Errorf("invalid catalog key token %q", part)
		}
	}
	return projectID + "." + slug, nil
}

// ProjectFilter returns the key pattern matching every prompt of a project.
func ProjectFilter(projectID string) string {
	return projectID + ".*"
}

// SplitKey is the inverse of KeyFor.
func SplitKey(key string) (projectID, slug string, ok bool) {
	projectID, slug, ok = strings.Cut(key, ".")
	if !ok || projectID == "" || slug == "" || strings.Contains(slug, ".") {
		return "", "", false
	}
	return projectID, slug, true
}

// validToken reports whether s is usable as one dot-free KV key token.
func validToken(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '=':
		default:
			return false
		}
	}
	return true
}
