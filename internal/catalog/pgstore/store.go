// Package pgstore serves the prompt catalog from PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/mark3labs/promptr/internal/catalog"
)

const (
	promptBySlugQuery = `
        SELECT slug, project_id, name, type
        FROM prompts
        WHERE project_id = $1 AND slug = $2`
	listPromptsQuery = `
        SELECT slug, project_id, name, type
        FROM prompts
        ORDER BY project_id, slug`
	versionColumns = `
        SELECT id::text AS id, prompt_slug, version_tag, prompt_text, created_at, seq
        FROM prompt_versions`
	latestVersionQuery = versionColumns + `
        WHERE project_id = $1 AND prompt_slug = $2
        ORDER BY created_at DESC, seq DESC
        LIMIT 1`
	versionByTagQuery = versionColumns + `
        WHERE project_id = $1 AND prompt_slug = $2 AND version_tag = $3`
	allVersionsQuery = versionColumns + `
        WHERE project_id = $1 AND prompt_slug = $2
        ORDER BY created_at DESC, seq DESC`
	translationsQuery = `
        SELECT version_id::text AS version_id, language_code, prompt_text
        FROM prompt_translations
        WHERE version_id = ANY($1::uuid[])
        ORDER BY language_code`
	assetsByKeysQuery = `
        SELECT a.id::text AS asset_id, a.asset_key, v.id::text AS version_id, v.version_tag,
               v.value, v.status, v.created_at, v.seq
        FROM prompt_assets a
        JOIN prompt_asset_versions v ON v.asset_id = a.id
        WHERE a.project_id = $1 AND a.prompt_slug = $2 AND a.asset_key = ANY($3)
        ORDER BY a.asset_key, v.created_at DESC, v.seq DESC`
	allAssetsQuery = `
        SELECT a.id::text AS asset_id, a.asset_key, v.id::text AS version_id, v.version_tag,
               v.value, v.status, v.created_at, v.seq
        FROM prompt_assets a
        JOIN prompt_asset_versions v ON v.asset_id = a.id
        WHERE a.project_id = $1 AND a.prompt_slug = $2
        ORDER BY a.asset_key, v.created_at DESC, v.seq DESC`
	assetTranslationsQuery = `
        SELECT asset_version_id::text AS version_id, language_code, value
        FROM asset_translations
        WHERE asset_version_id = ANY($1::uuid[])
        ORDER BY language_code`
)

type promptRow struct {
	Slug      string `db:"slug"`
	ProjectID string `db:"project_id"`
	Name      string `db:"name"`
	Type      string `db:"type"`
}

type versionRow struct {
	ID         string    `db:"id"`
	PromptSlug string    `db:"prompt_slug"`
	Tag        string    `db:"version_tag"`
	Text       string    `db:"prompt_text"`
	CreatedAt  time.Time `db:"created_at"`
	Seq        int64     `db:"seq"`
}

type translationRow struct {
	VersionID    string `db:"version_id"`
	LanguageCode string `db:"language_code"`
	Text         string `db:"prompt_text"`
}

type assetRow struct {
	AssetID   string    `db:"asset_id"`
	Key       string    `db:"asset_key"`
	VersionID string    `db:"version_id"`
	Tag       string    `db:"version_tag"`
	Value     string    `db:"value"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	Seq       int64     `db:"seq"`
}

type assetTranslationRow struct {
	VersionID    string `db:"version_id"`
	LanguageCode string `db:"language_code"`
	Value        string `db:"value"`
}

// Store is a read-only catalog.Source over the catalog tables.
type Store struct {
	db pgxscan.Querier
}

// New creates a Store. db is usually a *pgxpool.Pool.
func New(db pgxscan.Querier) *Store {
	return &Store{db: db}
}

// PromptBySlug implements catalog.Source.
func (s *Store) PromptBySlug(ctx context.Context, projectID, slug string) (*catalog.Prompt, error) {
	var row promptRow
	if err := pgxscan.Get(ctx, s.db, &row, promptBySlugQuery, projectID, slug); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prompt %s: %w", slug, err)
	}
	return row.prompt()
}

func (r promptRow) prompt() (*catalog.Prompt, error) {
	typ, err := catalog.ParsePromptType(r.Type)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", r.Slug, err)
	}
	return &catalog.Prompt{ID: r.Slug, ProjectID: r.ProjectID, Name: r.Name, Type: typ}, nil
}

// LatestVersion implements catalog.Source.
func (s *Store) LatestVersion(ctx context.Context, projectID, promptID string) (*catalog.Version, error) {
	return s.version(ctx, latestVersionQuery, projectID, promptID)
}

// VersionByTag implements catalog.Source.
func (s *Store) VersionByTag(ctx context.Context, projectID, promptID, tag string) (*catalog.Version, error) {
	return s.version(ctx, versionByTagQuery, projectID, promptID, tag)
}

func (s *Store) version(ctx context.Context, query string, args ...any) (*catalog.Version, error) {
	var row versionRow
	if err := pgxscan.Get(ctx, s.db, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prompt version: %w", err)
	}
	versions, err := s.withTranslations(ctx, []versionRow{row})
	if err != nil {
		return nil, err
	}
	return &versions[0], nil
}

func (s *Store) withTranslations(ctx context.Context, rows []versionRow) ([]catalog.Version, error) {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var trs []translationRow
	if err := pgxscan.Select(ctx, s.db, &trs, translationsQuery, ids); err != nil {
		return nil, fmt.Errorf("failed to get prompt translations: %w", err)
	}
	byVersion := make(map[string][]catalog.Translation)
	for _, tr := range trs {
		byVersion[tr.VersionID] = append(byVersion[tr.VersionID], catalog.Translation{LanguageCode: tr.LanguageCode, Text: tr.Text})
	}

	out := make([]catalog.Version, len(rows))
	for i, r := range rows {
		out[i] = catalog.Version{
			ID:           r.ID,
			PromptID:     r.PromptSlug,
			Tag:          r.Tag,
			Text:         r.Text,
			CreatedAt:    r.CreatedAt,
			Seq:          r.Seq,
			Translations: byVersion[r.ID],
		}
	}
	return out, nil
}

// AssetsByKeys implements catalog.Source.
func (s *Store) AssetsByKeys(ctx context.Context, projectID, promptID string, keys []string) ([]catalog.Asset, error) {
	return s.assets(ctx, assetsByKeysQuery, projectID, promptID, keys)
}

func (s *Store) assets(ctx context.Context, query string, projectID, promptID string, args ...any) ([]catalog.Asset, error) {
	var rows []assetRow
	if err := pgxscan.Select(ctx, s.db, &rows, query, append([]any{projectID, promptID}, args...)...); err != nil {
		return nil, fmt.Errorf("failed to get assets of prompt %s: %w", promptID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.VersionID
	}
	var trs []assetTranslationRow
	if err := pgxscan.Select(ctx, s.db, &trs, assetTranslationsQuery, ids); err != nil {
		return nil, fmt.Errorf("failed to get asset translations: %w", err)
	}
	byVersion := make(map[string][]catalog.AssetTranslation)
	for _, tr := range trs {
		byVersion[tr.VersionID] = append(byVersion[tr.VersionID], catalog.AssetTranslation{LanguageCode: tr.LanguageCode, Value: tr.Value})
	}

	// Rows arrive grouped by key, newest version first within a key.
	var out []catalog.Asset
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].ID != r.AssetID {
			out = append(out, catalog.Asset{ID: r.AssetID, Key: r.Key, PromptID: promptID, ProjectID: projectID})
		}
		a := &out[len(out)-1]
		a.Versions = append(a.Versions, catalog.AssetVersion{
			ID:           r.VersionID,
			Tag:          r.Tag,
			Value:        r.Value,
			Status:       catalog.AssetStatus(r.Status),
			CreatedAt:    r.CreatedAt,
			Seq:          r.Seq,
			Translations: byVersion[r.VersionID],
		})
	}
	return out, nil
}

// ListRecords implements catalog.Lister.
func (s *Store) ListRecords(ctx context.Context) ([]catalog.Record, error) {
	var prompts []promptRow
	if err := pgxscan.Select(ctx, s.db, &prompts, listPromptsQuery); err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	out := make([]catalog.Record, 0, len(prompts))
	for _, pr := range prompts {
		p, err := pr.prompt()
		if err != nil {
			return nil, err
		}
		var vrows []versionRow
		if err := pgxscan.Select(ctx, s.db, &vrows, allVersionsQuery, p.ProjectID, p.ID); err != nil {
			return nil, fmt.Errorf("failed to list versions of %s: %w", p.ID, err)
		}
		rec := catalog.Record{Prompt: *p}
		if len(vrows) > 0 {
			if rec.Versions, err = s.withTranslations(ctx, vrows); err != nil {
				return nil, err
			}
		}
		if rec.Assets, err = s.assets(ctx, allAssetsQuery, p.ProjectID, p.ID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
