package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/logger"
)

const (
	upsertPromptQuery = `
        INSERT INTO prompts (project_id, slug, name, type)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (project_id, slug) DO UPDATE SET
            name = EXCLUDED.name,
            type = EXCLUDED.type`
	clearVersionsQuery = `DELETE FROM prompt_versions WHERE project_id = $1 AND prompt_slug = $2`
	clearAssetsQuery   = `DELETE FROM prompt_assets WHERE project_id = $1 AND prompt_slug = $2`
	insertVersionQuery = `
        INSERT INTO prompt_versions (id, project_id, prompt_slug, version_tag, prompt_text, created_at, seq)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	insertTranslationQuery = `
        INSERT INTO prompt_translations (version_id, language_code, prompt_text)
        VALUES ($1, $2, $3)`
	insertAssetQuery = `
        INSERT INTO prompt_assets (id, project_id, prompt_slug, asset_key)
        VALUES ($1, $2, $3, $4)`
	insertAssetVersionQuery = `
        INSERT INTO prompt_asset_versions (id, asset_id, version_tag, value, status, created_at, seq)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	insertAssetTranslationQuery = `
        INSERT INTO asset_translations (asset_version_id, language_code, value)
        VALUES ($1, $2, $3)`
	prunePromptsQuery = `
        DELETE FROM prompts
        WHERE project_id = $1 AND NOT (slug = ANY($2))`
)

// ImportResult summarizes an import.
type ImportResult struct {
	Written int
	Deleted int
}

// Import replaces the stored catalog of every project in doc with doc's
// contents, in one transaction. Other projects are left alone.
func Import(ctx context.Context, pool *pgxpool.Pool, doc *catalog.Document) (ImportResult, error) {
	var res ImportResult

	records, err := doc.Records()
	if err != nil {
		return res, fmt.Errorf("invalid catalog: %w", err)
	}
	slugs := make(map[string][]string)
	for _, p := range doc.Projects {
		slugs[p.ID] = []string{}
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := writeRecord(ctx, tx, rec); err != nil {
				return fmt.Errorf("prompt %s: %w", rec.Prompt.ID, err)
			}
			slugs[rec.Prompt.ProjectID] = append(slugs[rec.Prompt.ProjectID], rec.Prompt.ID)
			res.Written++
		}
		for projectID, keep := range slugs {
			tag, err := tx.Exec(ctx, prunePromptsQuery, projectID, keep)
			if err != nil {
				return fmt.Errorf("failed to prune project %s: %w", projectID, err)
			}
			res.Deleted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to import catalog: %w", err)
	}

	logger.Info("Imported %d prompt(s) into postgres, deleted %d", res.Written, res.Deleted)
	return res, nil
}

func writeRecord(ctx context.Context, tx pgx.Tx, rec catalog.Record) error {
	p := rec.Prompt
	if _, err := tx.Exec(ctx, upsertPromptQuery, p.ProjectID, p.ID, p.Name, string(p.Type)); err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}
	if _, err := tx.Exec(ctx, clearVersionsQuery, p.ProjectID, p.ID); err != nil {
		return fmt.Errorf("failed to clear versions: %w", err)
	}
	if _, err := tx.Exec(ctx, clearAssetsQuery, p.ProjectID, p.ID); err != nil {
		return fmt.Errorf("failed to clear assets: %w", err)
	}

	batch := &pgx.Batch{}
	for _, v := range rec.Versions {
		batch.Queue(insertVersionQuery, v.ID, p.ProjectID, p.ID, v.Tag, v.Text, v.CreatedAt, v.Seq)
		for _, tr := range v.Translations {
			batch.Queue(insertTranslationQuery, v.ID, tr.LanguageCode, tr.Text)
		}
	}
	for _, a := range rec.Assets {
		batch.Queue(insertAssetQuery, a.ID, p.ProjectID, p.ID, a.Key)
		for _, av := range a.Versions {
			batch.Queue(insertAssetVersionQuery, av.ID, a.ID, av.Tag, av.Value, string(av.Status), av.CreatedAt, av.Seq)
			for _, tr := range av.Translations {
				batch.Queue(insertAssetTranslationQuery, av.ID, tr.LanguageCode, tr.Value)
			}
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert versions and assets: %w", err)
	}
	return nil
}
