package models

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/types"
	"github.com/calebhs/linkhive/internal/validations"
)

// BookmarkContent holds the enrichment output for one bookmark. It is
// overwritten by each successful processing run; user edits of the
// summaries go through UpdateSummaries and survive until the next
// explicit reprocess.
type BookmarkContent struct {
	BookmarkId   types.BookmarkId
	SummaryShort string
	SummaryLong  string
	Language     string
	ModelName    string
	ModelVersion string
	Markdown     *string
	Meta         map[string]any
	UpdatedAt    time.Time
}

type ContentModel struct {
	Pool *pgxpool.Pool
}

func (m *ContentModel) GetByBookmarkId(ctx context.Context, id types.BookmarkId) (*BookmarkContent, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT bookmark_id, summary_short, summary_long, language,
			model_name, model_version, markdown, meta, updated_at
		FROM bookmark_contents WHERE bookmark_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query bookmark content: %w", err)
	}
	content, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[BookmarkContent])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("bookmark content: %w", err)
	}
	return &content, nil
}

func (m *ContentModel) GetMarkdown(ctx context.Context, id types.BookmarkId) (string, error) {
	var markdown *string
	err := m.Pool.QueryRow(ctx, `
		SELECT markdown FROM bookmark_contents WHERE bookmark_id = $1`, id).Scan(&markdown)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errors.ErrNotFound
		}
		return "", fmt.Errorf("query bookmark markdown: %w", err)
	}
	if markdown == nil || *markdown == "" {
		return "", errors.ErrNotFound
	}
	return *markdown, nil
}

// UpdateSummaries is the user-edit path for the summary text. Like
// UpdateDetails on the bookmark, it rebuilds the search vector in the
// same transaction.
func (m *ContentModel) UpdateSummaries(ctx context.Context, id types.BookmarkId, summaryShort, summaryLong string) error {
	summaryShort = validations.CleanUpText(summaryShort)
	summaryLong = validations.CleanUpText(summaryLong)

	tx, err := m.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update summaries: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE bookmark_contents
		SET summary_short = $2, summary_long = $3, updated_at = now()
		WHERE bookmark_id = $1`, id, summaryShort, summaryLong)
	if err != nil {
		return fmt.Errorf("update summaries: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}

	var title, description string
	err = tx.QueryRow(ctx, `
		SELECT title, description FROM bookmarks WHERE bookmark_id = $1`, id).
		Scan(&title, &description)
	if err != nil {
		return fmt.Errorf("read bookmark for vector rebuild: %w", err)
	}

	doc := BuildSearchDocument(title, description, summaryShort, summaryLong)
	if err := updateSearchVector(ctx, tx, id, doc); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func upsertContent(ctx context.Context, tx pgx.Tx, run CompletedRun) error {
	var markdown *string
	if run.Markdown != "" {
		markdown = &run.Markdown
	}
	meta := run.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO bookmark_contents
			(bookmark_id, summary_short, summary_long, language, model_name, model_version, markdown, meta, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (bookmark_id) DO UPDATE SET
			summary_short = EXCLUDED.summary_short,
			summary_long = EXCLUDED.summary_long,
			language = EXCLUDED.language,
			model_name = EXCLUDED.model_name,
			model_version = EXCLUDED.model_version,
			markdown = EXCLUDED.markdown,
			meta = EXCLUDED.meta,
			updated_at = now()`,
		run.BookmarkId, run.SummaryShort, run.SummaryLong, run.Language,
		run.ModelName, run.ModelVersion, markdown, meta)
	if err != nil {
		return fmt.Errorf("upsert bookmark content: %w", err)
	}
	return nil
}
