package models

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/calebhs/linkhive/internal/types"
)

// SearchDocument is the weighted full-text document for one bookmark.
// Tier A carries the title, tier B the user's note and the short
// summary, tier C the long summary, so title matches always outrank
// long-summary matches.
type SearchDocument struct {
	TierA string
	TierB string
	TierC string
}

func BuildSearchDocument(title, description, summaryShort, summaryLong string) SearchDocument {
	tierB := description
	if summaryShort != "" {
		if tierB != "" {
			tierB += " "
		}
		tierB += summaryShort
	}
	return SearchDocument{
		TierA: title,
		TierB: tierB,
		TierC: summaryLong,
	}
}

// updateSearchVector persists the weighted document. It runs against a
// transaction during processing and against the pool on user edits.
func updateSearchVector(ctx context.Context, q querier, bookmarkId types.BookmarkId, doc SearchDocument) error {
	_, err := q.Exec(ctx, `
		UPDATE bookmark_contents
		SET search_vector =
			setweight(to_tsvector('english', $2), 'A') ||
			setweight(to_tsvector('english', $3), 'B') ||
			setweight(to_tsvector('english', $4), 'C')
		WHERE bookmark_id = $1`,
		bookmarkId, doc.TierA, doc.TierB, doc.TierC)
	if err != nil {
		return fmt.Errorf("update search vector: %w", err)
	}
	return nil
}

type SearchResult struct {
	BookmarkId types.BookmarkId
	Title      string
	Link       string
	Headline   string
	FaviconUrl string
	CreatedAt  time.Time
	Rank       float32
}

func (m *BookmarkModel) Search(ctx context.Context, userId types.UserId, query string) ([]SearchResult, error) {
	rows, err := m.Pool.Query(ctx, `
		WITH search_query AS (
			SELECT plainto_tsquery('english', $1) AS query
		)
		SELECT
			b.bookmark_id AS bookmark_id,
			b.title AS title,
			b.link AS link,
			ts_headline('english', concat_ws(' ', b.description, bc.summary_short, bc.summary_long), sq.query,
				'MaxFragments=2, StartSel=<strong>, StopSel=</strong>') AS headline,
			b.favicon_url AS favicon_url,
			b.created_at AS created_at,
			ts_rank(bc.search_vector, sq.query) AS rank
		FROM bookmarks b
		JOIN bookmark_contents bc ON b.bookmark_id = bc.bookmark_id
		CROSS JOIN search_query sq
		WHERE b.user_id = $2
			AND bc.search_vector @@ sq.query
		ORDER BY rank DESC
		LIMIT 10`, query, userId)
	if err != nil {
		return nil, fmt.Errorf("search bookmarks: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[SearchResult])
	if err != nil {
		return nil, fmt.Errorf("collect bookmark search rows: %w", err)
	}
	return results, nil
}
