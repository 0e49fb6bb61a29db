package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/types"
)

type Tag struct {
	Id     types.TagId
	UserId types.UserId
	Name   string
}

type TagModel struct {
	Pool *pgxpool.Pool
}

// EnsureTags resolves names to tag ids for one owner, creating missing
// tags. Names are trimmed and lowercased first. Safe to call
// concurrently for the same owner: a unique-violation on insert means
// another caller won the race, so the tag is re-read instead.
func (m *TagModel) EnsureTags(ctx context.Context, userId types.UserId, names []string) ([]types.TagId, error) {
	var ids []types.TagId
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		id, err := m.ensureTag(ctx, userId, name)
		if err != nil {
			return nil, fmt.Errorf("ensure tag %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *TagModel) ensureTag(ctx context.Context, userId types.UserId, name string) (types.TagId, error) {
	var id types.TagId
	err := m.Pool.QueryRow(ctx, `
		SELECT id FROM tags WHERE user_id = $1 AND name = $2`, userId, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("look up tag: %w", err)
	}

	err = m.Pool.QueryRow(ctx, `
		INSERT INTO tags (user_id, name)
		VALUES ($1, $2)
		RETURNING id`, userId, name).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Lost the create race; the tag exists now.
			err = m.Pool.QueryRow(ctx, `
				SELECT id FROM tags WHERE user_id = $1 AND name = $2`, userId, name).Scan(&id)
			if err != nil {
				return 0, fmt.Errorf("re-read tag after conflict: %w", err)
			}
			return id, nil
		}
		return 0, fmt.Errorf("insert tag: %w", err)
	}
	return id, nil
}

func (m *TagModel) GetForBookmark(ctx context.Context, bookmarkId types.BookmarkId) ([]Tag, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT t.id, t.user_id, t.name
		FROM tags t
		JOIN bookmark_tags bt ON bt.tag_id = t.id
		WHERE bt.bookmark_id = $1
		ORDER BY t.name`, bookmarkId)
	if err != nil {
		return nil, fmt.Errorf("query bookmark tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, pgx.RowToStructByName[Tag])
	if err != nil {
		return nil, fmt.Errorf("collect bookmark tags: %w", err)
	}
	return tags, nil
}

// Detach removes a single user-managed tag edge. The pipeline never
// calls this; it only ever widens the edge set.
func (m *TagModel) Detach(ctx context.Context, bookmarkId types.BookmarkId, tagId types.TagId) error {
	_, err := m.Pool.Exec(ctx, `
		DELETE FROM bookmark_tags WHERE bookmark_id = $1 AND tag_id = $2`, bookmarkId, tagId)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return nil
}

// unionTagIds returns existing with any new ids from incoming appended,
// preserving order and dropping duplicates. The merge invariant lives
// here: the result is always a superset of existing.
func unionTagIds(existing, incoming []types.TagId) []types.TagId {
	union := make([]types.TagId, 0, len(existing)+len(incoming))
	seen := make(map[types.TagId]bool, len(existing)+len(incoming))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	for _, id := range incoming {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}
	return union
}

// mergeBookmarkTags writes back the union of the bookmark's current
// edge set and tagIds. The visible effect is always "old union new" --
// the delete below only clears the way for rewriting the full union,
// never narrows it. A destructive replace here was a prior defect.
func mergeBookmarkTags(ctx context.Context, tx pgx.Tx, bookmarkId types.BookmarkId, tagIds []types.TagId) error {
	rows, err := tx.Query(ctx, `
		SELECT tag_id FROM bookmark_tags WHERE bookmark_id = $1 ORDER BY tag_id`, bookmarkId)
	if err != nil {
		return fmt.Errorf("read current tag edges: %w", err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[types.TagId])
	if err != nil {
		return fmt.Errorf("collect current tag edges: %w", err)
	}

	union := unionTagIds(existing, tagIds)

	_, err = tx.Exec(ctx, `DELETE FROM bookmark_tags WHERE bookmark_id = $1`, bookmarkId)
	if err != nil {
		return fmt.Errorf("clear tag edges: %w", err)
	}
	for _, id := range union {
		_, err = tx.Exec(ctx, `
			INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES ($1, $2)`, bookmarkId, id)
		if err != nil {
			return fmt.Errorf("insert tag edge: %w", err)
		}
	}
	return nil
}

// AttachToBookmark adds edges outside a processing run (tags the user
// supplied at creation time, or manual additions). Conflicting edges
// already on the bookmark are kept as-is.
func (m *TagModel) AttachToBookmark(ctx context.Context, bookmarkId types.BookmarkId, tagIds []types.TagId) error {
	for _, id := range tagIds {
		_, err := m.Pool.Exec(ctx, `
			INSERT INTO bookmark_tags (bookmark_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, bookmarkId, id)
		if err != nil {
			return fmt.Errorf("attach tag: %w", err)
		}
	}
	return nil
}
