package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/types"
	"github.com/calebhs/linkhive/internal/validations"
)

const PageSize = 20

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Bookmark struct {
	BookmarkId      types.BookmarkId
	UserId          types.UserId
	Link            string
	NormalizedLink  string
	Title           string
	Description     string
	Status          types.BookmarkStatus
	ErrorMessage    string
	FaviconUrl      string
	SourceType      string
	CreatedAt       time.Time
	LastProcessedAt *time.Time
}

type BookmarkModel struct {
	Pool *pgxpool.Pool
}

// Create inserts a pending bookmark. The normalized link is the dedup
// key: a second submission of the same page by the same owner fails
// with ErrDuplicateUrl instead of being reprocessed.
func (m *BookmarkModel) Create(ctx context.Context, userId types.UserId, req types.CreateBookmarkRequest) (*Bookmark, error) {
	if !validations.IsURLValid(req.Link) {
		return nil, errors.Public(errors.ErrInvalidUrl, "Invalid URL")
	}

	bookmark := Bookmark{
		BookmarkId:     types.BookmarkId(uuid.NewString()),
		UserId:         userId,
		Link:           req.Link,
		NormalizedLink: validations.NormalizeLink(req.Link),
		Title:          validations.CleanUpText(req.Title),
		Description:    validations.CleanUpText(req.Description),
		Status:         types.StatusPending,
	}

	row := m.Pool.QueryRow(ctx, `
		INSERT INTO bookmarks (bookmark_id, user_id, link, normalized_link, title, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		bookmark.BookmarkId, userId, bookmark.Link, bookmark.NormalizedLink,
		bookmark.Title, bookmark.Description, bookmark.Status)
	err := row.Scan(&bookmark.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, errors.Public(errors.ErrDuplicateUrl, "This link is already saved")
		}
		return nil, fmt.Errorf("bookmark create: %w", err)
	}
	return &bookmark, nil
}

func (m *BookmarkModel) GetById(ctx context.Context, id types.BookmarkId) (*Bookmark, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT * FROM bookmarks WHERE bookmark_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query bookmark by id: %w", err)
	}
	bookmark, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Bookmark])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("bookmark by id: %w", err)
	}
	return &bookmark, nil
}

func (m *BookmarkModel) GetByNormalizedLink(ctx context.Context, userId types.UserId, link string) (*Bookmark, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT *
		FROM bookmarks
		WHERE user_id = $1 AND normalized_link = $2`, userId, validations.NormalizeLink(link))
	if err != nil {
		return nil, fmt.Errorf("query bookmark by link: %w", err)
	}
	bookmark, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Bookmark])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("bookmark by link: %w", err)
	}
	return &bookmark, nil
}

func (m *BookmarkModel) GetByUserId(ctx context.Context, userId types.UserId, page int) ([]Bookmark, bool, error) {
	row := m.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`, userId)
	var count int
	err := row.Scan(&count)
	if err != nil {
		return nil, false, fmt.Errorf("count bookmarks: %w", err)
	}
	if count == 0 {
		return []Bookmark{}, false, nil
	}

	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * PageSize
	rows, err := m.Pool.Query(ctx, `
		SELECT *
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
		OFFSET $3`, userId, PageSize, offset)
	if err != nil {
		return nil, false, fmt.Errorf("query bookmarks by user id: %w", err)
	}
	bookmarks, err := pgx.CollectRows(rows, pgx.RowToStructByName[Bookmark])
	if err != nil {
		return nil, false, fmt.Errorf("collect bookmarks: %w", err)
	}
	morePages := offset+PageSize < count
	return bookmarks, morePages, nil
}

func (m *BookmarkModel) Delete(ctx context.Context, id types.BookmarkId) error {
	_, err := m.Pool.Exec(ctx, `DELETE FROM bookmarks WHERE bookmark_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// UpdateDetails is the user-edit path for title and note. The search
// vector is rebuilt in the same transaction so the index never drifts
// from displayed content.
func (m *BookmarkModel) UpdateDetails(ctx context.Context, id types.BookmarkId, title, description string) error {
	title = validations.CleanUpText(title)
	description = validations.CleanUpText(description)

	tx, err := m.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update details: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE bookmarks SET title = $2, description = $3 WHERE bookmark_id = $1`,
		id, title, description)
	if err != nil {
		return fmt.Errorf("update bookmark details: %w", err)
	}

	var summaryShort, summaryLong string
	err = tx.QueryRow(ctx, `
		SELECT summary_short, summary_long FROM bookmark_contents WHERE bookmark_id = $1`, id).
		Scan(&summaryShort, &summaryLong)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("read summaries for vector rebuild: %w", err)
	}
	if err == nil {
		doc := BuildSearchDocument(title, description, summaryShort, summaryLong)
		if err := updateSearchVector(ctx, tx, id, doc); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// MarkFailed records a terminal run failure on the bookmark row. The
// row itself is the durable record of the failure; nothing else from
// the failed run is persisted.
func (m *BookmarkModel) MarkFailed(ctx context.Context, id types.BookmarkId, errorMessage string) error {
	_, err := m.Pool.Exec(ctx, `
		UPDATE bookmarks
		SET status = $2, error_message = $3, last_processed_at = now()
		WHERE bookmark_id = $1`,
		id, types.StatusFailed, errorMessage)
	if err != nil {
		return fmt.Errorf("mark bookmark failed: %w", err)
	}
	return nil
}

// CompletedRun carries everything a successful pipeline run persists.
type CompletedRun struct {
	BookmarkId   types.BookmarkId
	Title        string
	FaviconUrl   string
	SourceType   types.SourceType
	SummaryShort string
	SummaryLong  string
	Language     string
	ModelName    string
	ModelVersion string
	Markdown     string
	Meta         map[string]any
	TagIds       []types.TagId
}

// CompleteProcessing persists the results of a successful run in one
// transaction: content upsert, tag-edge merge, search vector rebuild
// and the status flip to processed. A failure partway leaves the
// bookmark untouched, so status never reads processed with partial
// writes behind it.
func (m *BookmarkModel) CompleteProcessing(ctx context.Context, run CompletedRun) error {
	tx, err := m.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete processing: %w", err)
	}
	defer tx.Rollback(ctx)

	var title, description string
	err = tx.QueryRow(ctx, `
		SELECT title, description FROM bookmarks WHERE bookmark_id = $1 FOR UPDATE`,
		run.BookmarkId).Scan(&title, &description)
	if err != nil {
		return fmt.Errorf("lock bookmark row: %w", err)
	}

	// The model's title is only adopted when the user supplied none.
	if title == "" {
		title = validations.CleanUpText(run.Title)
	}

	if err := upsertContent(ctx, tx, run); err != nil {
		return err
	}
	if err := mergeBookmarkTags(ctx, tx, run.BookmarkId, run.TagIds); err != nil {
		return err
	}

	doc := BuildSearchDocument(title, description, run.SummaryShort, run.SummaryLong)
	if err := updateSearchVector(ctx, tx, run.BookmarkId, doc); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookmarks
		SET status = $2,
			error_message = '',
			title = $3,
			favicon_url = $4,
			source_type = $5,
			last_processed_at = now()
		WHERE bookmark_id = $1`,
		run.BookmarkId, types.StatusProcessed, title, run.FaviconUrl, run.SourceType)
	if err != nil {
		return fmt.Errorf("mark bookmark processed: %w", err)
	}

	return tx.Commit(ctx)
}
