// Package pipeline sequences the bookmark enrichment run: extract the
// page, summarize it with the model, then persist content, tags,
// search vector and status in one unit of work.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calebhs/linkhive/internal/auth/context/loggercontext"
	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/models"
	"github.com/calebhs/linkhive/internal/summarize"
	"github.com/calebhs/linkhive/internal/types"
)

type BookmarkStore interface {
	GetById(ctx context.Context, id types.BookmarkId) (*models.Bookmark, error)
	MarkFailed(ctx context.Context, id types.BookmarkId, errorMessage string) error
	CompleteProcessing(ctx context.Context, run models.CompletedRun) error
}

type TagStore interface {
	EnsureTags(ctx context.Context, userId types.UserId, names []string) ([]types.TagId, error)
}

type ContentExtractor interface {
	ExtractFromURL(ctx context.Context, link string) (*types.ExtractedContent, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, input summarize.Input) (*summarize.Result, error)
}

// Processor is the state machine driving pending -> processed|failed.
// It does not coordinate concurrent runs on the same bookmark; the
// caller must guarantee at most one run per id at a time.
type Processor struct {
	Bookmarks  BookmarkStore
	Tags       TagStore
	Extractor  ContentExtractor
	Summarizer Summarizer
}

type ProcessOptions struct {
	ForceReprocess bool
}

// Result reports how a run ended. A failed run is a completed result,
// not an error: the failure is recorded on the bookmark row and the
// caller decides how to render it.
type Result struct {
	Status       types.BookmarkStatus
	ErrorMessage string
}

// Process runs the full enrichment pipeline for one bookmark. Fetch
// and summarization failures are terminal for the run and land on the
// bookmark as status=failed; persistence failures and a missing or
// foreign bookmark propagate as errors.
func (p *Processor) Process(ctx context.Context, userId types.UserId, bookmarkId types.BookmarkId, opts ProcessOptions) (*Result, error) {
	logger := loggercontext.Logger(ctx).With("bookmarkId", bookmarkId)

	bookmark, err := p.Bookmarks.GetById(ctx, bookmarkId)
	if err != nil {
		return nil, err
	}
	if bookmark.UserId != userId {
		// Not owned reads the same as missing.
		return nil, errors.ErrNotFound
	}

	if bookmark.Status != types.StatusPending && !opts.ForceReprocess {
		logger.Infow("bookmark already attempted, skipping", "status", bookmark.Status)
		return &Result{Status: bookmark.Status, ErrorMessage: bookmark.ErrorMessage}, nil
	}

	content, err := p.Extractor.ExtractFromURL(ctx, bookmark.Link)
	if err != nil {
		return p.failRun(ctx, logger, bookmarkId, fmt.Errorf("extracting content: %w", err))
	}

	summary, err := p.Summarizer.Summarize(ctx, summarize.Input{
		Url:             bookmark.Link,
		Title:           content.Title,
		MetaDescription: content.MetaDescription,
		ContentText:     content.TextContent,
		Language:        content.Language,
	})
	if err != nil {
		return p.failRun(ctx, logger, bookmarkId, fmt.Errorf("summarizing: %w", err))
	}

	// Persistence starts only now that both network stages succeeded.
	tagIds, err := p.Tags.EnsureTags(ctx, bookmark.UserId, summary.Tags)
	if err != nil {
		return nil, err
	}

	language := summary.Language
	if language == "" {
		language = content.Language
	}
	run := models.CompletedRun{
		BookmarkId:   bookmarkId,
		Title:        summary.Title,
		FaviconUrl:   content.FaviconUrl,
		SourceType:   content.SourceType,
		SummaryShort: summary.SummaryShort,
		SummaryLong:  summary.SummaryLong,
		Language:     language,
		ModelName:    summary.ModelName,
		ModelVersion: summary.ModelVersion,
		Markdown:     content.Markdown,
		TagIds:       tagIds,
	}
	if summary.Category != "" {
		run.Meta = map[string]any{"category": summary.Category}
	}
	if err := p.Bookmarks.CompleteProcessing(ctx, run); err != nil {
		return nil, err
	}

	logger.Infow("bookmark processed", "tags", len(tagIds), "language", language)
	return &Result{Status: types.StatusProcessed}, nil
}

// failRun records a terminal failure unless the run was cancelled, in
// which case nothing is written at all.
func (p *Processor) failRun(ctx context.Context, logger *zap.SugaredLogger, bookmarkId types.BookmarkId, runErr error) (*Result, error) {
	if errors.Is(runErr, context.Canceled) || ctx.Err() != nil {
		return nil, runErr
	}
	logger.Warnw("pipeline run failed", "error", runErr)
	message := runErr.Error()
	if err := p.Bookmarks.MarkFailed(ctx, bookmarkId, message); err != nil {
		return nil, err
	}
	return &Result{Status: types.StatusFailed, ErrorMessage: message}, nil
}
