package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/calebhs/linkhive/internal/auth/context/loggercontext"
	"github.com/calebhs/linkhive/internal/auth/context/usercontext"
	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/models"
	"github.com/calebhs/linkhive/internal/pipeline"
	"github.com/calebhs/linkhive/internal/types"
	"github.com/calebhs/linkhive/internal/validations"
)

// Bookmarks exposes the bookmark API. Processing runs inline on the
// handling request; the singleflight group guarantees at most one
// concurrent pipeline run per bookmark id, which the orchestrator
// itself does not.
type Bookmarks struct {
	BookmarkModel *models.BookmarkModel
	ContentModel  *models.ContentModel
	TagModel      *models.TagModel
	Processor     *pipeline.Processor

	processGroup singleflight.Group
}

type ErrorResponse struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

type bookmarkResponse struct {
	Id              types.BookmarkId `json:"id"`
	Link            string           `json:"link"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Status          string           `json:"status"`
	ErrorMessage    string           `json:"errorMessage,omitempty"`
	FaviconUrl      string           `json:"faviconUrl,omitempty"`
	SourceType      string           `json:"sourceType,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	LastProcessedAt *time.Time       `json:"lastProcessedAt,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	SummaryShort    string           `json:"summaryShort,omitempty"`
	SummaryLong     string           `json:"summaryLong,omitempty"`
	Language        string           `json:"language,omitempty"`
}

// Create handles POST /v1/bookmarks: insert the pending bookmark,
// attach any user-supplied tags, then run the enrichment pipeline
// inline and respond with the final state.
func (b *Bookmarks) Create(w http.ResponseWriter, r *http.Request) {
	user := usercontext.User(r.Context())
	logger := loggercontext.Logger(r.Context())

	var req types.CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}
	bookmark, err := b.BookmarkModel.Create(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidUrl) {
			logger.Infow("rejected invalid url", "link", req.Link)
			writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
				Code:    "INVALID_URL",
				Message: publicMessage(err, "Invalid URL"),
			})
			return
		}
		if errors.Is(err, errors.ErrDuplicateUrl) {
			// Conflict responses carry the existing row so clients can
			// link to it instead of retrying.
			if existing, lookupErr := b.BookmarkModel.GetByNormalizedLink(r.Context(), user.ID, req.Link); lookupErr == nil {
				b.respondWithBookmark(w, r, existing.BookmarkId, http.StatusConflict)
				return
			}
			writeErrorResponse(w, http.StatusConflict, ErrorResponse{
				Code:    "DUPLICATE_URL",
				Message: publicMessage(err, "This link is already saved"),
			})
			return
		}
		logger.Errorw("create bookmark", "error", err, "link", req.Link)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}

	// User tags go on before processing so the pipeline's merge sees
	// them and can only ever widen the set.
	if len(req.Tags) > 0 {
		tagIds, err := b.TagModel.EnsureTags(r.Context(), user.ID, req.Tags)
		if err == nil {
			err = b.TagModel.AttachToBookmark(r.Context(), bookmark.BookmarkId, tagIds)
		}
		if err != nil {
			logger.Errorw("attach user tags", "error", err, "id", bookmark.BookmarkId)
			writeErrorResponse(w, http.StatusInternalServerError, internalError())
			return
		}
	}

	if _, err := b.runPipeline(r, user.ID, bookmark.BookmarkId, pipeline.ProcessOptions{}); err != nil {
		logger.Errorw("process bookmark", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}

	b.respondWithBookmark(w, r, bookmark.BookmarkId, http.StatusCreated)
}

// Reprocess handles POST /v1/bookmarks/{id}/reprocess and re-runs the
// full pipeline regardless of current status.
func (b *Bookmarks) Reprocess(w http.ResponseWriter, r *http.Request) {
	user := usercontext.User(r.Context())
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}

	_, err := b.runPipeline(r, user.ID, bookmark.BookmarkId, pipeline.ProcessOptions{ForceReprocess: true})
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, notFoundError())
			return
		}
		logger.Errorw("reprocess bookmark", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}

	b.respondWithBookmark(w, r, bookmark.BookmarkId, http.StatusOK)
}

// Outer bound for one pipeline run: fetch, model retries with backoff
// and the persistence writes.
const pipelineTimeout = 2 * time.Minute

// runPipeline funnels all processing through a per-bookmark
// singleflight group: a duplicate request for the same id joins the
// in-flight run instead of racing it on the tag edge set. The run is
// detached from the triggering request's cancellation, since joined
// callers outlive the first one; it gets its own deadline instead.
func (b *Bookmarks) runPipeline(r *http.Request, userId types.UserId, id types.BookmarkId, opts pipeline.ProcessOptions) (*pipeline.Result, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), pipelineTimeout)
	defer cancel()

	v, err, _ := b.processGroup.Do(string(id), func() (interface{}, error) {
		return b.Processor.Process(ctx, userId, id, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

func (b *Bookmarks) Show(w http.ResponseWriter, r *http.Request) {
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}
	b.respondWithBookmark(w, r, bookmark.BookmarkId, http.StatusOK)
}

func (b *Bookmarks) Index(w http.ResponseWriter, r *http.Request) {
	user := usercontext.User(r.Context())
	logger := loggercontext.Logger(r.Context())
	page := validations.GetPageOffset(r.FormValue("page"))

	bookmarks, morePages, err := b.BookmarkModel.GetByUserId(r.Context(), user.ID, page)
	if err != nil {
		logger.Errorw("fetching bookmarks", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}

	var data struct {
		Bookmarks []types.BookmarkListItem `json:"bookmarks"`
		MorePages bool                     `json:"morePages"`
	}
	data.Bookmarks = make([]types.BookmarkListItem, 0, len(bookmarks))
	data.MorePages = morePages
	for _, bm := range bookmarks {
		data.Bookmarks = append(data.Bookmarks, types.BookmarkListItem{
			Id:        bm.BookmarkId,
			Title:     bm.Title,
			Link:      bm.Link,
			Status:    string(bm.Status),
			CreatedAt: bm.CreatedAt,
		})
	}
	writeResponse(w, r, data)
}

func (b *Bookmarks) Delete(w http.ResponseWriter, r *http.Request) {
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}
	if err := b.BookmarkModel.Delete(r.Context(), bookmark.BookmarkId); err != nil {
		logger.Errorw("delete bookmark", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Update handles PATCH /v1/bookmarks/{id}: the user-edit path for
// title and note. The pipeline never touches the note.
func (b *Bookmarks) Update(w http.ResponseWriter, r *http.Request) {
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}
	title := bookmark.Title
	if req.Title != nil {
		title = *req.Title
	}
	description := bookmark.Description
	if req.Description != nil {
		description = *req.Description
	}

	if err := b.BookmarkModel.UpdateDetails(r.Context(), bookmark.BookmarkId, title, description); err != nil {
		logger.Errorw("update bookmark", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}
	b.respondWithBookmark(w, r, bookmark.BookmarkId, http.StatusOK)
}

// UpdateSummaries handles PUT /v1/bookmarks/{id}/summary: hand-edited
// summaries that a later non-forced run must not clobber.
func (b *Bookmarks) UpdateSummaries(w http.ResponseWriter, r *http.Request) {
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}

	var req struct {
		SummaryShort string `json:"summaryShort"`
		SummaryLong  string `json:"summaryLong"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	err := b.ContentModel.UpdateSummaries(r.Context(), bookmark.BookmarkId, req.SummaryShort, req.SummaryLong)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeErrorResponse(w, http.StatusConflict, ErrorResponse{
				Code:    "NOT_PROCESSED",
				Message: "Bookmark has no content to edit yet",
			})
			return
		}
		logger.Errorw("update summaries", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}
	b.respondWithBookmark(w, r, bookmark.BookmarkId, http.StatusOK)
}

func (b *Bookmarks) Markdown(w http.ResponseWriter, r *http.Request) {
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}
	markdown, err := b.ContentModel.GetMarkdown(r.Context(), bookmark.BookmarkId)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, ErrorResponse{
				Code:    "NO_MARKDOWN",
				Message: "No markdown content available for this bookmark",
			})
			return
		}
		logger.Errorw("get markdown", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, markdown)
}

func (b *Bookmarks) Search(w http.ResponseWriter, r *http.Request) {
	user := usercontext.User(r.Context())
	logger := loggercontext.Logger(r.Context())
	query := r.URL.Query().Get("q")
	if query == "" {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Query parameter q is required",
		})
		return
	}

	results, err := b.BookmarkModel.Search(r.Context(), user.ID, query)
	if err != nil {
		logger.Errorw("search bookmarks", "error", err, "query", query)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}

	var data struct {
		Results []models.SearchResult `json:"results"`
	}
	data.Results = results
	if data.Results == nil {
		data.Results = []models.SearchResult{}
	}
	writeResponse(w, r, data)
}

// AddTags handles POST /v1/bookmarks/{id}/tags: manual tag additions.
func (b *Bookmarks) AddTags(w http.ResponseWriter, r *http.Request) {
	user := usercontext.User(r.Context())
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}

	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Names) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Request body must contain tag names",
		})
		return
	}

	tagIds, err := b.TagModel.EnsureTags(r.Context(), user.ID, req.Names)
	if err == nil {
		err = b.TagModel.AttachToBookmark(r.Context(), bookmark.BookmarkId, tagIds)
	}
	if err != nil {
		logger.Errorw("add tags", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}
	b.respondWithBookmark(w, r, bookmark.BookmarkId, http.StatusOK)
}

// RemoveTag handles DELETE /v1/bookmarks/{id}/tags/{tagId}. Only users
// remove tag edges; the pipeline never does.
func (b *Bookmarks) RemoveTag(w http.ResponseWriter, r *http.Request) {
	logger := loggercontext.Logger(r.Context())
	bookmark, ok := b.getBookmark(w, r)
	if !ok {
		return
	}

	var tagId types.TagId
	if _, err := fmt.Sscanf(chi.URLParam(r, "tagId"), "%d", &tagId); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Invalid tag id",
		})
		return
	}
	if err := b.TagModel.Detach(r.Context(), bookmark.BookmarkId, tagId); err != nil {
		logger.Errorw("remove tag", "error", err, "id", bookmark.BookmarkId)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bookmarks) respondWithBookmark(w http.ResponseWriter, r *http.Request, id types.BookmarkId, status int) {
	logger := loggercontext.Logger(r.Context())
	bookmark, err := b.BookmarkModel.GetById(r.Context(), id)
	if err != nil {
		logger.Errorw("reload bookmark for response", "error", err, "id", id)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return
	}

	resp := bookmarkResponse{
		Id:              bookmark.BookmarkId,
		Link:            bookmark.Link,
		Title:           bookmark.Title,
		Description:     bookmark.Description,
		Status:          string(bookmark.Status),
		ErrorMessage:    bookmark.ErrorMessage,
		FaviconUrl:      bookmark.FaviconUrl,
		SourceType:      bookmark.SourceType,
		CreatedAt:       bookmark.CreatedAt,
		LastProcessedAt: bookmark.LastProcessedAt,
	}

	if content, err := b.ContentModel.GetByBookmarkId(r.Context(), id); err == nil {
		resp.SummaryShort = content.SummaryShort
		resp.SummaryLong = content.SummaryLong
		resp.Language = content.Language
	} else if !errors.Is(err, errors.ErrNotFound) {
		logger.Errorw("load bookmark content", "error", err, "id", id)
	}

	if tags, err := b.TagModel.GetForBookmark(r.Context(), id); err == nil {
		for _, tag := range tags {
			resp.Tags = append(resp.Tags, tag.Name)
		}
	} else {
		logger.Errorw("load bookmark tags", "error", err, "id", id)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorw("encoding response", "error", err)
	}
}

func (b *Bookmarks) getBookmark(w http.ResponseWriter, r *http.Request) (*models.Bookmark, bool) {
	user := usercontext.User(r.Context())
	logger := loggercontext.Logger(r.Context())
	id := types.BookmarkId(chi.URLParam(r, "id"))

	bookmark, err := b.BookmarkModel.GetById(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, notFoundError())
			return nil, false
		}
		logger.Errorw("get bookmark", "error", err, "id", id)
		writeErrorResponse(w, http.StatusInternalServerError, internalError())
		return nil, false
	}
	if bookmark.UserId != user.ID {
		// Foreign bookmarks read as missing.
		writeErrorResponse(w, http.StatusNotFound, notFoundError())
		return nil, false
	}
	return bookmark, true
}

func writeResponse(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		loggercontext.Logger(r.Context()).Errorw("encoding response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, errResp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errResp)
}

// publicMessage returns the user-safe message attached to err, or the
// fallback when none was wrapped on.
func publicMessage(err error, fallback string) string {
	var pub interface{ Public() string }
	if errors.As(err, &pub) {
		return pub.Public()
	}
	return fallback
}

func internalError() ErrorResponse {
	return ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "Something went wrong",
	}
}

func notFoundError() ErrorResponse {
	return ErrorResponse{
		Code:    "NOT_FOUND",
		Message: "Bookmark not found",
	}
}
