package types

import "time"

type BookmarkId string

type UserId int

type TagId int64

// BookmarkStatus tracks the enrichment state machine. A bookmark starts
// as pending and never returns to it: a run moves it to processed or
// failed, and only an explicit reprocess touches it again.
type BookmarkStatus string

const (
	StatusPending   BookmarkStatus = "pending"
	StatusProcessed BookmarkStatus = "processed"
	StatusFailed    BookmarkStatus = "failed"
)

// SourceType classifies what kind of page a bookmark points at.
type SourceType string

const (
	SourceTypeArticle SourceType = "article"
	SourceTypeVideo   SourceType = "video"
	SourceTypeTweet   SourceType = "tweet"
)

// ExtractedContent is the transient result of one extraction run.
// TextContent may be empty when readability could not identify an
// article body; downstream stages must tolerate that.
type ExtractedContent struct {
	Title           string
	MetaDescription string
	TextContent     string
	Markdown        string
	FaviconUrl      string
	SourceType      SourceType
	Language        string
}

type CreateBookmarkRequest struct {
	Link        string   `json:"link"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type BookmarkListItem struct {
	Id        BookmarkId `json:"id"`
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}
