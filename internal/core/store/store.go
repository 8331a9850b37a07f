// Package store persists captured crawl records, one collection per
// platform, with idempotent upsert semantics keyed by post id.
package store

import (
	"context"
	"strconv"
	"time"
)

// Post is a raw scraped content object. Field names vary per platform, so it
// stays schemaless.
type Post = map[string]interface{}

// Comment is a raw scraped comment object.
type Comment = map[string]interface{}

// Metadata describes the crawl run a document came from.
type Metadata struct {
	TaskID    string    `bson:"task_id" json:"task_id"`
	Round     int       `bson:"round" json:"round"`
	Keywords  []string  `bson:"keywords" json:"keywords"`
	CrawlTime time.Time `bson:"crawl_time" json:"crawl_time"`
}

// Document is the durable per-post record. At most one document exists per
// post id within a platform collection.
type Document struct {
	PostID        string    `bson:"post_id" json:"post_id"`
	PostDetail    Post      `bson:"post_detail" json:"post_detail"`
	Comments      []Comment `bson:"comments" json:"comments"`
	CommentCount  int       `bson:"comment_count" json:"comment_count"`
	CrawlMetadata Metadata  `bson:"crawl_metadata" json:"crawl_metadata"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// Stats aggregates one platform collection.
type Stats struct {
	Platform      string `json:"platform"`
	TotalPosts    int64  `json:"total_posts"`
	TotalComments int64  `json:"total_comments"`
}

// Store is the persistence handler consumed by the task executor and the
// read endpoints.
type Store interface {
	// Save upserts one post with its comments. Returns false when the post
	// carries no derivable id or the write failed; write failures are logged
	// and never escalate.
	Save(ctx context.Context, platform string, post Post, comments []Comment, meta Metadata) bool

	// SaveBatch applies Save per post and returns the number of successful
	// saves. One failing item never fails the batch.
	SaveBatch(ctx context.Context, platform string, posts []Post, comments map[string][]Comment, meta Metadata) int

	// Posts returns documents with pagination, newest first.
	Posts(ctx context.Context, platform string, limit, skip int64) ([]Document, error)

	// Post returns a single document by post id, nil when absent.
	Post(ctx context.Context, platform, postID string) (*Document, error)

	// EnsureIndexes idempotently creates the collection's indexes.
	EnsureIndexes(ctx context.Context, platform string) error

	// Stats returns document count and summed comment counts.
	Stats(ctx context.Context, platform string) (Stats, error)
}

// CollectionName derives the per-platform collection name.
func CollectionName(platform string) string {
	return platform + "_media_crawler"
}

// idFields is the fallback order observed across platform payloads. xhs uses
// note_id, douyin uses aweme_id, the rest settle on post_id or id.
var idFields = []string{"post_id", "note_id", "aweme_id", "id"}

// PostID derives the unique identifier of a post, or "" when none of the
// known id fields is present.
func PostID(post Post) string {
	for _, field := range idFields {
		if v, ok := post[field]; ok {
			if s := idString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; ids are integral.
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// NewDocument builds the durable record for one captured post.
func NewDocument(postID string, post Post, comments []Comment, meta Metadata, now time.Time) Document {
	return Document{
		PostID:        postID,
		PostDetail:    post,
		Comments:      comments,
		CommentCount:  len(comments),
		CrawlMetadata: meta,
		UpdatedAt:     now,
	}
}
