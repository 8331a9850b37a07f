package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectionName(t *testing.T) {
	require.Equal(t, "xhs_media_crawler", CollectionName("xhs"))
	require.Equal(t, "wb_media_crawler", CollectionName("wb"))
}

func TestPostIDFallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want string
	}{
		{"post_id wins", Post{"post_id": "A", "note_id": "B", "id": "C"}, "A"},
		{"note_id second", Post{"note_id": "B", "aweme_id": "C"}, "B"},
		{"aweme_id third", Post{"aweme_id": "B", "id": "C"}, "B"},
		{"id last", Post{"id": "D"}, "D"},
		{"only aweme_id", Post{"aweme_id": "B"}, "B"},
		{"none present", Post{"title": "hello"}, ""},
		{"empty values skipped", Post{"post_id": "", "note_id": "N"}, "N"},
		{"numeric id", Post{"id": float64(12345)}, "12345"},
		{"int id", Post{"id": 42}, "42"},
		{"unusable type", Post{"id": []string{"x"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PostID(tt.post))
		})
	}
}

func TestNewDocument(t *testing.T) {
	now := time.Now()
	post := Post{"note_id": "n1", "title": "hello"}
	comments := []Comment{{"text": "first"}, {"text": "second"}}
	meta := Metadata{TaskID: "t1", Round: 2, Keywords: []string{"k"}, CrawlTime: now}

	doc := NewDocument("n1", post, comments, meta, now)
	require.Equal(t, "n1", doc.PostID)
	require.Equal(t, post, doc.PostDetail)
	require.Equal(t, 2, doc.CommentCount)
	require.Equal(t, meta, doc.CrawlMetadata)
	require.Equal(t, now, doc.UpdatedAt)
}
