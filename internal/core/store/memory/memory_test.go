package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacrawler/internal/core/store"
)

func TestUpsertIdempotence(t *testing.T) {
	s := New()
	ctx := context.Background()
	meta := store.Metadata{TaskID: "t1", Round: 1}

	ok := s.Save(ctx, "xhs", store.Post{"post_id": "A"}, []store.Comment{{"text": "one"}}, meta)
	require.True(t, ok)
	first, err := s.Post(ctx, "xhs", "A")
	require.NoError(t, err)
	require.NotNil(t, first)

	ok = s.Save(ctx, "xhs", store.Post{"post_id": "A"}, []store.Comment{{"text": "one"}, {"text": "two"}}, meta)
	require.True(t, ok)

	stats, err := s.Stats(ctx, "xhs")
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalPosts)

	second, err := s.Post(ctx, "xhs", "A")
	require.NoError(t, err)
	require.Equal(t, 2, second.CommentCount)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt), "updated_at must strictly increase")
}

func TestSaveWithoutID(t *testing.T) {
	s := New()
	ok := s.Save(context.Background(), "xhs", store.Post{"title": "no id"}, nil, store.Metadata{})
	require.False(t, ok)
	stats, _ := s.Stats(context.Background(), "xhs")
	require.Zero(t, stats.TotalPosts)
}

func TestSaveBatchSkipsUnidentifiable(t *testing.T) {
	s := New()
	posts := []store.Post{
		{"post_id": "A"},
		{"title": "dropped"},
		{"aweme_id": "B"},
	}
	comments := map[string][]store.Comment{
		"A": {{"text": "ca"}},
		"B": {{"text": "cb1"}, {"text": "cb2"}},
	}
	saved := s.SaveBatch(context.Background(), "dy", posts, comments, store.Metadata{})
	require.Equal(t, 2, saved)

	stats, err := s.Stats(context.Background(), "dy")
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalPosts)
	require.Equal(t, int64(3), stats.TotalComments)
}

func TestPostsPagination(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		require.True(t, s.Save(ctx, "wb", store.Post{"post_id": id}, nil, store.Metadata{}))
	}

	all, err := s.Posts(ctx, "wb", 100, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	require.Equal(t, "p3", all[0].PostID)

	page, err := s.Posts(ctx, "wb", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "p2", page[0].PostID)

	empty, err := s.Posts(ctx, "wb", 10, 5)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestEnsureIndexes(t *testing.T) {
	s := New()
	require.False(t, s.Indexed("xhs"))
	require.NoError(t, s.EnsureIndexes(context.Background(), "xhs"))
	require.NoError(t, s.EnsureIndexes(context.Background(), "xhs"))
	require.True(t, s.Indexed("xhs"))
}

func TestPostMissing(t *testing.T) {
	s := New()
	doc, err := s.Post(context.Background(), "xhs", "nope")
	require.NoError(t, err)
	require.Nil(t, doc)
}
