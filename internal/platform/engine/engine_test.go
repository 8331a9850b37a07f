package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacrawler/internal/core/settings"
	"mediacrawler/internal/core/store"
)

type recordingSink struct {
	posts    []store.Post
	comments [][]store.Comment
	err      error
}

func (s *recordingSink) Save(_ context.Context, post store.Post, comments []store.Comment) error {
	if s.err != nil {
		return s.err
	}
	s.posts = append(s.posts, post)
	s.comments = append(s.comments, comments)
	return nil
}

func TestReadRecords(t *testing.T) {
	out := strings.Join([]string{
		`[INFO] engine booting`,
		``,
		`{"post": {"note_id": "n1"}, "comments": [{"text": "hi"}, {"text": "yo"}]}`,
		`progress 50%`,
		`{"broken json`,
		`{"comments": [{"text": "orphan"}]}`,
		`{"post": {"note_id": "n2"}}`,
	}, "\n")

	sink := &recordingSink{}
	captured, err := readRecords(context.Background(), strings.NewReader(out), sink)
	require.NoError(t, err)
	require.Equal(t, 2, captured)
	require.Len(t, sink.posts, 2)
	require.Equal(t, "n1", sink.posts[0]["note_id"])
	require.Len(t, sink.comments[0], 2)
	require.Equal(t, "n2", sink.posts[1]["note_id"])
	require.Nil(t, sink.comments[1])
}

func TestReadRecordsSinkError(t *testing.T) {
	out := `{"post": {"note_id": "n1"}}` + "\n" + `{"post": {"note_id": "n2"}}` + "\n"
	sink := &recordingSink{err: errors.New("store down")}
	captured, err := readRecords(context.Background(), strings.NewReader(out), sink)
	require.Error(t, err)
	require.Equal(t, 0, captured)
}

func TestBuildArgs(t *testing.T) {
	v := settings.Defaults()
	v.Platform = "xhs"
	v.Keywords = "coffee,tea"

	args := buildArgs(v)
	joined := strings.Join(args, " ")
	require.Contains(t, joined, "--platform xhs")
	require.Contains(t, joined, "--keywords coffee,tea")
	require.Contains(t, joined, "--type search")
	require.Contains(t, joined, "--lt qrcode")
	require.Contains(t, joined, "--headless false")
	require.Contains(t, joined, "--anti-detect true")
	require.Contains(t, joined, "--max-count 15")
	require.Contains(t, joined, "--max-comments 10")
	require.Contains(t, joined, "--get-comment true")
	require.NotContains(t, joined, "--proxy")

	v.ProxyEnabled = true
	v.ProxyPoolCount = 4
	joined = strings.Join(buildArgs(v), " ")
	require.Contains(t, joined, "--proxy --proxy-pool 4")
}

func TestFactoryRequiresCommand(t *testing.T) {
	f := NewFactory("", settings.NewStore())
	_, err := f.Create("xhs")
	require.Error(t, err)

	f = NewFactory("/usr/bin/crawler", settings.NewStore())
	c, err := f.Create("xhs")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NoError(t, c.Close(context.Background()))
}
