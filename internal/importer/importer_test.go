package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T, dir, platform, name, content string) {
	t.Helper()
	jsonDir := filepath.Join(dir, platform, "json")
	require.NoError(t, os.MkdirAll(jsonDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jsonDir, name), []byte(content), 0o644))
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "xhs", "search_contents_2025.json", `[]`)
	writeDump(t, dir, "xhs", "search_comments_2025.json", `[]`)
	writeDump(t, dir, "douyin", "search_contents_2025.json", `[]`)
	writeDump(t, dir, "myspace", "search_contents_2025.json", `[]`)
	writeDump(t, dir, "weibo", "readme.txt", `not json`)

	found, err := FindFiles(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)

	xhs := found["xhs"]
	require.Contains(t, xhs.Contents, "search_contents_2025.json")
	require.Contains(t, xhs.Comments, "search_comments_2025.json")

	dy := found["douyin"]
	require.NotEmpty(t, dy.Contents)
	require.Empty(t, dy.Comments)

	require.NotContains(t, found, "myspace")
	require.NotContains(t, found, "weibo")
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()

	arr := filepath.Join(dir, "arr.json")
	require.NoError(t, os.WriteFile(arr, []byte(`[{"id": "a"}, {"id": "b"}]`), 0o644))
	items, err := LoadJSON(arr)
	require.NoError(t, err)
	require.Len(t, items, 2)

	single := filepath.Join(dir, "single.json")
	require.NoError(t, os.WriteFile(single, []byte(`{"id": "solo"}`), 0o644))
	items, err = LoadJSON(single)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "solo", items[0]["id"])

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json at all`), 0o644))
	_, err = LoadJSON(bad)
	require.Error(t, err)
}

func TestCombine(t *testing.T) {
	now := time.Now()
	contents := []map[string]interface{}{
		{"note_id": "n1", "title": "first"},
		{"note_id": "n1", "title": "dup"},
		{"aweme_id": "a1", "title": "video"},
		{"title": "no id"},
	}
	comments := []map[string]interface{}{
		{"note_id": "n1", "text": "c1"},
		{"note_id": "n1", "text": "c2"},
		{"oid": "orphan-1", "text": "lost"},
	}

	combined := Combine(contents, comments, now)
	require.Len(t, combined, 3)

	require.Equal(t, "first", combined[0].Content["title"])
	require.Equal(t, 2, combined[0].CommentCount)
	require.Equal(t, now, combined[0].ImportedAt)

	require.Equal(t, "video", combined[1].Content["title"])
	require.Zero(t, combined[1].CommentCount)

	// orphan comment group survives with nil content
	require.Nil(t, combined[2].Content)
	require.Equal(t, 1, combined[2].CommentCount)
	require.Equal(t, "lost", combined[2].Comments[0]["text"])
}

func TestCombineEmpty(t *testing.T) {
	require.Empty(t, Combine(nil, nil, time.Now()))
}

func TestCombineNothingDerivable(t *testing.T) {
	// a dump whose records all lack id fields must yield no documents, and
	// the import skips the platform rather than issuing an empty insert
	contents := []map[string]interface{}{
		{"title": "no id at all"},
		{"note_id": "", "title": "blank id"},
	}
	comments := []map[string]interface{}{
		{"text": "unattributable"},
	}
	require.Empty(t, Combine(contents, comments, time.Now()))
}
