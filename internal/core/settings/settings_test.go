package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Equal(t, "qrcode", d.LoginType)
	require.Equal(t, "search", d.CrawlerType)
	require.False(t, d.Headless)
	require.True(t, d.AntiDetection)
	require.False(t, d.ProxyEnabled)
	require.Equal(t, 15, d.MaxItems)
	require.Equal(t, 10, d.MaxCommentsPerItem)
	require.True(t, d.CommentsEnabled)
	require.False(t, d.SubCommentsEnabled)
	require.Equal(t, 2, d.MaxSleepSec)
}

func TestBeginAppliesOverrides(t *testing.T) {
	s := NewStore()
	tx := s.Begin("xhs", []string{"golang", "testing"}, Config{
		LoginType:   "cookie",
		CrawlerType: "detail",
		Headless:    boolPtr(true),
		MaxItems:    50,
	})
	defer tx.Restore()

	v := s.Current()
	require.Equal(t, "xhs", v.Platform)
	require.Equal(t, "golang,testing", v.Keywords)
	require.Equal(t, "cookie", v.LoginType)
	require.Equal(t, "detail", v.CrawlerType)
	require.True(t, v.Headless)
	require.Equal(t, 50, v.MaxItems)
	// unset fields fall back to defaults, not previous values
	require.Equal(t, 10, v.MaxCommentsPerItem)
	require.True(t, v.CommentsEnabled)
}

func TestRestoreExactness(t *testing.T) {
	s := NewStore()
	first := s.Begin("wb", []string{"news"}, Config{MaxItems: 99, Headless: boolPtr(true)})
	first.Restore()
	before := s.Current()

	tx := s.Begin("dy", []string{"a", "b"}, Config{LoginType: "phone", SubCommentsEnabled: boolPtr(true)})
	require.NotEqual(t, before, s.Current())
	tx.Restore()

	require.Equal(t, before, s.Current())
}

func TestRestoreAfterPanicInScope(t *testing.T) {
	s := NewStore()
	before := s.Current()

	func() {
		defer func() { _ = recover() }()
		tx := s.Begin("xhs", []string{"k"}, Config{MaxItems: 3})
		defer tx.Restore()
		panic("crawl blew up")
	}()

	require.Equal(t, before, s.Current())
}

func TestRestoreConsumedOnce(t *testing.T) {
	s := NewStore()
	tx := s.Begin("xhs", []string{"k"}, Config{})
	tx.Restore()
	after := s.Current()

	// second restore is a no-op even after a new transaction opened
	tx2 := s.Begin("wb", []string{"x"}, Config{})
	tx.Restore()
	require.Equal(t, "wb", s.Current().Platform)
	tx2.Restore()
	require.Equal(t, after, s.Current())
}

func TestStaleTransactionIgnored(t *testing.T) {
	s := NewStore()
	stale := s.Begin("xhs", []string{"k"}, Config{})
	fresh := s.Begin("wb", []string{"x"}, Config{})

	// stale restore must not clobber the open transaction's settings
	stale.Restore()
	require.Equal(t, "wb", s.Current().Platform)
	fresh.Restore()
}

func TestNilTransactionRestore(t *testing.T) {
	var tx *Transaction
	require.NotPanics(t, func() { tx.Restore() })
}

func TestResetWritesDefaults(t *testing.T) {
	s := NewStore()
	s.Begin("xhs", []string{"k"}, Config{MaxItems: 1})
	s.Reset()
	want := Defaults()
	require.Equal(t, want, s.Current())
}

func TestCrawlerTypeContext(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "search", CrawlerTypeFrom(ctx))
	ctx = WithCrawlerType(ctx, "creator")
	require.Equal(t, "creator", CrawlerTypeFrom(ctx))
}
